package app

import (
	"context"
	"fmt"

	"github.com/Amund211/beacon/internal/datafeed"
	"github.com/Amund211/beacon/internal/domain"
)

type RefreshStatus func(ctx context.Context) (*domain.StatusSnapshot, error)

// BuildRefreshStatus forces a fresh fetch, superseding an in-flight one if
// necessary, and returns the resulting snapshot.
func BuildRefreshStatus(feed *datafeed.Feed[*domain.StatusSnapshot]) RefreshStatus {
	return func(ctx context.Context) (*domain.StatusSnapshot, error) {
		err := feed.TriggerUpdate(ctx, datafeed.WithCancelIfLocked())
		if err != nil {
			// NOTE: StatusProvider implementations handle their own error reporting
			return nil, fmt.Errorf("could not refresh status: %w", err)
		}

		snapshot, ok := feed.Current(ctx)
		if !ok {
			return nil, fmt.Errorf("%w: status not available after refresh", domain.ErrUpstreamUnavailable)
		}

		return snapshot, nil
	}
}
