package app

import (
	"context"
	"fmt"

	"github.com/Amund211/beacon/internal/datafeed"
	"github.com/Amund211/beacon/internal/domain"
	"github.com/Amund211/beacon/internal/logging"
)

type GetCurrentStatus func(ctx context.Context) (*domain.StatusSnapshot, error)

// BuildGetCurrentStatus returns the cached snapshot if one exists, and performs
// a synchronous update otherwise.
func BuildGetCurrentStatus(feed *datafeed.Feed[*domain.StatusSnapshot]) GetCurrentStatus {
	return func(ctx context.Context) (*domain.StatusSnapshot, error) {
		snapshot, ok := feed.Current(ctx)
		if ok {
			return snapshot, nil
		}

		err := feed.TriggerUpdate(ctx)
		if err != nil {
			// NOTE: StatusProvider implementations handle their own error reporting
			return nil, fmt.Errorf("could not get status: %w", err)
		}

		snapshot, ok = feed.Current(ctx)
		if !ok {
			// The update was skipped because another fetch is in flight, or the
			// cache was cleared in between.
			logging.FromContext(ctx).Info("No cached status after update")
			return nil, fmt.Errorf("%w: status not available yet", domain.ErrUpstreamUnavailable)
		}

		return snapshot, nil
	}
}
