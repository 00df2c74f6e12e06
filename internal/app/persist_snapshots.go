package app

import (
	"context"
	"time"

	"github.com/Amund211/beacon/internal/adapters/snapshotrepository"
	"github.com/Amund211/beacon/internal/datafeed"
	"github.com/Amund211/beacon/internal/domain"
	"github.com/Amund211/beacon/internal/logging"
)

// BuildPersistSnapshots registers a listener that stores every broadcast
// snapshot in the repository. The returned subscription can be used to stop
// persisting.
func BuildPersistSnapshots(feed *datafeed.Feed[*domain.StatusSnapshot], repo snapshotrepository.SnapshotRepository) *datafeed.Subscription {
	return feed.RegisterListener(
		context.Background(),
		func(ctx context.Context, snapshot *domain.StatusSnapshot) {
			logger := logging.FromContext(ctx)

			// Ignore cancellations from the triggering context and try to store
			// the data anyway. Take a maximum of 1 second to not block the
			// broadcast for too long.
			storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 1*time.Second)
			defer cancel()

			err := repo.StoreSnapshot(storeCtx, snapshot)
			if err != nil {
				// NOTE: SnapshotRepository implementations handle their own error reporting
				logger.Error("failed to store snapshot", "upstream", snapshot.Upstream, "error", err.Error())
			}
		},
		datafeed.WithoutUpdateIfEmpty(),
	)
}
