package app

import (
	"testing"

	"github.com/Amund211/beacon/internal/adapters/snapshotrepository"
	"github.com/Amund211/beacon/internal/datafeed"
	"github.com/Amund211/beacon/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistSnapshots(t *testing.T) {
	t.Parallel()

	t.Run("does not trigger a fetch when registering", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubStatusFetcher{snapshot: paymentsSnapshot()}
		feed := datafeed.New[*domain.StatusSnapshot](fetcher)
		repo := snapshotrepository.NewStubSnapshotRepository()

		BuildPersistSnapshots(feed, repo)

		assert.Equal(t, 0, fetcher.callCount())
		assert.Empty(t, repo.Stored())
	})

	t.Run("stores every broadcast snapshot", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubStatusFetcher{snapshot: paymentsSnapshot()}
		feed := datafeed.New[*domain.StatusSnapshot](fetcher)
		repo := snapshotrepository.NewStubSnapshotRepository()

		BuildPersistSnapshots(feed, repo)

		require.NoError(t, feed.TriggerUpdate(t.Context()))
		require.NoError(t, feed.TriggerUpdate(t.Context()))

		stored := repo.Stored()
		require.Len(t, stored, 2)
		assert.Equal(t, "payments", stored[0].Upstream)
	})

	t.Run("unsubscribing stops persisting", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubStatusFetcher{snapshot: paymentsSnapshot()}
		feed := datafeed.New[*domain.StatusSnapshot](fetcher)
		repo := snapshotrepository.NewStubSnapshotRepository()

		sub := BuildPersistSnapshots(feed, repo)

		require.NoError(t, feed.TriggerUpdate(t.Context()))
		require.Len(t, repo.Stored(), 1)

		feed.UnregisterListener(sub)

		require.NoError(t, feed.TriggerUpdate(t.Context()))
		assert.Len(t, repo.Stored(), 1)
	})
}
