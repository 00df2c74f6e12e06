package app

import (
	"errors"
	"testing"

	"github.com/Amund211/beacon/internal/datafeed"
	"github.com/Amund211/beacon/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshStatus(t *testing.T) {
	t.Parallel()

	t.Run("always fetches, even when a value is cached", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubStatusFetcher{snapshot: paymentsSnapshot()}
		feed := datafeed.New[*domain.StatusSnapshot](fetcher, datafeed.WithName[*domain.StatusSnapshot]("payments"))

		require.NoError(t, feed.TriggerUpdate(t.Context()))
		require.Equal(t, 1, fetcher.callCount())

		refreshStatus := BuildRefreshStatus(feed)

		snapshot, err := refreshStatus(t.Context())
		require.NoError(t, err)
		require.NotNil(t, snapshot)
		assert.Equal(t, "payments", snapshot.Upstream)
		assert.Equal(t, 2, fetcher.callCount())
	})

	t.Run("propagates fetch errors and keeps the old value", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubStatusFetcher{snapshot: paymentsSnapshot()}
		feed := datafeed.New[*domain.StatusSnapshot](fetcher)

		require.NoError(t, feed.TriggerUpdate(t.Context()))

		fetchErr := errors.New("upstream exploded")
		fetcher.lock.Lock()
		fetcher.err = fetchErr
		fetcher.lock.Unlock()

		refreshStatus := BuildRefreshStatus(feed)

		_, err := refreshStatus(t.Context())
		require.ErrorIs(t, err, fetchErr)

		cached, ok := feed.Current(t.Context())
		require.True(t, ok)
		assert.Equal(t, "payments", cached.Upstream)
	})
}
