package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Amund211/beacon/internal/datafeed"
	"github.com/Amund211/beacon/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStatusFetcher struct {
	lock     sync.Mutex
	calls    int
	snapshot *domain.StatusSnapshot
	err      error
}

func (f *stubStatusFetcher) Fetch(ctx context.Context) (*domain.StatusSnapshot, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

func (f *stubStatusFetcher) callCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.calls
}

func paymentsSnapshot() *domain.StatusSnapshot {
	return &domain.StatusSnapshot{
		QueriedAt:  time.Now(),
		Upstream:   "payments",
		Healthy:    true,
		StatusCode: 200,
		Latency:    5 * time.Millisecond,
	}
}

func TestGetCurrentStatus(t *testing.T) {
	t.Parallel()

	t.Run("fetches on cache miss and serves from cache afterwards", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubStatusFetcher{snapshot: paymentsSnapshot()}
		feed := datafeed.New[*domain.StatusSnapshot](fetcher, datafeed.WithName[*domain.StatusSnapshot]("payments"))

		getCurrentStatus := BuildGetCurrentStatus(feed)

		snapshot, err := getCurrentStatus(t.Context())
		require.NoError(t, err)
		require.NotNil(t, snapshot)
		assert.Equal(t, "payments", snapshot.Upstream)
		assert.Equal(t, 1, fetcher.callCount())

		snapshot, err = getCurrentStatus(t.Context())
		require.NoError(t, err)
		require.NotNil(t, snapshot)
		assert.Equal(t, 1, fetcher.callCount())
	})

	t.Run("propagates fetch errors", func(t *testing.T) {
		t.Parallel()

		fetchErr := errors.New("upstream exploded")
		fetcher := &stubStatusFetcher{err: fetchErr}
		feed := datafeed.New[*domain.StatusSnapshot](fetcher)

		getCurrentStatus := BuildGetCurrentStatus(feed)

		_, err := getCurrentStatus(t.Context())
		require.ErrorIs(t, err, fetchErr)
	})
}
