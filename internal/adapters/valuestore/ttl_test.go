package valuestore_test

import (
	"testing"
	"time"

	"github.com/Amund211/beacon/internal/adapters/valuestore"
	"github.com/stretchr/testify/require"
)

func TestTTLStore(t *testing.T) {
	t.Parallel()

	t.Run("starts empty", func(t *testing.T) {
		t.Parallel()

		store, stop := valuestore.NewTTLStore[string](1000 * time.Second)
		defer stop()

		_, ok := store.Get()
		require.False(t, ok)
	})

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()

		store, stop := valuestore.NewTTLStore[string](1000 * time.Second)
		defer stop()

		store.Set("value")

		value, ok := store.Get()
		require.True(t, ok)
		require.Equal(t, "value", value)
	})

	t.Run("clear empties the store", func(t *testing.T) {
		t.Parallel()

		store, stop := valuestore.NewTTLStore[string](1000 * time.Second)
		defer stop()

		store.Set("value")
		store.Clear()

		_, ok := store.Get()
		require.False(t, ok)
	})

	t.Run("value expires after the TTL", func(t *testing.T) {
		t.Parallel()

		store, stop := valuestore.NewTTLStore[string](10 * time.Millisecond)
		defer stop()

		store.Set("value")

		require.Eventually(t, func() bool {
			_, ok := store.Get()
			return !ok
		}, 5*time.Second, 5*time.Millisecond)
	})
}
