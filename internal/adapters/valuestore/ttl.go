package valuestore

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/Amund211/beacon/internal/datafeed"
)

const valueKey = "value"

type ttlStore[T any] struct {
	cache *ttlcache.Cache[string, T]
}

func (s *ttlStore[T]) Get() (T, bool) {
	item := s.cache.Get(valueKey)
	if item == nil {
		var empty T
		return empty, false
	}
	return item.Value(), true
}

func (s *ttlStore[T]) Set(value T) {
	s.cache.Set(valueKey, value, ttlcache.DefaultTTL)
}

func (s *ttlStore[T]) Clear() {
	s.cache.Delete(valueKey)
}

// NewTTLStore returns a feed store whose value expires after the given TTL,
// so a later listener registration lazily triggers a fresh fetch. The second
// return value stops the cache's expiry loop.
func NewTTLStore[T any](ttl time.Duration) (datafeed.Store[T], func()) {
	cache := ttlcache.New[string, T](
		ttlcache.WithTTL[string, T](ttl),
		ttlcache.WithDisableTouchOnHit[string, T](),
	)
	go cache.Start()

	return &ttlStore[T]{cache: cache}, cache.Stop
}
