package datafeed

import "sync"

// Store holds a feed's cached value. Implementations must be safe for
// concurrent use. The zero state holds no value.
type Store[T any] interface {
	Get() (T, bool)
	Set(value T)
	Clear()
}

type memoryStore[T any] struct {
	lock  sync.Mutex
	value T
	valid bool
}

func (s *memoryStore[T]) Get() (T, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.valid {
		var empty T
		return empty, false
	}
	return s.value, true
}

func (s *memoryStore[T]) Set(value T) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.value = value
	s.valid = true
}

func (s *memoryStore[T]) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()

	var empty T
	s.value = empty
	s.valid = false
}

func NewMemoryStore[T any]() Store[T] {
	return &memoryStore[T]{}
}
