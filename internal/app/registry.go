package app

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Amund211/beacon/internal/datafeed"
	"github.com/Amund211/beacon/internal/domain"
)

// Registry holds one status feed per configured upstream.
type Registry struct {
	lock  sync.RWMutex
	feeds map[string]*datafeed.Feed[*domain.StatusSnapshot]
}

func NewRegistry() *Registry {
	return &Registry{
		feeds: make(map[string]*datafeed.Feed[*domain.StatusSnapshot]),
	}
}

func (r *Registry) Register(name string, feed *datafeed.Feed[*domain.StatusSnapshot]) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, exists := r.feeds[name]; exists {
		return fmt.Errorf("upstream %q is already registered", name)
	}

	r.feeds[name] = feed
	return nil
}

func (r *Registry) Lookup(name string) (*datafeed.Feed[*domain.StatusSnapshot], error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	feed, exists := r.feeds[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", domain.ErrUpstreamNotConfigured, name)
	}

	return feed, nil
}

func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	names := make([]string, 0, len(r.feeds))
	for name := range r.feeds {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// TeardownAll tears down every registered feed.
func (r *Registry) TeardownAll(ctx context.Context) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, feed := range r.feeds {
		feed.Teardown(ctx)
	}
}
