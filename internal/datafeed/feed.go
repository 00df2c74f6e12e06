package datafeed

import (
	"context"
	"fmt"
	"sync"

	"github.com/Amund211/beacon/internal/logging"
)

// Fetcher retrieves the current value for a feed, e.g. over the network.
// Fetch must be safe to invoke repeatedly across time.
type Fetcher[T any] interface {
	Fetch(ctx context.Context) (T, error)
}

type FetcherFunc[T any] func(ctx context.Context) (T, error)

func (f FetcherFunc[T]) Fetch(ctx context.Context) (T, error) {
	return f(ctx)
}

type Listener[T any] func(ctx context.Context, value T)

// Subscription identifies a registered listener. Listeners are removed by
// handle identity since function values are not comparable.
type Subscription struct {
	id uint64
}

type listenerEntry[T any] struct {
	sub *Subscription
	fn  Listener[T]
}

// Feed lazily fetches a value, caches the latest result and broadcasts every
// successful update to its listeners, synchronously and in registration order.
//
// At most one fetch is in flight per feed. The in-progress flag is advisory:
// it stops a second TriggerUpdate from starting a redundant fetch, but does
// not interrupt the underlying work unless a cancel hook actually aborts it.
type Feed[T any] struct {
	fetcher Fetcher[T]
	store   Store[T]
	name    string

	cancel   func(ctx context.Context)
	clear    func(ctx context.Context)
	teardown func(ctx context.Context)

	lock               sync.Mutex
	listeners          []listenerEntry[T]
	fetchInProgress    bool
	generation         uint64
	nextSubscriptionID uint64
}

func New[T any](fetcher Fetcher[T], options ...Option[T]) *Feed[T] {
	if fetcher == nil {
		panic("datafeed: nil fetcher")
	}

	feed := &Feed[T]{
		fetcher: fetcher,
		store:   NewMemoryStore[T](),
	}

	for _, option := range options {
		option(feed)
	}

	if feed.store == nil {
		panic("datafeed: nil store")
	}

	return feed
}

// Current returns the cached value, if any, without triggering a fetch.
func (f *Feed[T]) Current(ctx context.Context) (T, bool) {
	return f.store.Get()
}

// TriggerUpdate refreshes the cached value by invoking the fetcher.
//
// If a fetch is already in flight it does nothing and returns nil, unless
// WithCancelIfLocked is given, in which case the cancel behavior runs first
// and a new fetch is started anyway. A completion that has been superseded
// this way is discarded: it does not store its value and does not broadcast.
//
// On success the new value is stored and every registered listener is invoked
// synchronously, in registration order. On failure the error is passed to the
// WithErrorHandler callback if one is given, and returned otherwise; the
// cached value and the listeners are untouched either way. The in-progress
// flag is cleared on every exit path.
func (f *Feed[T]) TriggerUpdate(ctx context.Context, options ...TriggerOption) error {
	conf := triggerConfig{}
	for _, option := range options {
		option(&conf)
	}

	f.lock.Lock()
	if f.fetchInProgress {
		if !conf.cancelIfLocked {
			f.lock.Unlock()
			logging.FromContext(ctx).InfoContext(ctx, "Skipping update", "feed", f.name, "reason", "fetch already in progress")
			return nil
		}

		f.lock.Unlock()
		f.cancelFetch(ctx)
		f.lock.Lock()
	}

	f.fetchInProgress = true
	f.generation++
	generation := f.generation
	f.lock.Unlock()

	metrics.fetchCount.Add(ctx, 1, f.metricAttributes())

	value, err := f.fetcher.Fetch(ctx)

	f.lock.Lock()
	superseded := generation != f.generation
	if !superseded {
		f.fetchInProgress = false
	}

	if err != nil {
		f.lock.Unlock()
		metrics.fetchFailureCount.Add(ctx, 1, f.metricAttributes())

		if conf.onError != nil {
			conf.onError(ctx, err)
			return nil
		}
		return fmt.Errorf("feed %q: fetch failed: %w", f.name, err)
	}

	if superseded {
		// A cancel-if-locked update started a newer fetch while this one was
		// in flight. Its result wins; drop ours instead of racing it.
		f.lock.Unlock()
		metrics.staleResultCount.Add(ctx, 1, f.metricAttributes())
		logging.FromContext(ctx).InfoContext(ctx, "Discarding superseded fetch result", "feed", f.name)
		return nil
	}

	f.store.Set(value)

	current := make([]listenerEntry[T], len(f.listeners))
	copy(current, f.listeners)
	f.lock.Unlock()

	metrics.broadcastCount.Add(ctx, 1, f.metricAttributes())

	for _, entry := range current {
		entry.fn(ctx, value)
	}

	return nil
}

// RegisterListener appends the listener and returns its subscription handle.
//
// If a value is cached the listener is invoked once, immediately and
// synchronously. Otherwise a background update is triggered (unless
// WithoutUpdateIfEmpty is given) and the listener receives the value through
// the normal broadcast when the fetch completes. The background update's
// failure is only observable through WithUpdateErrorHandler; without one it
// is logged and dropped.
func (f *Feed[T]) RegisterListener(ctx context.Context, listener Listener[T], options ...RegisterOption) *Subscription {
	conf := registerConfig{updateIfEmpty: true}
	for _, option := range options {
		option(&conf)
	}

	f.lock.Lock()
	f.nextSubscriptionID++
	sub := &Subscription{id: f.nextSubscriptionID}
	f.listeners = append(f.listeners, listenerEntry[T]{sub: sub, fn: listener})
	// Read the cache under the same lock as the append. A completing fetch
	// stores its value and snapshots the listener list in one critical
	// section, so the new listener either sees the value here or receives it
	// through that broadcast, never both.
	value, ok := f.store.Get()
	f.lock.Unlock()

	if ok {
		listener(ctx, value)
		return sub
	}

	if !conf.updateIfEmpty {
		return sub
	}

	// Fire and forget: detach from the caller's context so the fetch survives
	// the registering request.
	detached := context.WithoutCancel(ctx)
	go func() {
		var triggerOptions []TriggerOption
		if conf.onError != nil {
			triggerOptions = append(triggerOptions, WithErrorHandler(conf.onError))
		}

		err := f.TriggerUpdate(detached, triggerOptions...)
		if err != nil {
			logging.FromContext(detached).ErrorContext(detached, "Background update from listener registration failed", "feed", f.name, "error", err.Error())
		}
	}()

	return sub
}

// UnregisterListener removes all registrations made under the subscription.
// It is a no-op for nil, unknown or already removed subscriptions.
func (f *Feed[T]) UnregisterListener(sub *Subscription) {
	if sub == nil {
		return
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	kept := make([]listenerEntry[T], 0, len(f.listeners))
	for _, entry := range f.listeners {
		if entry.sub != sub {
			kept = append(kept, entry)
		}
	}
	f.listeners = kept
}

// ClearCache unsets the cached value and runs the clear hook, if any. A later
// registration with updates enabled will trigger a fresh fetch.
func (f *Feed[T]) ClearCache(ctx context.Context) {
	f.store.Clear()

	if f.clear != nil {
		f.clear(ctx)
	}
}

// Teardown cancels any in-flight fetch and then runs the teardown hook, if
// any.
func (f *Feed[T]) Teardown(ctx context.Context) {
	f.cancelFetch(ctx)

	if f.teardown != nil {
		f.teardown(ctx)
	}
}

func (f *Feed[T]) cancelFetch(ctx context.Context) {
	if f.cancel != nil {
		f.cancel(ctx)
		return
	}

	f.lock.Lock()
	inProgress := f.fetchInProgress
	f.lock.Unlock()

	if inProgress {
		logging.FromContext(ctx).WarnContext(ctx, "Fetch cancellation requested, but no cancel hook is configured; the in-flight fetch will run to completion", "feed", f.name)
	}
}
