package datafeed

import "context"

type Option[T any] func(*Feed[T])

// Name the feed for logging and metrics.
func WithName[T any](name string) Option[T] {
	return func(f *Feed[T]) {
		f.name = name
	}
}

// Replace the default in-memory store for the cached value, e.g. with a
// TTL-backed store so the value expires and is lazily re-fetched.
func WithStore[T any](store Store[T]) Option[T] {
	return func(f *Feed[T]) {
		f.store = store
	}
}

// Hook to abort an in-flight fetch, e.g. by cancelling the underlying request.
// Without it, cancellation is a no-op and the in-flight fetch runs to
// completion.
func WithCancelFunc[T any](cancel func(ctx context.Context)) Option[T] {
	return func(f *Feed[T]) {
		f.cancel = cancel
	}
}

// Hook run by ClearCache after the cached value has been unset.
func WithClearFunc[T any](clear func(ctx context.Context)) Option[T] {
	return func(f *Feed[T]) {
		f.clear = clear
	}
}

// Hook run by Teardown to release external resources. The cancel behavior
// always runs first, so the hook does not need to abort the fetch itself.
func WithTeardownFunc[T any](teardown func(ctx context.Context)) Option[T] {
	return func(f *Feed[T]) {
		f.teardown = teardown
	}
}

type triggerConfig struct {
	onError        func(ctx context.Context, err error)
	cancelIfLocked bool
}

type TriggerOption func(*triggerConfig)

// Handle a failed fetch instead of returning the error from TriggerUpdate.
func WithErrorHandler(onError func(ctx context.Context, err error)) TriggerOption {
	return func(conf *triggerConfig) {
		conf.onError = onError
	}
}

// Cancel an in-flight fetch and start a new one instead of doing nothing.
func WithCancelIfLocked() TriggerOption {
	return func(conf *triggerConfig) {
		conf.cancelIfLocked = true
	}
}

type registerConfig struct {
	onError       func(ctx context.Context, err error)
	updateIfEmpty bool
}

type RegisterOption func(*registerConfig)

// Handle failures of the background update spawned when no value is cached.
// Without it, such failures are logged and dropped.
func WithUpdateErrorHandler(onError func(ctx context.Context, err error)) RegisterOption {
	return func(conf *registerConfig) {
		conf.onError = onError
	}
}

// Do not trigger a fetch when registering without a cached value; the listener
// stays registered and is first invoked on the next successful update.
func WithoutUpdateIfEmpty() RegisterOption {
	return func(conf *registerConfig) {
		conf.updateIfEmpty = false
	}
}
