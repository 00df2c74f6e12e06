package domain

import "errors"

var (
	ErrUpstreamUnavailable     = errors.New("upstream unavailable")
	ErrInvalidUpstreamResponse = errors.New("invalid upstream response")
	ErrUpstreamNotConfigured   = errors.New("upstream not configured")
)
