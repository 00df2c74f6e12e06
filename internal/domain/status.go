package domain

import (
	"time"
)

type StatusSnapshot struct {
	QueriedAt time.Time

	Upstream string

	Healthy    bool
	StatusCode int
	Latency    time.Duration

	Message *string

	Components []ComponentStatus
}

type ComponentStatus struct {
	Name    string
	Healthy bool
	Message *string
}

// A snapshot is degraded if the upstream is healthy overall, but one or more
// of its components are not.
func (s *StatusSnapshot) Degraded() bool {
	if !s.Healthy {
		return false
	}
	for _, component := range s.Components {
		if !component.Healthy {
			return true
		}
	}
	return false
}
