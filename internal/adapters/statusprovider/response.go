package statusprovider

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Amund211/beacon/internal/domain"
)

const statusOK = "ok"

type healthResponse struct {
	Status     string                    `json:"status"`
	Message    *string                   `json:"message,omitempty"`
	Components []healthResponseComponent `json:"components,omitempty"`
}

type healthResponseComponent struct {
	Name    string  `json:"name"`
	Status  string  `json:"status"`
	Message *string `json:"message,omitempty"`
}

func snapshotFromResponse(upstream string, data []byte, statusCode int, latency time.Duration, queriedAt time.Time) (*domain.StatusSnapshot, error) {
	var parsed healthResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse health response: %w", domain.ErrInvalidUpstreamResponse, err)
	}

	if parsed.Status == "" {
		return nil, fmt.Errorf("%w: health response is missing status", domain.ErrInvalidUpstreamResponse)
	}

	components := make([]domain.ComponentStatus, 0, len(parsed.Components))
	for _, component := range parsed.Components {
		if component.Name == "" {
			return nil, fmt.Errorf("%w: health response component is missing name", domain.ErrInvalidUpstreamResponse)
		}
		components = append(components, domain.ComponentStatus{
			Name:    component.Name,
			Healthy: component.Status == statusOK,
			Message: component.Message,
		})
	}

	return &domain.StatusSnapshot{
		QueriedAt:  queriedAt,
		Upstream:   upstream,
		Healthy:    parsed.Status == statusOK,
		StatusCode: statusCode,
		Latency:    latency,
		Message:    parsed.Message,
		Components: components,
	}, nil
}
