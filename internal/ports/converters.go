package ports

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Amund211/beacon/internal/domain"
)

type componentData struct {
	Name    string  `json:"name"`
	Healthy bool    `json:"healthy"`
	Message *string `json:"message,omitempty"`
}

type statusData struct {
	Upstream   string          `json:"upstream"`
	QueriedAt  time.Time       `json:"queriedAt"`
	Healthy    bool            `json:"healthy"`
	Degraded   bool            `json:"degraded"`
	StatusCode int             `json:"statusCode"`
	LatencyMS  int64           `json:"latencyMs"`
	Message    *string         `json:"message,omitempty"`
	Components []componentData `json:"components,omitempty"`
}

type statusResponse struct {
	Success bool        `json:"success"`
	Status  *statusData `json:"status,omitempty"`
	Cause   string      `json:"cause,omitempty"`
}

type historyResponse struct {
	Success bool         `json:"success"`
	History []statusData `json:"history,omitempty"`
	Cause   string       `json:"cause,omitempty"`
}

func snapshotToStatusData(snapshot *domain.StatusSnapshot) statusData {
	components := make([]componentData, 0, len(snapshot.Components))
	for _, component := range snapshot.Components {
		components = append(components, componentData{
			Name:    component.Name,
			Healthy: component.Healthy,
			Message: component.Message,
		})
	}

	return statusData{
		Upstream:   snapshot.Upstream,
		QueriedAt:  snapshot.QueriedAt,
		Healthy:    snapshot.Healthy,
		Degraded:   snapshot.Degraded(),
		StatusCode: snapshot.StatusCode,
		LatencyMS:  snapshot.Latency.Milliseconds(),
		Message:    snapshot.Message,
		Components: components,
	}
}

func snapshotToResponse(snapshot *domain.StatusSnapshot) ([]byte, error) {
	data := snapshotToStatusData(snapshot)
	marshalled, err := json.Marshal(statusResponse{Success: true, Status: &data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status response: %w", err)
	}
	return marshalled, nil
}

func historyToResponse(history []domain.StatusSnapshot) ([]byte, error) {
	data := make([]statusData, 0, len(history))
	for i := range history {
		data = append(data, snapshotToStatusData(&history[i]))
	}

	marshalled, err := json.Marshal(historyResponse{Success: true, History: data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history response: %w", err)
	}
	return marshalled, nil
}
