package ports

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Amund211/beacon/internal/domain"
	"github.com/Amund211/beacon/internal/logging"
)

// writeErrorResponse maps domain errors to status codes and writes a JSON
// error body. Internal details never leak to the client.
func writeErrorResponse(ctx context.Context, w http.ResponseWriter, err error) {
	cause := "internal server error"
	statusCode := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrUpstreamNotConfigured):
		cause = "unknown upstream"
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		cause = "upstream unavailable"
		statusCode = http.StatusBadGateway
	case errors.Is(err, domain.ErrInvalidUpstreamResponse):
		cause = "invalid upstream response"
		statusCode = http.StatusBadGateway
	}

	writeJSONError(ctx, w, cause, statusCode)
}

func writeJSONError(ctx context.Context, w http.ResponseWriter, cause string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, err := fmt.Fprintf(w, `{"success":false,"cause":%q}`, cause)
	if err != nil {
		logging.FromContext(ctx).Error("failed to write error response", "error", err.Error())
	}
}
