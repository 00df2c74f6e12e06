package ports

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Amund211/beacon/internal/app"
	"github.com/Amund211/beacon/internal/logging"
	"github.com/Amund211/beacon/internal/ratelimiting"
	"github.com/Amund211/beacon/internal/reporting"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

func MakeGetHistoryHandler(
	registry *app.Registry,
	getStatusHistory app.GetStatusHistory,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	// The limiter lives for the lifetime of the process
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(60),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(ipLimiter, ratelimiting.IPKeyFunc)

	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		buildMetricsMiddleware(),
		NewRateLimitMiddleware(ipRateLimiter),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		upstream := r.PathValue("upstream")

		ctx = logging.AddMetaToContext(ctx, slog.String("upstream", upstream))
		ctx = reporting.AddExtrasToContext(ctx, map[string]string{"upstream": upstream})

		if _, err := registry.Lookup(upstream); err != nil {
			writeErrorResponse(ctx, w, err)
			return
		}

		query := r.URL.Query()

		end := time.Now()
		if rawEnd := query.Get("end"); rawEnd != "" {
			parsed, err := time.Parse(time.RFC3339, rawEnd)
			if err != nil {
				writeJSONError(ctx, w, "invalid end time", http.StatusBadRequest)
				return
			}
			end = parsed
		}

		start := end.Add(-24 * time.Hour)
		if rawStart := query.Get("start"); rawStart != "" {
			parsed, err := time.Parse(time.RFC3339, rawStart)
			if err != nil {
				writeJSONError(ctx, w, "invalid start time", http.StatusBadRequest)
				return
			}
			start = parsed
		}

		if start.After(end) {
			writeJSONError(ctx, w, "start must be before end", http.StatusBadRequest)
			return
		}

		limit := defaultHistoryLimit
		if rawLimit := query.Get("limit"); rawLimit != "" {
			parsed, err := strconv.Atoi(rawLimit)
			if err != nil || parsed <= 0 || parsed > maxHistoryLimit {
				writeJSONError(ctx, w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		history, err := getStatusHistory(ctx, upstream, start, end, limit)
		if err != nil {
			// NOTE: GetStatusHistory implementations handle their own error reporting
			writeErrorResponse(ctx, w, err)
			return
		}

		response, err := historyToResponse(history)
		if err != nil {
			reporting.Report(ctx, fmt.Errorf("failed to create history response: %w", err))
			writeErrorResponse(ctx, w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(response)
	}

	return middleware(handler)
}
