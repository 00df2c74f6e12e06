package ports

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Amund211/beacon/internal/app"
	"github.com/Amund211/beacon/internal/logging"
	"github.com/Amund211/beacon/internal/ratelimiting"
	"github.com/Amund211/beacon/internal/reporting"
)

func MakeRefreshStatusHandler(
	registry *app.Registry,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	// Forced refreshes hit the upstream directly, so the budget is tight.
	// The limiter lives for the lifetime of the process
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(5),
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

		feed, err := registry.Lookup(upstream)
		if err != nil {
			writeErrorResponse(ctx, w, err)
			return
		}

		snapshot, err := app.BuildRefreshStatus(feed)(ctx)
		if err != nil {
			// NOTE: RefreshStatus implementations handle their own error reporting
			writeErrorResponse(ctx, w, err)
			return
		}

		response, err := snapshotToResponse(snapshot)
		if err != nil {
			reporting.Report(ctx, fmt.Errorf("failed to create refresh response: %w", err))
			writeErrorResponse(ctx, w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(response)
	}

	return middleware(handler)
}
