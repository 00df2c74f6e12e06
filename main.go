package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/Amund211/beacon/internal/adapters/database"
	"github.com/Amund211/beacon/internal/adapters/snapshotrepository"
	"github.com/Amund211/beacon/internal/adapters/statusprovider"
	"github.com/Amund211/beacon/internal/adapters/valuestore"
	"github.com/Amund211/beacon/internal/app"
	"github.com/Amund211/beacon/internal/config"
	"github.com/Amund211/beacon/internal/datafeed"
	"github.com/Amund211/beacon/internal/domain"
	"github.com/Amund211/beacon/internal/logging"
	"github.com/Amund211/beacon/internal/ports"
	"github.com/Amund211/beacon/internal/reporting"
	"github.com/Amund211/beacon/internal/telemetry"
)

const statusTTL = 5 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instanceID := uuid.New().String()
	logger := slog.New(
		logging.NewTracingLogHandler(slog.NewJSONHandler(os.Stdout, nil)),
	).With("instanceID", instanceID)
	ctx = logging.AddToContext(ctx, logger)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	conf, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", conf.NonSensitiveString())

	upstreams := developmentUpstreams()
	if conf.UpstreamsPath() != "" {
		upstreams, err = config.UpstreamsFromFile(conf.UpstreamsPath())
		if err != nil {
			fail("Failed to load upstreams", "error", err.Error())
		}
	}
	logger.Info("Loaded upstreams", "count", len(upstreams))

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(conf)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	otelShutdown, err := telemetry.SetupOTelSDK(ctx, "beacon", conf.OTLPEndpoint())
	if err != nil {
		fail("Failed to initialize OpenTelemetry", "error", err.Error())
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
		}
	}()

	logger.Info("Initializing database connection")
	db, err := database.NewConfiguredPostgresDatabase(conf)
	if err != nil {
		fail("Failed to initialize database connection", "error", err.Error())
	}

	schemaName := database.GetSchemaName(!conf.IsProduction())
	err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
	if err != nil {
		fail("Failed to migrate database", "error", err.Error())
	}

	repo := snapshotrepository.NewPostgres(db, schemaName)
	logger.Info("Initialized SnapshotRepository")

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	registry := app.NewRegistry()
	for _, upstream := range upstreams {
		provider, err := statusprovider.NewUpstreamAPIOrMock(conf, httpClient, upstream.Name, upstream.URL)
		if err != nil {
			fail("Failed to initialize status provider", "upstream", upstream.Name, "error", err.Error())
		}

		store, stopStore := valuestore.NewTTLStore[*domain.StatusSnapshot](statusTTL)
		feed := datafeed.New[*domain.StatusSnapshot](
			provider,
			datafeed.WithName[*domain.StatusSnapshot](upstream.Name),
			datafeed.WithStore[*domain.StatusSnapshot](store),
			datafeed.WithCancelFunc[*domain.StatusSnapshot](provider.CancelFetch),
			datafeed.WithTeardownFunc[*domain.StatusSnapshot](func(ctx context.Context) {
				stopStore()
			}),
		)

		app.BuildPersistSnapshots(feed, repo)

		if err := registry.Register(upstream.Name, feed); err != nil {
			fail("Failed to register upstream", "upstream", upstream.Name, "error", err.Error())
		}
	}
	logger.Info("Initialized status feeds", "upstreams", registry.Names())

	mux := http.NewServeMux()
	mux.HandleFunc(
		"GET /v1/status/{upstream}",
		ports.MakeGetStatusHandler(registry, logger.With("port", "getstatus"), sentryMiddleware),
	)
	mux.HandleFunc(
		"POST /v1/status/{upstream}/refresh",
		ports.MakeRefreshStatusHandler(registry, logger.With("port", "refreshstatus"), sentryMiddleware),
	)
	mux.HandleFunc(
		"GET /v1/status/{upstream}/history",
		ports.MakeGetHistoryHandler(registry, app.BuildGetStatusHistory(repo), logger.With("port", "history"), sentryMiddleware),
	)
	mux.HandleFunc(
		"GET /v1/status/{upstream}/stream",
		ports.MakeStreamStatusHandler(registry, logger.With("port", "streamstatus"), sentryMiddleware),
	)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", conf.Port()),
		Handler: otelhttp.NewHandler(mux, "beacon"),
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down server", "error", err.Error())
		}

		registry.TeardownAll(logging.AddToContext(shutdownCtx, logger))
	}()

	logger.Info("Init complete")
	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}

// developmentUpstreams is used when no upstreams file is configured. The
// providers are mocked in development, so the urls stay empty.
func developmentUpstreams() []config.Upstream {
	return []config.Upstream{
		{Name: "payments"},
		{Name: "search"},
	}
}
