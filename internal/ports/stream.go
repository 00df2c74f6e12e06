package ports

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Amund211/beacon/internal/app"
	"github.com/Amund211/beacon/internal/datafeed"
	"github.com/Amund211/beacon/internal/domain"
	"github.com/Amund211/beacon/internal/logging"
	"github.com/Amund211/beacon/internal/ratelimiting"
	"github.com/gorilla/websocket"
)

const (
	streamWriteWait  = 2 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamSendBuffer = 16
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream is read-only and carries no credentials
	CheckOrigin: func(r *http.Request) bool { return true },
}

// MakeStreamStatusHandler upgrades the connection to a WebSocket and pushes
// every broadcast snapshot for the upstream to the client as JSON. A slow
// client skips updates rather than blocking the broadcast.
func MakeStreamStatusHandler(
	registry *app.Registry,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	// The limiter lives for the lifetime of the process
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(10),
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
		logger := logging.FromContext(ctx)

		feed, err := registry.Lookup(upstream)
		if err != nil {
			writeErrorResponse(ctx, w, err)
			return
		}

		conn, err := streamUpgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written an error response
			logger.Info("failed to upgrade status stream connection", "error", err.Error())
			return
		}
		defer conn.Close()

		send := make(chan statusData, streamSendBuffer)
		sub := feed.RegisterListener(ctx, func(ctx context.Context, snapshot *domain.StatusSnapshot) {
			select {
			case send <- snapshotToStatusData(snapshot):
			default:
				logging.FromContext(ctx).Info("Dropping status update for slow stream client", "upstream", snapshot.Upstream)
			}
		}, datafeed.WithUpdateErrorHandler(func(ctx context.Context, err error) {
			logging.FromContext(ctx).Error("Background update for status stream failed", "upstream", upstream, "error", err.Error())
		}))
		defer feed.UnregisterListener(sub)

		disconnected := make(chan struct{})
		go readUntilClosed(conn, disconnected)

		writePump(logger, conn, send, disconnected)
	}

	return middleware(handler)
}

// readUntilClosed discards incoming messages and closes disconnected when the
// client goes away. Reading is also what drives the pong handler.
func readUntilClosed(conn *websocket.Conn, disconnected chan<- struct{}) {
	defer close(disconnected)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(streamPongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(logger *slog.Logger, conn *websocket.Conn, send <-chan statusData, disconnected <-chan struct{}) {
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-send:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(data); err != nil {
				logger.Info("failed to write status update to stream", "error", err.Error())
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-disconnected:
			return
		}
	}
}
