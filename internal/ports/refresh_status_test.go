package ports

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Amund211/beacon/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRefreshStatusHandler(t *testing.T) {
	t.Parallel()

	newMux := func(t *testing.T, registry *app.Registry) *http.ServeMux {
		t.Helper()

		mux := http.NewServeMux()
		mux.HandleFunc("POST /v1/status/{upstream}/refresh", MakeRefreshStatusHandler(registry, discardLogger(), noopMiddleware))
		return mux
	}

	t.Run("forces a fetch even when a value is cached", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubStatusFetcher{snapshot: healthySnapshot("payments")}
		feed := newStatusFeed(fetcher, "payments")
		registry := app.NewRegistry()
		require.NoError(t, registry.Register("payments", feed))

		require.NoError(t, feed.TriggerUpdate(t.Context()))
		require.Equal(t, 1, fetcher.callCount())

		w := httptest.NewRecorder()
		newMux(t, registry).ServeHTTP(w, httptest.NewRequest("POST", "/v1/status/payments/refresh", nil))

		require.Equal(t, http.StatusOK, w.Code)

		parsed := statusResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
		require.True(t, parsed.Success)
		require.NotNil(t, parsed.Status)
		assert.Equal(t, "payments", parsed.Status.Upstream)

		assert.Equal(t, 2, fetcher.callCount())
	})

	t.Run("unknown upstream", func(t *testing.T) {
		t.Parallel()

		registry := app.NewRegistry()

		w := httptest.NewRecorder()
		newMux(t, registry).ServeHTTP(w, httptest.NewRequest("POST", "/v1/status/search/refresh", nil))

		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("refreshes are rate limited per ip", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubStatusFetcher{snapshot: healthySnapshot("payments")}
		registry := app.NewRegistry()
		require.NoError(t, registry.Register("payments", newStatusFeed(fetcher, "payments")))
		mux := newMux(t, registry)

		gotLimited := false
		for range 10 {
			req := httptest.NewRequest("POST", "/v1/status/payments/refresh", nil)
			req.RemoteAddr = "192.0.2.10:51234"
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			if w.Code == http.StatusTooManyRequests {
				gotLimited = true
				break
			}
			require.Equal(t, http.StatusOK, w.Code)
		}

		assert.True(t, gotLimited)
	})
}
