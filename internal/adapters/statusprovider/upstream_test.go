package statusprovider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/Amund211/beacon/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upstreamName = "payments"
const upstreamURL = "https://payments.internal/healthz"

type mockedHttpClient struct {
	t           *testing.T
	expectedURL string
	statusCode  int
	body        string
	requestErr  error
}

func (m *mockedHttpClient) Do(req *http.Request) (*http.Response, error) {
	require.Equal(m.t, m.expectedURL, req.URL.String())
	require.Equal(m.t, http.MethodGet, req.Method)
	require.NotEmpty(m.t, req.Header.Get("User-Agent"))

	if m.requestErr != nil {
		return nil, m.requestErr
	}

	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

// blockingHttpClient blocks until the request's context is cancelled.
type blockingHttpClient struct {
	started chan struct{}
}

func (c *blockingHttpClient) Do(req *http.Request) (*http.Response, error) {
	close(c.started)
	<-req.Context().Done()
	return nil, req.Context().Err()
}

func TestUpstreamAPIFetch(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		client := &mockedHttpClient{
			t:           t,
			expectedURL: upstreamURL,
			statusCode:  200,
			body:        `{"status":"ok","components":[{"name":"db","status":"ok"},{"name":"queue","status":"down","message":"consumer lag"}]}`,
		}
		provider := NewUpstreamAPI(client, upstreamName, upstreamURL)

		snapshot, err := provider.Fetch(t.Context())
		require.NoError(t, err)

		assert.Equal(t, upstreamName, snapshot.Upstream)
		assert.True(t, snapshot.Healthy)
		assert.Equal(t, 200, snapshot.StatusCode)
		assert.WithinDuration(t, time.Now(), snapshot.QueriedAt, 5*time.Second)

		require.Len(t, snapshot.Components, 2)
		assert.Equal(t, "db", snapshot.Components[0].Name)
		assert.True(t, snapshot.Components[0].Healthy)
		assert.Equal(t, "queue", snapshot.Components[1].Name)
		assert.False(t, snapshot.Components[1].Healthy)
		require.NotNil(t, snapshot.Components[1].Message)
		assert.Equal(t, "consumer lag", *snapshot.Components[1].Message)

		assert.True(t, snapshot.Degraded())
	})

	t.Run("unhealthy upstream with client error status", func(t *testing.T) {
		t.Parallel()

		client := &mockedHttpClient{
			t:           t,
			expectedURL: upstreamURL,
			statusCode:  200,
			body:        `{"status":"down","message":"database unreachable"}`,
		}
		provider := NewUpstreamAPI(client, upstreamName, upstreamURL)

		snapshot, err := provider.Fetch(t.Context())
		require.NoError(t, err)
		assert.False(t, snapshot.Healthy)
		require.NotNil(t, snapshot.Message)
		assert.Equal(t, "database unreachable", *snapshot.Message)
	})

	t.Run("request error", func(t *testing.T) {
		t.Parallel()

		client := &mockedHttpClient{
			t:           t,
			expectedURL: upstreamURL,
			requestErr:  assert.AnError,
		}
		provider := NewUpstreamAPI(client, upstreamName, upstreamURL)

		_, err := provider.Fetch(t.Context())
		require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("server error status", func(t *testing.T) {
		t.Parallel()

		client := &mockedHttpClient{
			t:           t,
			expectedURL: upstreamURL,
			statusCode:  503,
			body:        `<html>Service Unavailable</html>`,
		}
		provider := NewUpstreamAPI(client, upstreamName, upstreamURL)

		_, err := provider.Fetch(t.Context())
		require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	})

	t.Run("invalid response body", func(t *testing.T) {
		t.Parallel()

		client := &mockedHttpClient{
			t:           t,
			expectedURL: upstreamURL,
			statusCode:  200,
			body:        `{"status":`,
		}
		provider := NewUpstreamAPI(client, upstreamName, upstreamURL)

		_, err := provider.Fetch(t.Context())
		require.ErrorIs(t, err, domain.ErrInvalidUpstreamResponse)
	})

	t.Run("missing status", func(t *testing.T) {
		t.Parallel()

		client := &mockedHttpClient{
			t:           t,
			expectedURL: upstreamURL,
			statusCode:  200,
			body:        `{"message":"hello"}`,
		}
		provider := NewUpstreamAPI(client, upstreamName, upstreamURL)

		_, err := provider.Fetch(t.Context())
		require.ErrorIs(t, err, domain.ErrInvalidUpstreamResponse)
	})
}

func TestUpstreamAPICancelFetch(t *testing.T) {
	t.Parallel()

	t.Run("cancel aborts the in-flight request", func(t *testing.T) {
		t.Parallel()

		client := &blockingHttpClient{started: make(chan struct{})}
		provider := NewUpstreamAPI(client, upstreamName, upstreamURL)

		done := make(chan error, 1)
		go func() {
			_, err := provider.Fetch(context.WithoutCancel(t.Context()))
			done <- err
		}()

		select {
		case <-client.started:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for request to start")
		}

		provider.CancelFetch(t.Context())

		select {
		case err := <-done:
			require.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for fetch to abort")
		}
	})

	t.Run("cancel without an in-flight request is a no-op", func(t *testing.T) {
		t.Parallel()

		provider := NewUpstreamAPI(&mockedHttpClient{t: t}, upstreamName, upstreamURL)
		provider.CancelFetch(t.Context())
	})
}

func TestSnapshotFromResponse(t *testing.T) {
	t.Parallel()

	t.Run("component without a name is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := snapshotFromResponse(upstreamName, []byte(`{"status":"ok","components":[{"status":"ok"}]}`), 200, time.Millisecond, time.Now())
		require.ErrorIs(t, err, domain.ErrInvalidUpstreamResponse)
	})

	t.Run("latency and status code are carried through", func(t *testing.T) {
		t.Parallel()

		queriedAt := time.Now()
		snapshot, err := snapshotFromResponse(upstreamName, []byte(`{"status":"ok"}`), 200, 42*time.Millisecond, queriedAt)
		require.NoError(t, err)
		assert.Equal(t, 42*time.Millisecond, snapshot.Latency)
		assert.Equal(t, 200, snapshot.StatusCode)
		assert.Equal(t, queriedAt, snapshot.QueriedAt)
	})
}
