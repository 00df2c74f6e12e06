package statusprovider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Amund211/beacon/internal/config"
	"github.com/Amund211/beacon/internal/constants"
	"github.com/Amund211/beacon/internal/domain"
	"github.com/Amund211/beacon/internal/logging"
	"github.com/Amund211/beacon/internal/reporting"
)

type upstreamAPI struct {
	httpClient HttpClient
	name       string
	url        string

	lock           sync.Mutex
	cancelInFlight context.CancelFunc
}

func (api *upstreamAPI) Fetch(ctx context.Context) (*domain.StatusSnapshot, error) {
	logger := logging.FromContext(ctx)

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	api.lock.Lock()
	api.cancelInFlight = cancel
	api.lock.Unlock()

	defer func() {
		api.lock.Lock()
		api.cancelInFlight = nil
		api.lock.Unlock()
	}()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, api.url, nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return nil, err
	}

	req.Header.Set("User-Agent", constants.USER_AGENT)

	start := time.Now()
	resp, err := api.httpClient.Do(req)
	if err != nil {
		err := fmt.Errorf("%w: failed to send request: %w", domain.ErrUpstreamUnavailable, err)
		logger.Error(err.Error())
		return nil, err
	}

	queriedAt := time.Now()
	latency := queriedAt.Sub(start)

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err := fmt.Errorf("failed to read response body: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return nil, err
	}
	logger.Info("upstream health request completed", "upstream", api.name, "url", api.url, "status", resp.StatusCode, "duration", latency.String())

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: upstream returned status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	snapshot, err := snapshotFromResponse(api.name, data, resp.StatusCode, latency, queriedAt)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{"upstream": api.name})
		return nil, err
	}

	return snapshot, nil
}

func (api *upstreamAPI) CancelFetch(ctx context.Context) {
	api.lock.Lock()
	cancel := api.cancelInFlight
	api.cancelInFlight = nil
	api.lock.Unlock()

	if cancel == nil {
		return
	}

	logging.FromContext(ctx).Info("Cancelling in-flight health request", "upstream", api.name)
	cancel()
}

func NewUpstreamAPI(httpClient HttpClient, name, url string) StatusProvider {
	return &upstreamAPI{
		httpClient: httpClient,
		name:       name,
		url:        url,
	}
}

type mockedUpstreamAPI struct {
	name string
}

func (api *mockedUpstreamAPI) Fetch(ctx context.Context) (*domain.StatusSnapshot, error) {
	return &domain.StatusSnapshot{
		QueriedAt:  time.Now(),
		Upstream:   api.name,
		Healthy:    true,
		StatusCode: 200,
		Latency:    1 * time.Millisecond,
	}, nil
}

func (api *mockedUpstreamAPI) CancelFetch(ctx context.Context) {}

func NewUpstreamAPIOrMock(conf config.Config, httpClient HttpClient, name, url string) (StatusProvider, error) {
	if url != "" {
		return NewUpstreamAPI(httpClient, name, url), nil
	}
	if conf.IsDevelopment() {
		return &mockedUpstreamAPI{name: name}, nil
	}
	return nil, fmt.Errorf("missing url for upstream %q in non-development environment", name)
}
