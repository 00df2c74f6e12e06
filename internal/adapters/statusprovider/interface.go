package statusprovider

import (
	"context"
	"net/http"

	"github.com/Amund211/beacon/internal/domain"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusProvider fetches the current status of one upstream. Fetch satisfies
// datafeed.Fetcher; CancelFetch aborts the in-flight request, if any, and is
// meant to be wired up as the feed's cancel hook.
type StatusProvider interface {
	Fetch(ctx context.Context) (*domain.StatusSnapshot, error)
	CancelFetch(ctx context.Context)
}
