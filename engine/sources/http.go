package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/WessleyAI/wessley-parts/pkg/fn"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// BrowserUserAgent is presented to retailers that serve HTML pages.
const BrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 4 << 20

type contentKind int

const (
	kindHTML contentKind = iota
	kindJSON
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// NewHTTPClient returns a traced client. It sets no timeout of its own;
// the caller's context carries the deadline.
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}

// get issues a GET with headers suited to kind and returns the body.
func get(ctx context.Context, client *http.Client, rawURL string, kind contentKind, extra http.Header) fn.Result[[]byte] {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fn.Err[[]byte](err)
	}
	switch kind {
	case kindJSON:
		req.Header.Set("Accept", "application/json")
	default:
		req.Header.Set("User-Agent", BrowserUserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	}
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fn.Err[[]byte](err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fn.Err[[]byte](&StatusError{URL: rawURL, Code: resp.StatusCode})
	}
	return fn.FromPair(io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes)))
}
