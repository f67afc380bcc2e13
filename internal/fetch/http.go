package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPFetcher retrieves http(s) sources via net/http, with a bounded
// per-request timeout layered on top of ctx so one hung server doesn't stall
// an entire batch fetch indefinitely.
type HTTPFetcher struct {
	Client  *http.Client
	Timeout time.Duration
}

func (h *HTTPFetcher) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return http.DefaultClient
}

func (h *HTTPFetcher) timeout() time.Duration {
	if h.Timeout > 0 {
		return h.Timeout
	}
	return 2 * time.Minute
}

func (h *HTTPFetcher) Fetch(ctx context.Context, sourceURL string, dst io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("fetch: build request for %s: %w", sourceURL, err)
	}

	resp, err := h.client().Do(req)
	if err != nil {
		return fmt.Errorf("fetch: GET %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch: GET %s: unexpected status %s", sourceURL, resp.Status)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("fetch: copy body of %s: %w", sourceURL, err)
	}
	return nil
}
