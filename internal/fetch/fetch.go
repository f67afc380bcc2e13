// Package fetch defines the SourceFetcher contract the build pipeline uses
// to materialize a remote Source URL (an FTP or HTTP reference in a spec's
// source list) into a local readable handle, plus two concrete
// implementations.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
)

// SourceFetcher retrieves a source URL into dst, a caller-owned writer
// (typically a file under the build's source directory). Implementations
// must respect ctx cancellation/deadline.
type SourceFetcher interface {
	Fetch(ctx context.Context, sourceURL string, dst io.Writer) error
}

// Registry dispatches a URL to the fetcher registered for its scheme.
type Registry struct {
	fetchers map[string]SourceFetcher
}

// NewRegistry builds a Registry with the standard http(s) and ftp fetchers
// wired in.
func NewRegistry() *Registry {
	return &Registry{
		fetchers: map[string]SourceFetcher{
			"http":  &HTTPFetcher{},
			"https": &HTTPFetcher{},
			"ftp":   &FTPFetcher{},
		},
	}
}

// Register overrides or adds a fetcher for scheme.
func (r *Registry) Register(scheme string, f SourceFetcher) {
	r.fetchers[scheme] = f
}

// Fetch resolves sourceURL's scheme and delegates to the matching fetcher.
func (r *Registry) Fetch(ctx context.Context, sourceURL string, dst io.Writer) error {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return fmt.Errorf("fetch: parse %s: %w", sourceURL, err)
	}
	f, ok := r.fetchers[u.Scheme]
	if !ok {
		return fmt.Errorf("fetch: no fetcher registered for scheme %q", u.Scheme)
	}
	return f.Fetch(ctx, sourceURL, dst)
}

// FetchAll retrieves every URL in urls concurrently, bounded by
// concurrency, writing each to the writer its open func returns. A single
// failure cancels the remaining fetches and is returned to the caller.
func FetchAll(ctx context.Context, r *Registry, urls []string, concurrency int, open func(sourceURL string) (io.WriteCloser, error)) error {
	return fetchAll(ctx, r, urls, concurrency, open)
}
