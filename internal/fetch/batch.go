package fetch

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"
)

func fetchAll(ctx context.Context, r *Registry, urls []string, concurrency int, open func(sourceURL string) (io.WriteCloser, error)) error {
	if concurrency <= 0 {
		concurrency = 4
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for _, u := range urls {
		u := u
		eg.Go(func() error {
			w, err := open(u)
			if err != nil {
				return err
			}
			defer w.Close()
			return r.Fetch(egCtx, u, w)
		})
	}
	return eg.Wait()
}
