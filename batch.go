package fileref

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ReadAll reads the content of every file concurrently, running at most
// limit reads at once (limit <= 0 means no limit). Results are in input
// order. The first failure cancels the remaining reads and is returned.
func ReadAll(ctx context.Context, files []File, limit int) ([][]byte, error) {
	results := make([][]byte, len(files))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, f := range files {
		g.Go(func() error {
			data, err := f.Bytes(ctx)
			if err != nil {
				return err
			}
			results[i] = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
