package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/yo2158/break/debate"
)

// runBoth runs one call per debater concurrently. A round only exists when
// both calls succeed; the first failure cancels the sibling call and is
// returned as the round's error.
func runBoth[T any](ctx context.Context, call func(ctx context.Context, d debate.Debater) (T, error)) (a, b T, err error) {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		a, err = call(ctx, debate.DebaterA)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = call(ctx, debate.DebaterB)
		return err
	})

	if err := g.Wait(); err != nil {
		var zero T
		return zero, zero, err
	}
	return a, b, nil
}
