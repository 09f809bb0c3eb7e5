package engine

import (
	"context"

	"github.com/pma1999/mapmylearn-sub001/pkg/result"
	"golang.org/x/sync/errgroup"
)

// RunBounded executes one task per item in tasks, at most limit of them
// concurrently, and returns a Result per task in the original task order
// regardless of completion order. A panic inside one task is recovered and
// surfaces as that task's error; it never aborts its peers.
//
// If ctx is already done, RunBounded stops launching new tasks and returns
// immediately once any already-launched tasks (there are none, in that
// case) have been awaited — matching the bounded-runner's cancellation
// contract of not starting new work but letting in-flight work settle.
func RunBounded[I, O any](ctx context.Context, items []I, limit int, task func(ctx context.Context, item I) (O, error)) []result.Result[O] {
	out := make([]result.Result[O], len(items))
	if len(items) == 0 {
		return out
	}
	if limit <= 0 {
		limit = 1
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	for i, item := range items {
		i, item := i, item
		group.Go(func() (err error) {
			if ctx.Err() != nil {
				out[i] = result.Err[O](ctx.Err())
				return nil
			}
			defer func() {
				if r := recover(); r != nil {
					out[i] = result.Err[O](panicToError(r))
				}
			}()
			v, taskErr := task(gctx, item)
			out[i] = result.New(v, taskErr)
			return nil
		})
	}
	// group.Wait's own error is always nil here: per-task failures are
	// captured into out, not propagated through the group, so one
	// failing task never cancels its peers.
	_ = group.Wait()
	return out
}
