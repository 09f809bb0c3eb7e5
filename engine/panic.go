package engine

import (
	"runtime/debug"

	"github.com/pma1999/mapmylearn-sub001/pkg/safe"
)

// panicToError converts a recovered panic value into an error carrying a
// stack trace, so a peer task's crash shows up as an ordinary Result error
// instead of taking down the batch.
func panicToError(r any) error {
	return safe.NewPanicError(r, debug.Stack())
}
