// Package safe launches goroutines that cannot take the rest of the program
// down with them: a panic in one peer task is recovered, wrapped, and
// handed to the caller instead of crashing the process.
package safe

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// PanicError carries a recovered panic's value, timestamp, and stack trace.
type PanicError struct {
	time  time.Time
	info  any
	stack []byte
	cache atomic.Pointer[string]
}

func (e *PanicError) Error() string {
	if e.cache.Load() == nil {
		msg := fmt.Sprintf("panic: %v\ntimestamp: %s\nstack:\n%s",
			e.info, e.time.Format(time.RFC3339Nano), e.stack)
		e.cache.Store(&msg)
	}
	return *e.cache.Load()
}

// NewPanicError wraps recovered panic info and a stack trace as an error.
func NewPanicError(info any, stack []byte) error {
	return &PanicError{time: time.Now(), info: info, stack: stack}
}

// Go runs fn in a new goroutine with panic recovery. Any panic is converted
// to a *PanicError and passed to each of panicFns; the goroutine otherwise
// exits normally.
func Go(fn func(), panicFns ...func(error)) {
	wrapped := WithRecover(fn, panicFns...)
	if wrapped == nil {
		return
	}
	go wrapped()
}

// WithRecover wraps fn so that a panic is recovered and reported to
// panicFns instead of propagating. Returns nil if fn is nil.
func WithRecover(fn func(), panicFns ...func(error)) func() {
	if fn == nil {
		return nil
	}
	return func() {
		defer func() {
			if r := recover(); r != nil {
				if len(panicFns) == 0 {
					return
				}
				err := NewPanicError(r, debug.Stack())
				for _, panicFn := range panicFns {
					panicFn(err)
				}
			}
		}()
		fn()
	}
}
