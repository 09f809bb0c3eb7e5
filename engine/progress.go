package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pma1999/mapmylearn-sub001/model"
	"github.com/pma1999/mapmylearn-sub001/streamx"
)

// defaultSnapshotTTL is the time-to-live applied to every snapshot write,
// per the progress emitter's documented default.
const defaultSnapshotTTL = 24 * time.Hour

// progressQueueSize bounds the in-memory queue between a stage calling
// Emit and the goroutine draining it into the observer. The queue is
// lossless, not dropping: Emit blocks until there is room rather than
// discarding an event.
const progressQueueSize = 256

// Emitter is the engine's C4 implementation: every stage calls Emit, which
// performs two independent best-effort side effects — queueing the event
// for the observer, and overwriting the latest snapshot keyed by
// correlation id. A failure in either must never abort the run.
type Emitter struct {
	sink          model.ProgressSink
	snapshot      model.ProgressSnapshotStore
	correlationID string
	clock         model.Clock
	logger        *slog.Logger

	queue            *streamx.Stream[model.ProgressEvent]
	drainDone        chan struct{}
	snapshotUnusable atomic.Bool
}

// NewEmitter builds an Emitter for one run and, if an observer is present,
// starts the goroutine that drains the internal queue into it.
func NewEmitter(req model.RunRequest, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Emitter{
		sink:          req.Observer,
		snapshot:      req.Snapshot,
		correlationID: req.CorrelationID,
		clock:         req.Clock,
		logger:        logger,
		queue:         streamx.NewStream[model.ProgressEvent](progressQueueSize),
		drainDone:     make(chan struct{}),
	}
	if e.sink != nil {
		go e.drain()
	} else {
		close(e.drainDone)
	}
	return e
}

func (e *Emitter) drain() {
	defer close(e.drainDone)
	ctx := context.Background()
	for {
		ev, err := e.queue.Read(ctx)
		if err != nil {
			return
		}
		e.sink.Emit(ev)
	}
}

// Emit stamps ev with the run's clock if its Timestamp is unset, then
// queues it for the observer and writes it to the snapshot store. Both
// are best-effort: Emit never returns an error and never blocks on a
// broken snapshot store past the first failed write.
func (e *Emitter) Emit(ev model.ProgressEvent) {
	if ev.Timestamp.IsZero() && e.clock != nil {
		ev.Timestamp = e.clock.Now()
	}

	if e.sink != nil {
		// Use a background context rather than the run's context: a
		// terminal event (cancellation, completion) must still reach the
		// observer even though the run's own context is already done.
		_ = e.queue.Write(context.Background(), ev)
	}

	if e.snapshot != nil && !e.snapshotUnusable.Load() {
		e.putSnapshotSafely(ev)
	}
}

func (e *Emitter) putSnapshotSafely(ev model.ProgressEvent) {
	defer func() {
		if r := recover(); r != nil {
			e.snapshotUnusable.Store(true)
			e.logger.Warn("progress snapshot store failed, disabling for remainder of run",
				slog.Any("panic", r))
		}
	}()
	e.snapshot.Put(e.correlationID, ev, defaultSnapshotTTL)
}

// Close shuts the internal queue down and waits for the drain goroutine to
// finish delivering everything already queued to the observer.
func (e *Emitter) Close() {
	if e.sink == nil {
		return
	}
	_ = e.queue.Close()
	<-e.drainDone
}

// progressEvent is a small helper for building a ProgressEvent without every
// call site repeating pointer boilerplate for the optional progress
// fields.
func progressEvent(message string, phase model.Phase, action model.Action, phaseProgress, overallProgress *float64, preview *model.Preview) model.ProgressEvent {
	return model.ProgressEvent{
		Message:         message,
		Phase:           phase,
		Action:          action,
		PhaseProgress:   phaseProgress,
		OverallProgress: overallProgress,
		Preview:         preview,
	}
}

func floatPtr(f float64) *float64 { return &f }
