package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/pma1999/mapmylearn-sub001/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []model.ProgressEvent
}

func (r *recordingSink) Emit(ev model.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) snapshot() []model.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ProgressEvent, len(r.events))
	copy(out, r.events)
	return out
}

type panickySnapshotStore struct{}

func (panickySnapshotStore) Put(correlationID string, event model.ProgressEvent, ttl time.Duration) {
	panic("snapshot store is down")
}

func TestEmitterDeliversToObserver(t *testing.T) {
	sink := &recordingSink{}
	e := NewEmitter(model.RunRequest{Observer: sink, Clock: model.SystemClock}, nil)

	e.Emit(progressEvent("hello", model.PhaseInitialization, model.ActionStarted, nil, nil, nil))
	e.Close()

	events := sink.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "hello", events[0].Message)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestEmitterSurvivesBrokenSnapshotStore(t *testing.T) {
	sink := &recordingSink{}
	e := NewEmitter(model.RunRequest{Observer: sink, Snapshot: panickySnapshotStore{}, Clock: model.SystemClock}, nil)

	assert.NotPanics(t, func() {
		e.Emit(progressEvent("one", model.PhaseInitialization, model.ActionStarted, nil, nil, nil))
		e.Emit(progressEvent("two", model.PhaseInitialization, model.ActionProcessing, nil, nil, nil))
	})
	e.Close()

	assert.Len(t, sink.snapshot(), 2)
}

func TestEmitterWithNoObserverDoesNotBlock(t *testing.T) {
	e := NewEmitter(model.RunRequest{Clock: model.SystemClock}, nil)
	assert.NotPanics(t, func() {
		e.Emit(progressEvent("silent", model.PhaseInitialization, model.ActionStarted, nil, nil, nil))
	})
	e.Close()
}
