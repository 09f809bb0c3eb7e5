package kvstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKSVAGetPut(t *testing.T) {
	m := NewKSVA()
	m.Put("topic", "graph theory")
	v, ok := m.Get("topic")
	assert.True(t, ok)
	assert.Equal(t, "graph theory", v)

	assert.Equal(t, "fallback", m.GetOrDefault("missing", "fallback"))
}

func TestKSVACloneIsIndependent(t *testing.T) {
	orig := NewKSVA()
	orig.Put("a", 1)

	clone := orig.Clone()
	clone.Put("b", 2)

	_, ok := orig.Get("b")
	assert.False(t, ok)
	v, ok := clone.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestSnapshotStorePutGet(t *testing.T) {
	s := NewSnapshotStore[int](0)
	s.Put("run-1", 42, time.Minute)

	v, ok := s.Get("run-1")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestSnapshotStoreExpires(t *testing.T) {
	s := NewSnapshotStore[int](0)
	s.Put("run-1", 42, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := s.Get("run-1")
	assert.False(t, ok)
}

func TestSnapshotStoreDelete(t *testing.T) {
	s := NewSnapshotStore[string](0)
	s.Put("run-1", "value", time.Minute)
	s.Delete("run-1")

	_, ok := s.Get("run-1")
	assert.False(t, ok)
}
