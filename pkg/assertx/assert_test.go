package assertx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsNil(t *testing.T) {
	assert.Equal(t, 5, ErrorIsNil(5, nil))
	assert.Panics(t, func() { ErrorIsNil(5, errors.New("boom")) })
}

func TestAssert(t *testing.T) {
	assert.NotPanics(t, func() { Assert(true, "unreachable") })
	assert.PanicsWithValue(t, "invariant violated", func() { Assert(false, "invariant violated") })
}
