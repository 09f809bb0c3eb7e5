package engine

import (
	"context"
	"testing"

	"github.com/pma1999/mapmylearn-sub001/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeAssignsRunID(t *testing.T) {
	state := newDevelopState(newTestRequest())
	f := &Finalizer{}

	require.NoError(t, f.Finalize(context.Background(), state))
	assert.NotEmpty(t, state.RunID)
}

func TestBuildResultGroupsDevelopedByModuleAndOrder(t *testing.T) {
	state := newDevelopState(newTestRequest())
	state.Developed = []model.DevelopedSubmodule{
		{ModuleIndex: 1, SubmoduleIndex: 0, Content: "b1 content"},
		{ModuleIndex: 0, SubmoduleIndex: 1, Content: "a2 content"},
		{ModuleIndex: 0, SubmoduleIndex: 0, Content: "a1 content"},
	}
	state.RunID = "test-run"

	result := BuildResult(state)

	require.Len(t, result.Modules, 2)
	require.Len(t, result.Modules[0].Submodules, 2)
	assert.Equal(t, "a1 content", result.Modules[0].Submodules[0].Content)
	assert.Equal(t, "a2 content", result.Modules[0].Submodules[1].Content)
	assert.Equal(t, "b1 content", result.Modules[1].Submodules[0].Content)
	assert.Equal(t, "test-run", result.RunID)
}

func TestBuildResultDefaultsSummaryFromContent(t *testing.T) {
	state := newDevelopState(newTestRequest())
	state.Developed = []model.DevelopedSubmodule{
		{ModuleIndex: 0, SubmoduleIndex: 0, Content: "some content", Summary: ""},
		{ModuleIndex: 0, SubmoduleIndex: 1, Content: "other", Summary: "explicit summary"},
	}

	result := BuildResult(state)

	assert.Equal(t, "some content", result.Modules[0].Submodules[0].Summary)
	assert.Equal(t, "explicit summary", result.Modules[0].Submodules[1].Summary)
}

func TestBuildResultOmitsUndevelopedSubmodule(t *testing.T) {
	state := newDevelopState(newTestRequest())
	state.Developed = []model.DevelopedSubmodule{
		{ModuleIndex: 0, SubmoduleIndex: 0, Content: "a1 content"},
		// A2 and B1 failed and were never appended to state.Developed.
	}

	result := BuildResult(state)

	require.Len(t, result.Modules, 2)
	require.Len(t, result.Modules[0].Submodules, 1)
	assert.Equal(t, "a1 content", result.Modules[0].Submodules[0].Content)
	assert.Empty(t, result.Modules[1].Submodules)
}
