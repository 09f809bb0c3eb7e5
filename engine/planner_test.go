package engine

import (
	"context"
	"testing"

	"github.com/pma1999/mapmylearn-sub001/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModulePlannerPlansFromResearch(t *testing.T) {
	llm := newScriptedLLM()
	llm.structured[TemplatePlanModules] = []string{
		`{"modules":[{"title":"Foundations","description":"basics"},{"title":"Advanced","description":"deep dive"}]}`,
	}

	planner := &ModulePlanner{LLM: llm}
	state := model.NewRunState(newTestRequest())

	require.NoError(t, planner.Plan(context.Background(), state))
	require.Len(t, state.Modules, 2)
	assert.Equal(t, "Foundations", state.Modules[0].Title)
}

func TestModulePlannerTruncatesToDesiredCount(t *testing.T) {
	llm := newScriptedLLM()
	llm.structured[TemplatePlanModules] = []string{
		`{"modules":[{"title":"A"},{"title":"B"},{"title":"C"}]}`,
	}

	planner := &ModulePlanner{LLM: llm}
	want := 2
	req := newTestRequest()
	req.DesiredModuleCount = &want
	state := model.NewRunState(req)

	require.NoError(t, planner.Plan(context.Background(), state))
	assert.Len(t, state.Modules, 2)
}

func TestModulePlannerLogsWarningWhenBelowDesiredCount(t *testing.T) {
	llm := newScriptedLLM()
	llm.structured[TemplatePlanModules] = []string{`{"modules":[{"title":"A"}]}`}

	planner := &ModulePlanner{LLM: llm}
	want := 5
	req := newTestRequest()
	req.DesiredModuleCount = &want
	state := model.NewRunState(req)

	require.NoError(t, planner.Plan(context.Background(), state))
	assert.Len(t, state.Modules, 1)
	assert.Contains(t, state.Steps[len(state.Steps)-2], "fewer than the requested")
}

func TestModulePlannerReturnsEmptyOnParseFailure(t *testing.T) {
	llm := newScriptedLLM() // no responses: every attempt fails

	planner := &ModulePlanner{LLM: llm}
	state := model.NewRunState(newTestRequest())

	require.NoError(t, planner.Plan(context.Background(), state))
	assert.Empty(t, state.Modules)
}

func TestSubmodulePlannerSetsOrderAndBuildsEnhancedModules(t *testing.T) {
	llm := newScriptedLLM()
	llm.structured[TemplatePlanSubmodulesForModule] = []string{
		`{"submodules":[{"title":"S1","description":"d1"},{"title":"S2","description":"d2"}]}`,
	}

	planner := &SubmodulePlanner{LLM: llm}
	state := model.NewRunState(newTestRequest())
	state.Modules = []model.Module{{Title: "Foundations", Description: "basics"}}

	require.NoError(t, planner.Plan(context.Background(), state))
	require.Len(t, state.EnhancedModules, 1)
	require.Len(t, state.EnhancedModules[0].Submodules, 2)
	assert.Equal(t, 1, state.EnhancedModules[0].Submodules[0].Order)
	assert.Equal(t, 2, state.EnhancedModules[0].Submodules[1].Order)
}

func TestSubmodulePlannerLogsWarningWhenBelowDesiredCount(t *testing.T) {
	llm := newScriptedLLM()
	llm.structured[TemplatePlanSubmodulesForModule] = []string{`{"submodules":[{"title":"S1"}]}`}

	planner := &SubmodulePlanner{LLM: llm}
	want := 4
	req := newTestRequest()
	req.DesiredSubmoduleCount = &want
	state := model.NewRunState(req)
	state.Modules = []model.Module{{Title: "Foundations", Description: "basics"}}

	require.NoError(t, planner.Plan(context.Background(), state))
	require.Len(t, state.EnhancedModules[0].Submodules, 1)
	assert.Contains(t, state.Steps[len(state.Steps)-2], "fewer than the requested")
}

func TestSubmodulePlannerProcessesModulesSequentially(t *testing.T) {
	llm := newScriptedLLM()
	llm.structured[TemplatePlanSubmodulesForModule] = []string{
		`{"submodules":[{"title":"S1"}]}`,
		`{"submodules":[{"title":"S2"}]}`,
	}

	planner := &SubmodulePlanner{LLM: llm}
	state := model.NewRunState(newTestRequest())
	state.Modules = []model.Module{{Title: "First"}, {Title: "Second"}}

	require.NoError(t, planner.Plan(context.Background(), state))
	require.Len(t, state.EnhancedModules, 2)
	assert.Equal(t, "S1", state.EnhancedModules[0].Submodules[0].Title)
	assert.Equal(t, "S2", state.EnhancedModules[1].Submodules[0].Title)
}
