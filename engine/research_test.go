package engine

import (
	"context"
	"testing"

	"github.com/pma1999/mapmylearn-sub001/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequest() model.RunRequest {
	return model.RunRequest{
		Topic:             "distributed consensus",
		Language:          "en",
		ExplanationStyle:  model.StyleStandard,
		SearchParallelism: 2,
		MaxResearchLoops:  3,
	}.Normalize()
}

func TestGenerateSeedQueriesParsesFive(t *testing.T) {
	llm := newScriptedLLM()
	llm.structured[TemplateSeedQueries] = []string{
		`{"queries":[{"keywords":"a","rationale":"r"},{"keywords":"b","rationale":"r"},{"keywords":"c","rationale":"r"},{"keywords":"d","rationale":"r"},{"keywords":"e","rationale":"r"}]}`,
	}

	stage := &ResearchStage{LLM: llm, Search: stubSearch{}}
	state := model.NewRunState(newTestRequest())

	require.NoError(t, stage.GenerateSeedQueries(context.Background(), state))
	assert.Len(t, state.SearchQueries, seedQueryCount)
	assert.Equal(t, model.ResearchSeeded, state.ResearchState)
}

func TestGenerateSeedQueriesFallsBackOnWrongCount(t *testing.T) {
	llm := newScriptedLLM()
	llm.structured[TemplateSeedQueries] = []string{
		`{"queries":[{"keywords":"only one","rationale":"r"}]}`,
		`{"queries":[{"keywords":"only one","rationale":"r"}]}`,
		`{"queries":[{"keywords":"only one","rationale":"r"}]}`,
	}

	stage := &ResearchStage{LLM: llm, Search: stubSearch{}}
	state := model.NewRunState(newTestRequest())

	require.NoError(t, stage.GenerateSeedQueries(context.Background(), state))
	require.Len(t, state.SearchQueries, 1)
	assert.Equal(t, state.Request.Topic, state.SearchQueries[0].Keywords)
	assert.Equal(t, "fallback", state.SearchQueries[0].Rationale)
}

func TestExecuteSeedSearchesPreservesOrder(t *testing.T) {
	stage := &ResearchStage{LLM: newScriptedLLM(), Search: stubSearch{}}
	state := model.NewRunState(newTestRequest())
	state.SearchQueries = []model.SearchQuery{{Keywords: "a"}, {Keywords: "b"}, {Keywords: "c"}}

	require.NoError(t, stage.ExecuteSeedSearches(context.Background(), state))
	require.Len(t, state.SearchResults, 3)
	assert.Equal(t, "a", state.SearchResults[0].Query)
	assert.Equal(t, "b", state.SearchResults[1].Query)
	assert.Equal(t, "c", state.SearchResults[2].Query)
}

func TestEvaluateResearchRoutesToSufficient(t *testing.T) {
	llm := newScriptedLLM()
	llm.structured[TemplateEvaluateResearch] = []string{`{"adequate":true,"missing_aspects":[]}`}

	stage := &ResearchStage{LLM: llm, Search: stubSearch{}}
	state := model.NewRunState(newTestRequest())

	require.NoError(t, stage.EvaluateResearch(context.Background(), state))
	assert.Equal(t, model.ResearchSufficient, state.ResearchState)
	assert.Equal(t, "done", RefinementRouteKey(state))
}

func TestEvaluateResearchRoutesToRefiningUnderBudget(t *testing.T) {
	llm := newScriptedLLM()
	llm.structured[TemplateEvaluateResearch] = []string{`{"adequate":false,"missing_aspects":["cost models"]}`}

	stage := &ResearchStage{LLM: llm, Search: stubSearch{}}
	state := model.NewRunState(newTestRequest())

	require.NoError(t, stage.EvaluateResearch(context.Background(), state))
	assert.Equal(t, model.ResearchRefining, state.ResearchState)
	assert.Equal(t, []string{"cost models"}, state.MissingAspects)
	assert.Equal(t, "refine", RefinementRouteKey(state))
}

func TestEvaluateResearchRoutesToExhaustedAtBudget(t *testing.T) {
	llm := newScriptedLLM()
	llm.structured[TemplateEvaluateResearch] = []string{`{"adequate":false,"missing_aspects":["x"]}`}

	stage := &ResearchStage{LLM: llm, Search: stubSearch{}}
	state := model.NewRunState(newTestRequest())
	state.ResearchLoopCount = state.Request.MaxResearchLoops

	require.NoError(t, stage.EvaluateResearch(context.Background(), state))
	assert.Equal(t, model.ResearchExhausted, state.ResearchState)
	assert.Equal(t, "done", RefinementRouteKey(state))
}

func TestEvaluateResearchTreatsParseFailureAsAdequate(t *testing.T) {
	llm := newScriptedLLM() // no responses queued: every attempt fails to parse

	stage := &ResearchStage{LLM: llm, Search: stubSearch{}}
	state := model.NewRunState(newTestRequest())

	require.NoError(t, stage.EvaluateResearch(context.Background(), state))
	assert.Equal(t, model.ResearchSufficient, state.ResearchState)
}

func TestRefinementLoopAppendsResultsAndIncrementsCount(t *testing.T) {
	llm := newScriptedLLM()
	llm.structured[TemplateRefinementQueries] = []string{
		`{"queries":[{"keywords":"x","rationale":"r"}]}`,
	}

	stage := &ResearchStage{LLM: llm, Search: stubSearch{}}
	state := model.NewRunState(newTestRequest())
	state.SearchResults = []model.SearchResult{{Query: "seed"}}

	require.NoError(t, stage.GenerateRefinementQueries(context.Background(), state))
	require.NoError(t, stage.ExecuteRefinementSearches(context.Background(), state))

	assert.Len(t, state.SearchResults, 2)
	assert.Equal(t, 1, state.ResearchLoopCount)
	assert.Equal(t, model.ResearchRefining, state.ResearchState)
}
