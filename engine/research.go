package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pma1999/mapmylearn-sub001/capability"
	"github.com/pma1999/mapmylearn-sub001/model"
	"github.com/pma1999/mapmylearn-sub001/pkg/batch"
)

// seedQueryCount is the exact number of seed queries the generator prompt
// is required to produce; a response with any other length is rejected and
// retried like one that does not parse.
const seedQueryCount = 5

// interBatchPause is the pause observed between consecutive search
// batches, to respect provider rate limits.
const interBatchPause = 500 * time.Millisecond

// researchProgressBand bounds overall_progress for every event this stage
// emits, per the documented [0.0, ~0.35] range for the research phase.
const researchProgressBand = 0.35

// researchProgressStep is how far overall_progress advances per emitted
// research event, so the value increases monotonically across the seed
// search, evaluation, and any refinement passes without needing to know
// the final number of loop iterations in advance.
const researchProgressStep = 0.05

type searchQueriesOut struct {
	Queries []model.SearchQuery `json:"queries"`
}

type researchEvaluationOut struct {
	Adequate       bool     `json:"adequate"`
	MissingAspects []string `json:"missing_aspects"`
}

// ResearchStage is C5: generates seed queries, researches them, and loops
// refinement until the evaluator reports the research adequate or the loop
// budget is exhausted.
type ResearchStage struct {
	LLM    capability.LLMCapability
	Search capability.SearchCapability
	Emit   func(model.ProgressEvent)

	progressStep int
}

// nextProgress advances the stage's monotonic progress counter and
// returns it as a pointer clamped to researchProgressBand, for use as an
// event's overall_progress.
func (s *ResearchStage) nextProgress() *float64 {
	s.progressStep++
	v := float64(s.progressStep) * researchProgressStep
	if v > researchProgressBand {
		v = researchProgressBand
	}
	return floatPtr(v)
}

// GenerateSeedQueries is the first C5 node: it produces exactly
// seedQueryCount SearchQuery values, falling back to a single
// topic-derived query if no attempt yields exactly that many.
func (s *ResearchStage) GenerateSeedQueries(ctx context.Context, state *model.RunState) error {
	vars := seedQueriesVars{
		Topic:    state.Request.Topic,
		Language: state.Request.Language,
		Style:    state.Request.ExplanationStyle,
	}.toKSVA()

	var out searchQueriesOut
	var err error
	for attempt := 0; attempt <= 2; attempt++ {
		out, err = capability.CompleteStructured[searchQueriesOut](ctx, s.LLM, TemplateSeedQueries, vars, 0, nil)
		if err == nil && len(out.Queries) == seedQueryCount {
			break
		}
	}
	if err != nil || len(out.Queries) != seedQueryCount {
		out.Queries = []model.SearchQuery{{
			Keywords:  state.Request.Topic,
			Rationale: "fallback",
		}}
		state.AppendStep("seed query generation degraded to a single fallback query")
	}

	state.SearchQueries = out.Queries
	state.ResearchState = model.ResearchSeeded

	preview := &model.Preview{SearchQueries: out.Queries}
	s.emit(progressEvent("generated seed search queries", model.PhaseSearchQueries, model.ActionCompleted, nil, s.nextProgress(), preview))
	return nil
}

// ExecuteSeedSearches is the second C5 node: runs state.SearchQueries
// through the batched bounded runner and seeds state.SearchResults.
func (s *ResearchStage) ExecuteSeedSearches(ctx context.Context, state *model.RunState) error {
	s.emit(progressEvent("executing seed searches", model.PhaseWebSearches, model.ActionStarted, nil, nil, nil))

	results, err := s.runSearches(ctx, state.SearchQueries, state.Request.Language, state.Request.SearchParallelism)
	if err != nil {
		return err
	}

	state.SearchResults = results
	state.AppendStep(fmt.Sprintf("executed %d seed searches", len(results)))
	s.emit(progressEvent("seed searches complete", model.PhaseWebSearches, model.ActionCompleted, nil, s.nextProgress(), nil))
	return nil
}

// EvaluateResearch is the conditional edge's base node: it decides whether
// the accumulated research is adequate and records any missing aspects.
func (s *ResearchStage) EvaluateResearch(ctx context.Context, state *model.RunState) error {
	state.ResearchState = model.ResearchEvaluating
	s.emit(progressEvent("evaluating research sufficiency", model.PhaseResearchEvaluation, model.ActionStarted, nil, nil, nil))

	vars := evaluateResearchVars{
		Topic:   state.Request.Topic,
		Summary: summarizeResults(state.SearchResults),
	}.toKSVA()

	out, err := capability.CompleteStructured[researchEvaluationOut](ctx, s.LLM, TemplateEvaluateResearch, vars, 2,
		func() (researchEvaluationOut, bool) {
			// On parse failure, treat the research as adequate rather than
			// looping indefinitely against a prompt that cannot parse.
			return researchEvaluationOut{Adequate: true}, true
		})
	if err != nil {
		return err
	}

	state.MissingAspects = out.MissingAspects

	switch {
	case out.Adequate:
		state.ResearchState = model.ResearchSufficient
	case state.ResearchLoopCount >= state.Request.MaxResearchLoops:
		state.ResearchState = model.ResearchExhausted
	default:
		state.ResearchState = model.ResearchRefining
	}

	s.emit(progressEvent("research evaluation complete", model.PhaseResearchEvaluation, model.ActionCompleted, nil, s.nextProgress(), nil))
	return nil
}

// RefinementRouteKey resolves the conditional edge after EvaluateResearch:
// "done" routes to the module planner, "refine" loops back into
// refinement search generation.
func RefinementRouteKey(state *model.RunState) string {
	if state.ResearchState == model.ResearchSufficient || state.ResearchState == model.ResearchExhausted {
		return "done"
	}
	return "refine"
}

// GenerateRefinementQueries is the refinement loop's first node: it asks
// for queries targeting state.MissingAspects.
func (s *ResearchStage) GenerateRefinementQueries(ctx context.Context, state *model.RunState) error {
	s.emit(progressEvent("generating refinement queries", model.PhaseResearchRefinement, model.ActionStarted, nil, s.nextProgress(), nil))

	vars := refinementQueriesVars{
		Topic:          state.Request.Topic,
		MissingAspects: state.MissingAspects,
	}.toKSVA()

	out, err := capability.CompleteStructured[searchQueriesOut](ctx, s.LLM, TemplateRefinementQueries, vars, 2,
		func() (searchQueriesOut, bool) {
			return searchQueriesOut{Queries: []model.SearchQuery{{
				Keywords:  state.Request.Topic,
				Rationale: "fallback",
			}}}, true
		})
	if err != nil {
		return err
	}

	state.SearchQueries = out.Queries
	return nil
}

// ExecuteRefinementSearches runs the refinement queries and appends their
// results to the accumulated research, then advances the loop counter.
func (s *ResearchStage) ExecuteRefinementSearches(ctx context.Context, state *model.RunState) error {
	results, err := s.runSearches(ctx, state.SearchQueries, state.Request.Language, state.Request.SearchParallelism)
	if err != nil {
		return err
	}

	state.SearchResults = append(state.SearchResults, results...)
	state.ResearchLoopCount++
	state.ResearchState = model.ResearchRefining
	state.AppendStep(fmt.Sprintf("refinement loop %d executed %d searches", state.ResearchLoopCount, len(results)))

	s.emit(progressEvent("refinement searches complete", model.PhaseResearchRefinement, model.ActionCompleted, nil, s.nextProgress(), nil))
	return nil
}

// runSearches batches queries by limit and runs them through RunBounded,
// preserving query order, pausing interBatchPause between batches.
func (s *ResearchStage) runSearches(ctx context.Context, queries []model.SearchQuery, language string, limit int) ([]model.SearchResult, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	batches := batch.Chunk(queries, limit)
	results := make([]model.SearchResult, 0, len(queries))

	for i, b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, model.NewError(model.Cancelled, "cancelled during search execution", err)
		}

		outcomes := RunBounded(ctx, b, limit, func(ctx context.Context, q model.SearchQuery) (model.SearchResult, error) {
			return s.Search.Search(ctx, q, language), nil
		})
		for _, o := range outcomes {
			// SearchCapability never returns an error of its own; a failed
			// search is carried inside the SearchResult itself.
			v, _ := o.Get()
			results = append(results, v)
		}

		if i < len(batches)-1 {
			select {
			case <-ctx.Done():
				return nil, model.NewError(model.Cancelled, "cancelled between search batches", ctx.Err())
			case <-time.After(interBatchPause):
			}
		}
	}

	return results, nil
}

func (s *ResearchStage) emit(ev model.ProgressEvent) {
	if s.Emit != nil {
		s.Emit(ev)
	}
}

// summarizeResults renders accumulated search results into the flat text
// the adequacy evaluator prompt is conditioned on.
func summarizeResults(results []model.SearchResult) string {
	var b strings.Builder
	for _, r := range results {
		if r.Failed() {
			fmt.Fprintf(&b, "query: %s\nerror: %s\n\n", r.Query, r.Err)
			continue
		}
		fmt.Fprintf(&b, "query: %s\nrationale: %s\n", r.Query, r.Rationale)
		for _, item := range r.Items {
			fmt.Fprintf(&b, "- %s (%s): %s\n", item.Title, item.URL, item.Content)
		}
		b.WriteString("\n")
	}
	return b.String()
}
