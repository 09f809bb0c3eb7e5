package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pma1999/mapmylearn-sub001/capability"
	"github.com/pma1999/mapmylearn-sub001/model"
	"github.com/pma1999/mapmylearn-sub001/pkg/batch"
)

// developProgressStart and developProgressEnd bound overall_progress for
// the submodule development phase, per the documented [0.45, 0.95] range.
const (
	developProgressStart = 0.45
	developProgressEnd   = 0.95
)

// SubmoduleDeveloper is C8: the outer pump that fans out over every
// (module, submodule) pair, and the per-pair sub-pipeline it runs for each
// one.
type SubmoduleDeveloper struct {
	LLM    capability.LLMCapability
	Search capability.SearchCapability
	Emit   func(model.ProgressEvent)
}

// batchProgress maps completed/total batches onto the development phase's
// overall_progress band, monotonically across batch completions.
func batchProgress(completed, total int) *float64 {
	if total <= 0 {
		return floatPtr(developProgressEnd)
	}
	v := developProgressStart + (developProgressEnd-developProgressStart)*float64(completed)/float64(total)
	return floatPtr(v)
}

// InitializeSubmoduleProcessing flattens every (m, s) pair in row-major
// order and splits it into fixed-size batches, per the outer pump's first
// two steps.
func (d *SubmoduleDeveloper) InitializeSubmoduleProcessing(ctx context.Context, state *model.RunState) error {
	var pairs []model.Pair
	for mi, em := range state.EnhancedModules {
		for si := range em.Submodules {
			pairs = append(pairs, model.Pair{ModuleIndex: mi, SubmoduleIndex: si})
		}
	}

	if len(pairs) == 0 {
		state.Batches = nil
		state.CurrentBatch = 0
		return nil
	}

	state.Batches = batch.Chunk(pairs, state.Request.SubmoduleParallelism)
	state.CurrentBatch = 0
	return nil
}

// ProcessSubmoduleBatch is the self-loop node: it runs exactly one batch of
// pairs through the bounded runner and appends successful outcomes to
// state.Developed. A failed pair is recorded as a sanitized execution step
// and otherwise dropped, so it is simply absent from the final result
// rather than appearing with empty content. The driver loops this node
// while current_batch < len(batches).
func (d *SubmoduleDeveloper) ProcessSubmoduleBatch(ctx context.Context, state *model.RunState) error {
	if state.CurrentBatch >= len(state.Batches) {
		return nil
	}
	current := state.Batches[state.CurrentBatch]

	outcomes := RunBounded(ctx, current, state.Request.SubmoduleParallelism, func(ctx context.Context, pair model.Pair) (model.DevelopedSubmodule, error) {
		return d.processOne(ctx, state, pair)
	})

	for i, o := range outcomes {
		pair := current[i]
		v, err := o.Get()
		if err != nil {
			state.AppendStep(fmt.Sprintf("submodule %d.%d failed: %s", pair.ModuleIndex+1, pair.SubmoduleIndex+1, failureMessage(err)))
			continue
		}
		state.Developed = append(state.Developed, v)
	}

	sort.SliceStable(state.Developed, func(i, j int) bool {
		a, b := state.Developed[i], state.Developed[j]
		if a.ModuleIndex != b.ModuleIndex {
			return a.ModuleIndex < b.ModuleIndex
		}
		return a.SubmoduleIndex < b.SubmoduleIndex
	})

	state.CurrentBatch++
	state.AppendStep(fmt.Sprintf("developed submodule batch %d/%d", state.CurrentBatch, len(state.Batches)))
	d.emit(progressEvent(fmt.Sprintf("completed submodule batch %d/%d", state.CurrentBatch, len(state.Batches)),
		model.PhaseSubmoduleContent, model.ActionProcessing, nil, batchProgress(state.CurrentBatch, len(state.Batches)), nil))
	return nil
}

// failureMessage returns the sanitized message for a per-pair failure: a
// RunError's Message field, never its wrapped cause, so upstream transport
// details don't leak into execution_steps.
func failureMessage(err error) string {
	var runErr *model.RunError
	if errors.As(err, &runErr) {
		return runErr.Message
	}
	return "unknown error"
}

// MoreBatches is the Loop condition for the submodule pump's self-loop.
func MoreBatches(state *model.RunState) bool {
	return state.CurrentBatch < len(state.Batches)
}

// processOne runs the per-pair sub-pipeline: queries, searches, then
// content authoring.
func (d *SubmoduleDeveloper) processOne(ctx context.Context, state *model.RunState, pair model.Pair) (model.DevelopedSubmodule, error) {
	em := state.EnhancedModules[pair.ModuleIndex]
	sm := em.Submodules[pair.SubmoduleIndex]

	d.emit(progressEvent(fmt.Sprintf("researching %q", sm.Title), model.PhaseSubmoduleResearch, model.ActionStarted, nil, nil,
		&model.Preview{CurrentModule: em.Title, CurrentSubmodule: sm.Title}))

	queries, err := d.generateQueries(ctx, state, em, sm, pair)
	if err != nil {
		return model.DevelopedSubmodule{}, err
	}

	if err := ctx.Err(); err != nil {
		return model.DevelopedSubmodule{}, model.NewError(model.Cancelled, "cancelled before submodule searches", err)
	}

	results := d.runQuerySearches(ctx, queries, state.Request.Language, state.Request.SearchParallelism)

	if err := ctx.Err(); err != nil {
		return model.DevelopedSubmodule{}, model.NewError(model.Cancelled, "cancelled before submodule authoring", err)
	}

	d.emit(progressEvent(fmt.Sprintf("authoring %q", sm.Title), model.PhaseSubmoduleContent, model.ActionStarted, nil, nil,
		&model.Preview{CurrentModule: em.Title, CurrentSubmodule: sm.Title}))

	content, err := d.authorContent(ctx, state, em, sm, pair, results)
	if err != nil {
		return model.DevelopedSubmodule{}, err
	}

	return model.DevelopedSubmodule{
		ModuleIndex:    pair.ModuleIndex,
		SubmoduleIndex: pair.SubmoduleIndex,
		Title:          sm.Title,
		Description:    sm.Description,
		Queries:        queries,
		Results:        results,
		Content:        content,
		Summary:        summarize(content),
	}, nil
}

func (d *SubmoduleDeveloper) generateQueries(ctx context.Context, state *model.RunState, em model.EnhancedModule, sm model.Submodule, pair model.Pair) ([]model.SearchQuery, error) {
	vars := submoduleQueriesVars{
		Topic:                state.Request.Topic,
		Language:             state.Request.Language,
		Style:                state.Request.ExplanationStyle,
		ModuleTitle:          em.Title,
		ModuleDescription:    em.Description,
		SubmoduleTitle:       sm.Title,
		SubmoduleDescription: sm.Description,
		SubmodulePosition:    pair.SubmoduleIndex + 1,
		SubmoduleCount:       len(em.Submodules),
		DepthLevel:           sm.DepthLevel,
		GlobalOutline:        globalOutline(state.EnhancedModules, pair.ModuleIndex),
		SiblingSubmodules:    siblingOutline(em.Submodules, pair.SubmoduleIndex),
	}.toKSVA()

	fallback := model.SearchQuery{
		Keywords:  em.Title + " " + sm.Title,
		Rationale: "fallback",
	}

	out, err := capability.CompleteStructured[searchQueriesOut](ctx, d.LLM, TemplateSubmoduleQueries, vars, 1,
		func() (searchQueriesOut, bool) {
			return searchQueriesOut{Queries: []model.SearchQuery{fallback}}, true
		})
	if err != nil {
		return nil, err
	}
	return out.Queries, nil
}

func (d *SubmoduleDeveloper) runQuerySearches(ctx context.Context, queries []model.SearchQuery, language string, limit int) []model.SearchResult {
	if len(queries) == 0 {
		return nil
	}

	batches := batch.Chunk(queries, limit)
	results := make([]model.SearchResult, 0, len(queries))
	for _, b := range batches {
		if ctx.Err() != nil {
			break
		}
		outcomes := RunBounded(ctx, b, limit, func(ctx context.Context, q model.SearchQuery) (model.SearchResult, error) {
			return d.Search.Search(ctx, q, language), nil
		})
		for _, o := range outcomes {
			v, _ := o.Get()
			results = append(results, v)
		}
	}
	return results
}

func (d *SubmoduleDeveloper) authorContent(ctx context.Context, state *model.RunState, em model.EnhancedModule, sm model.Submodule, pair model.Pair, results []model.SearchResult) (string, error) {
	prev, next := adjacentSubmodules(em.Submodules, pair.SubmoduleIndex)

	vars := submoduleContentVars{
		Topic:             state.Request.Topic,
		Language:          state.Request.Language,
		Style:             state.Request.ExplanationStyle,
		ModuleSummary:     em.Title + ": " + em.Description,
		SubmoduleSummary:  sm.Title + ": " + sm.Description,
		PreviousSubmodule: prev,
		NextSubmodule:     next,
		FormattedResults:  summarizeResults(results),
		FullOutlineMarked: globalOutline(state.EnhancedModules, pair.ModuleIndex),
	}.toKSVA()

	text, err := d.LLM.CompleteText(ctx, TemplateSubmoduleContent, vars)
	if err != nil {
		return "", model.NewError(model.UpstreamUnavailable, "submodule content authoring failed", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", model.NewError(model.InternalInvariantViolated, "submodule content authoring returned empty content", nil)
	}
	return text, nil
}

func (d *SubmoduleDeveloper) emit(ev model.ProgressEvent) {
	if d.Emit != nil {
		d.Emit(ev)
	}
}

// globalOutline renders every enhanced module's title/description,
// marking the one at currentIdx as the current module.
func globalOutline(modules []model.EnhancedModule, currentIdx int) []outlineEntry {
	out := make([]outlineEntry, 0, len(modules))
	for i, m := range modules {
		out = append(out, outlineEntry{
			Title:       m.Title,
			Description: m.Description,
			IsCurrent:   i == currentIdx,
		})
	}
	return out
}

// siblingOutline renders every submodule of one module, marking the one at
// currentIdx as the current submodule.
func siblingOutline(submodules []model.Submodule, currentIdx int) []outlineEntry {
	out := make([]outlineEntry, 0, len(submodules))
	for i, s := range submodules {
		out = append(out, outlineEntry{
			Title:       s.Title,
			Description: s.Description,
			IsCurrent:   i == currentIdx,
		})
	}
	return out
}

// adjacentSubmodules returns the previous/next submodule around idx, or
// nil for either end that does not exist.
func adjacentSubmodules(submodules []model.Submodule, idx int) (prev, next *adjacentSubmodule) {
	if idx > 0 {
		s := submodules[idx-1]
		prev = &adjacentSubmodule{Title: s.Title, Description: s.Description}
	}
	if idx < len(submodules)-1 {
		s := submodules[idx+1]
		next = &adjacentSubmodule{Title: s.Title, Description: s.Description}
	}
	return prev, next
}

// summarize produces a short summary for authored content: the first
// ~200 characters, trimmed, suffixed with "..." if truncated.
func summarize(content string) string {
	const limit = 200
	trimmed := strings.TrimSpace(content)
	if len(trimmed) <= limit {
		return trimmed
	}
	return strings.TrimSpace(trimmed[:limit]) + "..."
}
