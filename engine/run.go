package engine

import (
	"context"
	"log/slog"

	"github.com/pma1999/mapmylearn-sub001/capability"
	"github.com/pma1999/mapmylearn-sub001/model"
)

// Dependencies are the capability handles a Run needs. Scraping is not
// required by the core graph and is carried only for components built on
// top of it.
type Dependencies struct {
	LLM    capability.LLMCapability
	Search capability.SearchCapability
	Scrape capability.ScrapeCapability
	Logger *slog.Logger
}

// Run executes the full learning path generation graph for one request:
// research, module and submodule planning, concurrent submodule
// development, and finalization. It returns the result, or a *model.RunError
// describing why the run did not complete; a cancelled or partially
// developed run still attaches whatever was built so far via
// RunError.PartialResult.
func Run(ctx context.Context, req model.RunRequest, deps Dependencies) (model.RunResult, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return model.RunResult{}, err
	}

	emitter := NewEmitter(req, deps.Logger)
	defer emitter.Close()

	state := model.NewRunState(req)
	emitter.Emit(progressEvent("run started", model.PhaseInitialization, model.ActionStarted, nil, nil, nil))

	graph := buildGraph(deps, emitter.Emit, req.MaxResearchLoops)

	if err := graph.Run(ctx, state); err != nil {
		partial := BuildResult(state)
		emitter.Emit(progressEvent("run failed: "+err.Error(), model.PhaseError, model.ActionError, nil, nil, nil))
		if runErr, ok := err.(*model.RunError); ok {
			return model.RunResult{}, runErr.WithPartial(&partial)
		}
		return model.RunResult{}, model.NewError(model.InternalInvariantViolated, "unwrapped engine error", err).WithPartial(&partial)
	}

	return BuildResult(state), nil
}

// buildGraph wires every stage into C10's declared edges: the research
// stage and its one conditional edge, sequential module/submodule
// planning, the submodule developer's self-loop pump, and the finalizer.
func buildGraph(deps Dependencies, emit func(model.ProgressEvent), maxResearchLoops int) Node {
	research := &ResearchStage{LLM: deps.LLM, Search: deps.Search, Emit: emit}
	modulePlanner := &ModulePlanner{LLM: deps.LLM, Emit: emit}
	submodulePlanner := &SubmodulePlanner{LLM: deps.LLM, Emit: emit}
	developer := &SubmoduleDeveloper{LLM: deps.LLM, Search: deps.Search, Emit: emit}
	finalizer := &Finalizer{Emit: emit}

	refinementLoop := NewLoop(
		NewSequence(
			Step("generate_refinement_queries", research.GenerateRefinementQueries),
			Step("execute_refinement_searches", research.ExecuteRefinementSearches),
			Step("evaluate_research_sufficiency", research.EvaluateResearch),
		),
		func(state *model.RunState) bool { return RefinementRouteKey(state) == "refine" },
		maxResearchLoops,
	)

	researchPhase := NewBranch(
		NewSequence(
			Step("generate_search_queries", research.GenerateSeedQueries),
			Step("execute_web_searches", research.ExecuteSeedSearches),
			Step("evaluate_research_sufficiency", research.EvaluateResearch),
		),
		RefinementRouteKey,
		map[string]Node{
			"done":   Step("noop", func(context.Context, *model.RunState) error { return nil }),
			"refine": refinementLoop,
		},
	)

	submodulePump := NewLoop(
		Step("process_submodule_batch", developer.ProcessSubmoduleBatch),
		MoreBatches,
		0,
	)

	return NewSequence(
		researchPhase,
		Step("create_learning_path", modulePlanner.Plan),
		Step("plan_submodules", submodulePlanner.Plan),
		Step("initialize_submodule_processing", developer.InitializeSubmoduleProcessing),
		submodulePump,
		Step("finalize", finalizer.Finalize),
	)
}
