package engine

import (
	"context"
	"fmt"

	"github.com/pma1999/mapmylearn-sub001/capability"
	"github.com/pma1999/mapmylearn-sub001/model"
)

const (
	defaultMinModuleCount = 3
	defaultMaxModuleCount = 7
)

type modulesOut struct {
	Modules []model.Module `json:"modules"`
}

type submodulesOut struct {
	Submodules []model.Submodule `json:"submodules"`
}

// ModulePlanner is C6: turns accumulated research into an ordered list of
// modules.
type ModulePlanner struct {
	LLM  capability.LLMCapability
	Emit func(model.ProgressEvent)
}

// Plan is the C6 node. On structured parse failure after retries it leaves
// state.Modules empty and marks the run's phase as error, per the
// documented degrade-to-empty-result policy; it does not itself abort the
// run, since C9 is responsible for producing a (possibly empty) result.
func (p *ModulePlanner) Plan(ctx context.Context, state *model.RunState) error {
	p.emit(progressEvent("planning modules", model.PhaseModules, model.ActionStarted, nil, nil, nil))

	vars := planModulesVars{
		Topic:              state.Request.Topic,
		Language:           state.Request.Language,
		Style:              state.Request.ExplanationStyle,
		ResultsText:        summarizeResults(state.SearchResults),
		DesiredModuleCount: state.Request.DesiredModuleCount,
	}.toKSVA()

	out, err := capability.CompleteStructured[modulesOut](ctx, p.LLM, TemplatePlanModules, vars, 2,
		func() (modulesOut, bool) {
			return modulesOut{}, false
		})
	if err != nil {
		state.AppendStep("module planning failed to parse after retries, proceeding with no modules")
		p.emit(progressEvent("module planning failed", model.PhaseError, model.ActionError, nil, nil, nil))
		return nil
	}

	modules := out.Modules
	if state.Request.DesiredModuleCount != nil {
		want := *state.Request.DesiredModuleCount
		if len(modules) > want {
			modules = modules[:want]
		} else if len(modules) < want {
			state.AppendStep(fmt.Sprintf("module planner returned %d modules, fewer than the requested %d", len(modules), want))
		}
	} else if len(modules) > defaultMaxModuleCount {
		modules = modules[:defaultMaxModuleCount]
		state.AppendStep(fmt.Sprintf("module planner returned more than %d modules, truncated to the default bound", defaultMaxModuleCount))
	}

	state.Modules = modules
	state.AppendStep(fmt.Sprintf("planned %d modules", len(modules)))
	p.emit(progressEvent("module planning complete", model.PhaseModules, model.ActionCompleted, nil, nil, &model.Preview{Modules: modules}))
	return nil
}

// SubmodulePlanner is C7: for each module, plans an ordered submodule list
// and produces the enhanced module.
type SubmodulePlanner struct {
	LLM  capability.LLMCapability
	Emit func(model.ProgressEvent)
}

// Plan is the C7 node. Modules are processed sequentially: the reference
// pipeline accepts the cost since ordering simplifies the prompts that
// follow, and module_parallelism is reserved rather than required here.
func (p *SubmodulePlanner) Plan(ctx context.Context, state *model.RunState) error {
	enhanced := make([]model.EnhancedModule, 0, len(state.Modules))

	for _, m := range state.Modules {
		if err := ctx.Err(); err != nil {
			return model.NewError(model.Cancelled, "cancelled during submodule planning", err)
		}

		submodules, err := p.planOne(ctx, state, m)
		if err != nil {
			return err
		}
		enhanced = append(enhanced, model.EnhancedModule{Module: m, Submodules: submodules})

		p.emit(progressEvent(fmt.Sprintf("planned %d submodules for %q", len(submodules), m.Title),
			model.PhaseSubmodulePlanning, model.ActionProcessing, nil, nil,
			&model.Preview{CurrentModule: m.Title}))
	}

	state.EnhancedModules = enhanced
	state.AppendStep(fmt.Sprintf("planned submodules for %d modules", len(enhanced)))
	return nil
}

func (p *SubmodulePlanner) planOne(ctx context.Context, state *model.RunState, m model.Module) ([]model.Submodule, error) {
	vars := planSubmodulesVars{
		Topic:                 state.Request.Topic,
		Language:              state.Request.Language,
		Style:                 state.Request.ExplanationStyle,
		ModuleTitle:           m.Title,
		ModuleDescription:     m.Description,
		DesiredSubmoduleCount: state.Request.DesiredSubmoduleCount,
	}.toKSVA()

	out, err := capability.CompleteStructured[submodulesOut](ctx, p.LLM, TemplatePlanSubmodulesForModule, vars, 2,
		func() (submodulesOut, bool) {
			return submodulesOut{}, false
		})
	if err != nil {
		return nil, err
	}

	submodules := out.Submodules
	if state.Request.DesiredSubmoduleCount != nil {
		want := *state.Request.DesiredSubmoduleCount
		if len(submodules) > want {
			submodules = submodules[:want]
		} else if len(submodules) < want {
			state.AppendStep(fmt.Sprintf("submodule planner returned %d submodules for %q, fewer than the requested %d", len(submodules), m.Title, want))
		}
	}

	for i := range submodules {
		submodules[i].Order = i + 1
	}
	return submodules, nil
}

func (p *ModulePlanner) emit(ev model.ProgressEvent) {
	if p.Emit != nil {
		p.Emit(ev)
	}
}

func (p *SubmodulePlanner) emit(ev model.ProgressEvent) {
	if p.Emit != nil {
		p.Emit(ev)
	}
}
