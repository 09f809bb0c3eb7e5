package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pma1999/mapmylearn-sub001/model"
)

// Finalizer is C9: groups developed submodules under their planned
// modules, assigns run_id, and emits the single terminal completion
// event.
type Finalizer struct {
	Emit func(model.ProgressEvent)
}

// Finalize is the C9 node. It only stamps run_id and emits the terminal
// event; BuildResult does the actual grouping, kept separate so a caller
// can assemble a partial result after a failed or cancelled run without
// re-running this node.
func (f *Finalizer) Finalize(ctx context.Context, state *model.RunState) error {
	state.RunID = uuid.NewString()
	state.AppendStep(fmt.Sprintf("finalized run %s", state.RunID))

	f.emit(progressEvent("learning path generation complete", model.PhaseCompletion, model.ActionCompleted, floatPtr(1.0), floatPtr(1.0), nil))
	return nil
}

// resolveSummary returns d.Summary if it is non-empty, else derives one
// from the content, matching the documented default.
func resolveSummary(d model.DevelopedSubmodule) string {
	if d.Summary != "" {
		return d.Summary
	}
	return summarize(d.Content)
}

// BuildResult assembles the public RunResult from a RunState. It is a pure
// read of state and may be called at any point, including after a failed
// or cancelled run; before Finalize has run, RunID is empty.
func BuildResult(state *model.RunState) model.RunResult {
	byModule := make(map[int][]model.DevelopedSubmodule, len(state.EnhancedModules))
	for _, d := range state.Developed {
		byModule[d.ModuleIndex] = append(byModule[d.ModuleIndex], d)
	}

	modules := make([]model.ResultModule, 0, len(state.EnhancedModules))
	for mi, em := range state.EnhancedModules {
		developed := byModule[mi]
		byIndex := make(map[int]model.DevelopedSubmodule, len(developed))
		for _, d := range developed {
			byIndex[d.SubmoduleIndex] = d
		}

		submodules := make([]model.ResultSubmodule, 0, len(em.Submodules))
		for si, sm := range em.Submodules {
			d, ok := byIndex[si]
			if !ok {
				continue
			}
			submodules = append(submodules, model.ResultSubmodule{
				Order:       sm.Order,
				Title:       sm.Title,
				Description: sm.Description,
				Content:     d.Content,
				Summary:     resolveSummary(d),
			})
		}

		modules = append(modules, model.ResultModule{Module: em.Module, Submodules: submodules})
	}

	return model.RunResult{
		RunID:          state.RunID,
		Topic:          state.Request.Topic,
		Language:       state.Request.Language,
		Modules:        modules,
		ExecutionSteps: state.Steps,
	}
}

func (f *Finalizer) emit(ev model.ProgressEvent) {
	if f.Emit != nil {
		f.Emit(ev)
	}
}
