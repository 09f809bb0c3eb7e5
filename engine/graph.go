// Package engine implements the learning path generation pipeline: a
// directed graph of stages threaded over a single model.RunState, bounded
// by configurable parallelism, that researches a topic, plans modules and
// submodules, develops each submodule concurrently, and streams progress
// to an observer.
package engine

import (
	"context"
	"fmt"

	"github.com/pma1999/mapmylearn-sub001/model"
)

// Node is one stage in the graph: it reads and writes fields on state,
// honoring ctx cancellation at every suspension point.
type Node interface {
	Name() string
	Run(ctx context.Context, state *model.RunState) error
}

// nodeFunc adapts a plain function to Node, the way flow.AsProcessor turns
// a function into a composable unit without requiring a dedicated type per
// stage.
type nodeFunc struct {
	name string
	fn   func(ctx context.Context, state *model.RunState) error
}

func (n nodeFunc) Name() string { return n.name }

func (n nodeFunc) Run(ctx context.Context, state *model.RunState) error {
	if err := ctx.Err(); err != nil {
		return model.NewError(model.Cancelled, "cancelled before "+n.name, err)
	}
	return n.fn(ctx, state)
}

// Step builds a Node out of a name and a run function.
func Step(name string, fn func(ctx context.Context, state *model.RunState) error) Node {
	return nodeFunc{name: name, fn: fn}
}

// Sequence runs a fixed list of nodes in order, stopping at the first
// error. This is the graph's static-edge backbone.
type Sequence struct {
	nodes []Node
}

// NewSequence builds a Sequence out of the given nodes, run in order.
func NewSequence(nodes ...Node) *Sequence {
	return &Sequence{nodes: nodes}
}

func (s *Sequence) Name() string { return "sequence" }

func (s *Sequence) Run(ctx context.Context, state *model.RunState) error {
	for _, n := range s.nodes {
		if err := ctx.Err(); err != nil {
			return model.NewError(model.Cancelled, "cancelled before "+n.Name(), err)
		}
		if err := n.Run(ctx, state); err != nil {
			return err
		}
	}
	return nil
}

// Branch runs a base node, then resolves a successor by name from state and
// runs it. It models the graph's one conditional edge: the research
// adequacy routing after the evaluator runs.
type Branch struct {
	base     Node
	resolve  func(state *model.RunState) string
	branches map[string]Node
}

// NewBranch builds a Branch: base always runs first, then resolve picks
// which of branches to run next.
func NewBranch(base Node, resolve func(state *model.RunState) string, branches map[string]Node) *Branch {
	return &Branch{base: base, resolve: resolve, branches: branches}
}

func (b *Branch) Name() string { return "branch:" + b.base.Name() }

func (b *Branch) Run(ctx context.Context, state *model.RunState) error {
	if err := b.base.Run(ctx, state); err != nil {
		return err
	}
	key := b.resolve(state)
	next, ok := b.branches[key]
	if !ok {
		return model.NewError(model.InternalInvariantViolated,
			fmt.Sprintf("branch %q has no successor named %q", b.Name(), key), nil)
	}
	return next.Run(ctx, state)
}

// Loop runs node repeatedly while cond(state) holds, honoring a hard
// maxIterations ceiling regardless of cond. This models both the research
// refinement loop (bounded by max_research_loops) and the submodule batch
// pump (bounded by the number of batches), so cancellation and
// instrumentation are uniform across both instead of being inline `for`
// loops with their own bespoke guard logic.
type Loop struct {
	node          Node
	cond          func(state *model.RunState) bool
	maxIterations int
}

// NewLoop builds a Loop. maxIterations <= 0 means unbounded except for
// cond.
func NewLoop(node Node, cond func(state *model.RunState) bool, maxIterations int) *Loop {
	return &Loop{node: node, cond: cond, maxIterations: maxIterations}
}

func (l *Loop) Name() string { return "loop:" + l.node.Name() }

func (l *Loop) Run(ctx context.Context, state *model.RunState) error {
	for i := 0; l.maxIterations <= 0 || i < l.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return model.NewError(model.Cancelled, "cancelled during "+l.Name(), err)
		}
		if err := l.node.Run(ctx, state); err != nil {
			return err
		}
		if l.cond != nil && !l.cond(state) {
			return nil
		}
	}
	return nil
}
