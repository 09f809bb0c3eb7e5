// Package model holds the data entities that flow through the learning
// path generation engine: the request and result shapes callers see, the
// planner/research artifacts produced along the way, and the run state the
// graph driver threads through every stage.
package model

import "time"

// ExplanationStyle is a caller-chosen modifier that the authoring prompts
// honor; it affects prose only, never the structure the planner produces.
type ExplanationStyle string

const (
	StyleStandard     ExplanationStyle = "standard"
	StyleSimple       ExplanationStyle = "simple"
	StyleTechnical    ExplanationStyle = "technical"
	StyleExample      ExplanationStyle = "example"
	StyleConceptual   ExplanationStyle = "conceptual"
	StyleGrumpyGenius ExplanationStyle = "grumpy_genius"
)

func (s ExplanationStyle) Valid() bool {
	switch s {
	case StyleStandard, StyleSimple, StyleTechnical, StyleExample, StyleConceptual, StyleGrumpyGenius:
		return true
	default:
		return false
	}
}

// DepthLevel classifies how advanced a submodule's treatment of its topic
// is meant to be.
type DepthLevel string

const (
	DepthBasic        DepthLevel = "basic"
	DepthIntermediate DepthLevel = "intermediate"
	DepthAdvanced     DepthLevel = "advanced"
	DepthExpert       DepthLevel = "expert"
)

// SearchQuery is a single query an LLM generated, with its rationale for
// why that query matters.
type SearchQuery struct {
	Keywords  string `json:"keywords"`
	Rationale string `json:"rationale"`
}

// SearchResultItem is one hit returned by a successful search.
type SearchResultItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// SearchResult is the outcome of executing one SearchQuery. Items carries
// the list of hits on success; Err carries a textual error marker on
// failure — never both, and Err is always empty on success. This tagged
// shape is deliberate: the system this engine replaces conflated the two
// by letting a string stand in for a list, forcing every caller to
// type-test; here the two cases are structurally distinguishable instead.
type SearchResult struct {
	Query     string             `json:"query"`
	Rationale string             `json:"rationale"`
	Items     []SearchResultItem `json:"items,omitempty"`
	Err       string             `json:"error,omitempty"`
}

// Failed reports whether this result is the error-marker branch.
func (r SearchResult) Failed() bool {
	return r.Err != ""
}

// Module is one top-level unit of a learning path, before its submodules
// have been planned.
type Module struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	CoreConcept        string   `json:"core_concept,omitempty"`
	LearningObjective  string   `json:"learning_objective,omitempty"`
	Prerequisites      []string `json:"prerequisites,omitempty"`
	KeyComponents      []string `json:"key_components,omitempty"`
	ExpectedOutcomes   []string `json:"expected_outcomes,omitempty"`
}

// Submodule is one unit within a Module's planned curriculum.
type Submodule struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Order             int        `json:"order"`
	DepthLevel        DepthLevel `json:"depth_level"`
	CoreConcept       string     `json:"core_concept,omitempty"`
	LearningObjective string     `json:"learning_objective,omitempty"`
	KeyComponents     []string   `json:"key_components,omitempty"`
}

// EnhancedModule is a Module once its submodules have been planned.
type EnhancedModule struct {
	Module
	Submodules []Submodule `json:"submodules"`
}

// Pair identifies one (module, submodule) unit of development work, by
// their 0-based positions in the planned EnhancedModule list.
type Pair struct {
	ModuleIndex    int
	SubmoduleIndex int
}

// DevelopedSubmodule is the authored output for one Pair.
type DevelopedSubmodule struct {
	ModuleIndex    int            `json:"module_index"`
	SubmoduleIndex int            `json:"submodule_index"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Queries        []SearchQuery  `json:"queries"`
	Results        []SearchResult `json:"results"`
	Content        string         `json:"content"`
	Summary        string         `json:"summary"`
}

// Phase names a stage of the pipeline for progress reporting purposes.
type Phase string

const (
	PhaseInitialization     Phase = "initialization"
	PhaseSearchQueries      Phase = "search_queries"
	PhaseWebSearches        Phase = "web_searches"
	PhaseResearchEvaluation Phase = "research_evaluation"
	PhaseResearchRefinement Phase = "research_refinement"
	PhaseModules            Phase = "modules"
	PhaseSubmodulePlanning  Phase = "submodule_planning"
	PhaseSubmoduleResearch  Phase = "submodule_research"
	PhaseSubmoduleContent   Phase = "submodule_content"
	PhaseCompletion         Phase = "completion"
	PhaseError              Phase = "error"
	PhaseConnection         Phase = "connection"
)

// Action further qualifies a ProgressEvent within its Phase.
type Action string

const (
	ActionStarted      Action = "started"
	ActionProcessing   Action = "processing"
	ActionCompleted    Action = "completed"
	ActionError        Action = "error"
	ActionConnected    Action = "connected"
	ActionHistorySaved Action = "history_saved"
)

// Preview carries a cheap, partial look at in-progress state, attached to
// a subset of progress events so an observer can render something before
// the run finishes.
type Preview struct {
	Modules         []Module     `json:"modules,omitempty"`
	SearchQueries   []SearchQuery `json:"search_queries,omitempty"`
	CurrentModule   string       `json:"current_module,omitempty"`
	CurrentSubmodule string      `json:"current_submodule,omitempty"`
}

// ProgressEvent is one fire-and-forget notification emitted by a stage.
type ProgressEvent struct {
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
	Phase          Phase     `json:"phase,omitempty"`
	PhaseProgress  *float64  `json:"phase_progress,omitempty"`
	OverallProgress *float64 `json:"overall_progress,omitempty"`
	Action         Action    `json:"action,omitempty"`
	Preview        *Preview  `json:"preview,omitempty"`
}

// ProgressSink receives fire-and-forget progress events. Implementations
// own their own buffering; emit must never block the run on a slow or
// absent observer for long.
type ProgressSink interface {
	Emit(event ProgressEvent)
}

// ProgressSnapshotStore overwrites the latest event for a run's
// correlation id, with a time-to-live. A failing store must never abort
// the run that uses it.
//
// The key is the caller-supplied correlation id, not the run_id: run_id is
// assigned only once, at the very end of C9, so nothing before that point
// can key a snapshot by it. Conflating the two was a defect in the system
// this engine replaces; CorrelationID and RunID are kept as distinct
// fields here on purpose.
type ProgressSnapshotStore interface {
	Put(correlationID string, event ProgressEvent, ttl time.Duration)
}

// Clock supplies the current time; every ProgressEvent timestamp goes
// through it, so tests can inject a deterministic clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the production Clock backed by time.Now.
var SystemClock Clock = systemClock{}

// RunRequest is the engine's only configuration surface.
type RunRequest struct {
	Topic                 string
	ModuleParallelism     int
	SearchParallelism     int
	SubmoduleParallelism  int
	DesiredModuleCount    *int
	DesiredSubmoduleCount *int
	Language              string
	ExplanationStyle      ExplanationStyle
	MaxResearchLoops      int

	// CorrelationID is an opaque id the caller may supply to correlate
	// progress events and snapshots with its own bookkeeping (e.g. an
	// HTTP task id). It is never used as the RunResult.RunID.
	CorrelationID string

	Observer ProgressSink
	Snapshot ProgressSnapshotStore
	Clock    Clock
}

// Normalize fills in every zero-valued optional field with its documented
// default, the way a builder's validate() step does before the real work
// starts. It returns a new RunRequest; the original is left untouched.
func (r RunRequest) Normalize() RunRequest {
	out := r
	if out.ModuleParallelism <= 0 {
		out.ModuleParallelism = 2
	}
	if out.SearchParallelism <= 0 {
		out.SearchParallelism = 3
	}
	if out.SubmoduleParallelism <= 0 {
		out.SubmoduleParallelism = 2
	}
	if out.Language == "" {
		out.Language = "en"
	}
	if out.ExplanationStyle == "" {
		out.ExplanationStyle = StyleStandard
	}
	if out.MaxResearchLoops <= 0 {
		out.MaxResearchLoops = 3
	}
	if out.Clock == nil {
		out.Clock = SystemClock
	}
	return out
}

// Validate reports InvalidInput conditions the request must not carry.
func (r RunRequest) Validate() error {
	if r.Topic == "" {
		return NewError(InvalidInput, "topic must not be empty", nil)
	}
	if r.ModuleParallelism < 0 || r.SearchParallelism < 0 || r.SubmoduleParallelism < 0 {
		return NewError(InvalidInput, "parallelism knobs must be non-negative", nil)
	}
	if r.ExplanationStyle != "" && !r.ExplanationStyle.Valid() {
		return NewError(InvalidInput, "unsupported explanation_style: "+string(r.ExplanationStyle), nil)
	}
	return nil
}

// ResultModule is the module shape the engine hands back to callers: the
// planner's fields plus the fully authored submodules.
type ResultModule struct {
	Module
	Submodules []ResultSubmodule `json:"submodules"`
}

// ResultSubmodule is the authored content for one submodule, in the final
// result.
type ResultSubmodule struct {
	Order       int    `json:"order"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Summary     string `json:"summary"`
}

// RunResult is what a successful run returns.
type RunResult struct {
	RunID          string         `json:"run_id"`
	Topic          string         `json:"topic"`
	Language       string         `json:"language"`
	Modules        []ResultModule `json:"modules"`
	ExecutionSteps []string       `json:"execution_steps"`
}

// PairState is the in-flight bookkeeping record for one (module, submodule)
// pair being developed.
type PairState struct {
	Status  PairStatus
	Queries []SearchQuery
	Results []SearchResult
	Content string
	Err     string
}

// PairStatus is the submodule pair lifecycle, per the state machine:
// pending -> queries_running -> searches_running -> authoring ->
// completed | error (error may occur at any stage).
type PairStatus string

const (
	PairPending         PairStatus = "pending"
	PairQueriesRunning   PairStatus = "queries_running"
	PairSearchesRunning  PairStatus = "searches_running"
	PairAuthoring        PairStatus = "authoring"
	PairCompleted        PairStatus = "completed"
	PairError            PairStatus = "error"
)

// ResearchState is the initial-research-loop state machine:
// seeded -> evaluating -> {sufficient | refining -> evaluating | exhausted}.
type ResearchState string

const (
	ResearchSeeded     ResearchState = "seeded"
	ResearchEvaluating ResearchState = "evaluating"
	ResearchRefining   ResearchState = "refining"
	ResearchSufficient ResearchState = "sufficient"
	ResearchExhausted  ResearchState = "exhausted"
)

// RunState is the append-only value threaded through every graph node. It
// is confined to a single run and is never shared across runs.
type RunState struct {
	Request RunRequest

	Steps             []string
	SearchQueries     []SearchQuery
	SearchResults     []SearchResult
	ResearchState     ResearchState
	ResearchLoopCount int
	MissingAspects    []string

	Modules         []Module
	EnhancedModules []EnhancedModule

	Batches     [][]Pair
	CurrentBatch int
	InFlight    map[Pair]*PairState
	Developed   []DevelopedSubmodule

	RunID string
}

// NewRunState seeds a fresh state for request, already normalized.
func NewRunState(request RunRequest) *RunState {
	return &RunState{
		Request:       request,
		ResearchState: ResearchSeeded,
		InFlight:      make(map[Pair]*PairState),
	}
}

// AppendStep records one human-readable execution note. Steps are
// append-only, matching the merge rule the graph driver applies to them.
func (s *RunState) AppendStep(step string) {
	s.Steps = append(s.Steps, step)
}
