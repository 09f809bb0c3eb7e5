// Package capability declares the external services the engine consumes:
// language-model completion, web search, and optional content scraping.
// Every capability is a plain interface injected by the caller at run
// entry — the engine never constructs or looks one up itself, and never
// inspects which implementation it was handed.
package capability

import (
	"context"
	"time"

	"github.com/pma1999/mapmylearn-sub001/model"
	"github.com/pma1999/mapmylearn-sub001/pkg/kvstore"
)

// GroundedResult is the output of a grounded completion: free text plus the
// search activity and sources the model consulted to produce it. It exists
// for an external chatbot surface the engine does not itself drive.
type GroundedResult struct {
	Text          string
	SearchQueries []string
	Sources       []GroundedSource
}

// GroundedSource is one citation backing a GroundedResult.
type GroundedSource struct {
	Title string
	URI   string
}

// LLMCapability is the engine's only way to talk to a language model.
type LLMCapability interface {
	// CompleteText renders templateName against vars and returns the raw
	// completion text.
	CompleteText(ctx context.Context, templateName string, vars kvstore.KSVA) (string, error)

	// CompleteStructured renders templateName against vars (which the
	// caller has already augmented with schema-derived format
	// instructions) and returns the raw completion text, which the caller
	// is responsible for parsing against the declared schema.
	CompleteStructured(ctx context.Context, templateName string, vars kvstore.KSVA) (string, error)

	// CompleteGrounded is optional; implementations that do not support
	// provider-side grounding may return an error, since the core engine
	// never calls it itself — it exists for an out-of-scope chatbot
	// surface sharing this capability handle.
	CompleteGrounded(ctx context.Context, templateName string, vars kvstore.KSVA) (GroundedResult, error)
}

// SearchCapability executes a single web search. Implementations must not
// panic or return a transport error to the caller: on failure they should
// return a SearchResult whose Items is empty and whose Err carries a
// description, so the engine can proceed with partial research.
type SearchCapability interface {
	Search(ctx context.Context, query model.SearchQuery, language string) model.SearchResult
}

// ScrapeCapability optionally fetches and truncates page content for a
// URL surfaced by a search result. It is nil-checked at every call site.
type ScrapeCapability interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (string, error)
}

// Default capability-call timeouts. The engine does not apply them: no
// capability call in the engine is wrapped in a timeout of its own, so a
// call is bounded only by the run's context.
const (
	LLMTimeout    = 120 * time.Second
	SearchTimeout = 30 * time.Second
	ScrapeTimeout = 10 * time.Second
)
