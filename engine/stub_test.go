package engine

import (
	"context"
	"errors"

	"github.com/pma1999/mapmylearn-sub001/capability"
	"github.com/pma1999/mapmylearn-sub001/model"
	"github.com/pma1999/mapmylearn-sub001/pkg/kvstore"
)

// scriptedLLM replays, per template name, a fixed queue of structured
// responses and a fixed text response, so tests can drive each stage
// through retries, fallbacks, and the happy path.
type scriptedLLM struct {
	structured map[string][]string
	text       map[string]string
	calls      map[string]int
}

func newScriptedLLM() *scriptedLLM {
	return &scriptedLLM{
		structured: make(map[string][]string),
		text:       make(map[string]string),
		calls:      make(map[string]int),
	}
}

func (s *scriptedLLM) CompleteText(ctx context.Context, templateName string, vars kvstore.KSVA) (string, error) {
	if v, ok := s.text[templateName]; ok {
		return v, nil
	}
	return "", errors.New("scriptedLLM: no text response for " + templateName)
}

func (s *scriptedLLM) CompleteStructured(ctx context.Context, templateName string, vars kvstore.KSVA) (string, error) {
	queue := s.structured[templateName]
	i := s.calls[templateName]
	s.calls[templateName] = i + 1
	if i >= len(queue) {
		return "", errors.New("scriptedLLM: no more responses for " + templateName)
	}
	return queue[i], nil
}

func (s *scriptedLLM) CompleteGrounded(ctx context.Context, templateName string, vars kvstore.KSVA) (capability.GroundedResult, error) {
	return capability.GroundedResult{}, errors.New("not implemented")
}

// stubSearch returns a successful single-item result for every query, so
// search-stage tests can assert on ordering and counts without a real
// provider.
type stubSearch struct {
	fail bool
}

func (s stubSearch) Search(ctx context.Context, query model.SearchQuery, language string) model.SearchResult {
	if s.fail {
		return model.SearchResult{Query: query.Keywords, Err: "search unavailable"}
	}
	return model.SearchResult{
		Query:     query.Keywords,
		Rationale: query.Rationale,
		Items: []model.SearchResultItem{
			{Title: "result for " + query.Keywords, URL: "https://example.test", Content: "content", Source: "web"},
		},
	}
}
