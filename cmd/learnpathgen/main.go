// Command learnpathgen is a thin example wiring of the learning path
// generation engine: it parses a topic and a handful of run knobs from
// flags, selects an LLM capability backed by whichever API key is set in
// the environment, and prints the resulting path as JSON.
//
// A real search backend is not wired here: SearchCapability is an
// external collaborator the engine only consumes (see the engine
// package's Dependencies), and no concrete search provider ships in this
// module. unconfiguredSearch below satisfies the interface by reporting
// every query as failed, so the engine still runs end to end and
// degrades the way it would against a genuinely unavailable provider.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/v3"

	"github.com/pma1999/mapmylearn-sub001/capability"
	"github.com/pma1999/mapmylearn-sub001/capability/anthropiccap"
	"github.com/pma1999/mapmylearn-sub001/capability/openaicap"
	"github.com/pma1999/mapmylearn-sub001/engine"
	"github.com/pma1999/mapmylearn-sub001/model"
)

type unconfiguredSearch struct{}

func (unconfiguredSearch) Search(_ context.Context, query model.SearchQuery, _ string) model.SearchResult {
	return model.SearchResult{
		Query: query.Keywords,
		Err:   "no SearchCapability configured for this run",
	}
}

func main() {
	topic := flag.String("topic", "", "learning path topic (required)")
	language := flag.String("language", "en", "response language")
	style := flag.String("style", string(model.StyleStandard), "explanation style")
	searchParallelism := flag.Int("search-parallelism", 3, "concurrent search calls per stage")
	submoduleParallelism := flag.Int("submodule-parallelism", 2, "concurrent submodule sub-pipelines")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *topic == "" {
		fmt.Fprintln(os.Stderr, "learnpathgen: -topic is required")
		os.Exit(2)
	}

	llm, err := selectLLM()
	if err != nil {
		logger.Error("no LLM capability available", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	req := model.RunRequest{
		Topic:                *topic,
		Language:             *language,
		ExplanationStyle:     model.ExplanationStyle(*style),
		SearchParallelism:    *searchParallelism,
		SubmoduleParallelism: *submoduleParallelism,
	}

	result, err := engine.Run(ctx, req, engine.Dependencies{
		LLM:    llm,
		Search: unconfiguredSearch{},
		Logger: logger,
	})
	if err != nil {
		logger.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("failed to encode result", slog.Any("error", err))
		os.Exit(1)
	}
}

// selectLLM picks a capability implementation from whichever API key is
// present in the environment, preferring Anthropic.
func selectLLM() (capability.LLMCapability, error) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return anthropiccap.New(key, anthropic.ModelClaude3_5SonnetLatest)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return openaicap.New(key, openai.ChatModelGPT4o)
	}
	return nil, fmt.Errorf("set ANTHROPIC_API_KEY or OPENAI_API_KEY")
}
