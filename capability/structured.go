package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pma1999/mapmylearn-sub001/model"
	"github.com/pma1999/mapmylearn-sub001/pkg/kvstore"
	"github.com/pma1999/mapmylearn-sub001/pkg/schema"
)

// formatInstructions is the fixed wrapper every structured call embeds its
// reflected schema in, modeled on the teacher's StructConverter format
// block: a flat instruction to return RFC8259-compliant JSON with no
// markdown fencing, followed by the schema itself.
const formatInstructions = `Your response must be a single JSON value, RFC8259 compliant. Do not wrap it in markdown code fences and do not include any commentary before or after it. It must conform to this JSON Schema:
%s`

// FormatInstructionsFor reflects a JSON Schema from the zero value of T and
// wraps it in the standard structured-output instruction block.
func FormatInstructionsFor[T any]() (string, error) {
	var zero T
	s, err := schema.StringOf(zero)
	if err != nil {
		return "", fmt.Errorf("capability: reflect schema for %T: %w", zero, err)
	}
	return fmt.Sprintf(formatInstructions, s), nil
}

// CompleteStructured calls llm.CompleteStructured against templateName and
// vars, with "format_instructions" set to the reflected schema for T,
// retrying up to retries additional times on a parse failure. If every
// attempt fails to parse and fallback is non-nil, fallback's result is
// returned instead of an error — matching the engine-wide policy of
// degrading a stage rather than aborting the run on a structured-parse
// failure. A nil fallback makes exhaustion terminal, returned as a
// StructuredParseFailed RunError.
func CompleteStructured[T any](
	ctx context.Context,
	llm LLMCapability,
	templateName string,
	vars kvstore.KSVA,
	retries int,
	fallback func() (T, bool),
) (T, error) {
	var zero T

	instructions, err := FormatInstructionsFor[T]()
	if err != nil {
		return zero, err
	}

	merged := vars.Clone()
	merged.Put("format_instructions", instructions)

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, model.NewError(model.Cancelled, "cancelled during structured completion", err)
		}

		raw, callErr := llm.CompleteStructured(ctx, templateName, merged)
		if callErr != nil {
			lastErr = callErr
			continue
		}

		var out T
		if err := json.Unmarshal([]byte(cleanJSON(raw)), &out); err != nil {
			lastErr = err
			continue
		}
		return out, nil
	}

	if fallback != nil {
		if v, ok := fallback(); ok {
			return v, nil
		}
	}

	return zero, model.NewError(
		model.StructuredParseFailed,
		fmt.Sprintf("structured completion %q failed after %d attempt(s)", templateName, retries+1),
		lastErr,
	)
}

// cleanJSON strips the markdown code fences a language model sometimes
// wraps a JSON response in despite being told not to.
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
