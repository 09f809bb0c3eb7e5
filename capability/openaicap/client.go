// Package openaicap implements capability.LLMCapability over the OpenAI
// chat completions API, rendering the engine's named prompt templates
// before sending them.
package openaicap

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/pma1999/mapmylearn-sub001/capability"
	"github.com/pma1999/mapmylearn-sub001/pkg/kvstore"
	"github.com/pma1999/mapmylearn-sub001/pkg/prompt"
)

// Client is a capability.LLMCapability backed by the OpenAI API.
type Client struct {
	client   openai.Client
	model    openai.ChatModel
	prompts  *prompt.Registry
}

// New builds a Client for apiKey and model, using the engine's default
// prompt bodies. Pass a custom registry via NewWithRegistry to override
// template wording without touching this adapter.
func New(apiKey string, model openai.ChatModel) (*Client, error) {
	registry, err := prompt.NewRegistry(prompt.EngineTemplates)
	if err != nil {
		return nil, err
	}
	return NewWithRegistry(apiKey, model, registry), nil
}

// NewWithRegistry builds a Client with an explicit template registry.
func NewWithRegistry(apiKey string, model openai.ChatModel, registry *prompt.Registry) *Client {
	return &Client{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		prompts: registry,
	}
}

func (c *Client) complete(ctx context.Context, templateName string, vars kvstore.KSVA) (string, error) {
	rendered, err := c.prompts.Render(templateName, vars)
	if err != nil {
		return "", fmt.Errorf("openaicap: %w", err)
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(rendered),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openaicap: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openaicap: completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteText implements capability.LLMCapability.
func (c *Client) CompleteText(ctx context.Context, templateName string, vars kvstore.KSVA) (string, error) {
	return c.complete(ctx, templateName, vars)
}

// CompleteStructured implements capability.LLMCapability. vars already
// carries "format_instructions"; the schema enforcement itself happens in
// capability.CompleteStructured, not here.
func (c *Client) CompleteStructured(ctx context.Context, templateName string, vars kvstore.KSVA) (string, error) {
	return c.complete(ctx, templateName, vars)
}

// CompleteGrounded is not supported by this adapter: OpenAI's hosted web
// search tool is a separate, heavier integration than the core engine
// needs, and nothing in the core graph calls this method.
func (c *Client) CompleteGrounded(ctx context.Context, templateName string, vars kvstore.KSVA) (capability.GroundedResult, error) {
	return capability.GroundedResult{}, errors.New("openaicap: grounded completion not supported")
}

var _ capability.LLMCapability = (*Client)(nil)
