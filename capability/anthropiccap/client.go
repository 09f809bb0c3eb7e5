// Package anthropiccap implements capability.LLMCapability over the
// Anthropic Messages API, rendering the engine's named prompt templates
// before sending them.
package anthropiccap

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pma1999/mapmylearn-sub001/capability"
	"github.com/pma1999/mapmylearn-sub001/pkg/kvstore"
	"github.com/pma1999/mapmylearn-sub001/pkg/prompt"
)

// defaultMaxTokens bounds a single completion; the engine's prompts are
// not expected to need more than this for either a structured value or a
// submodule's authored content.
const defaultMaxTokens = 4096

// Client is a capability.LLMCapability backed by the Anthropic API.
type Client struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	prompts   *prompt.Registry
}

// New builds a Client for apiKey and model, using the engine's default
// prompt bodies.
func New(apiKey string, model anthropic.Model) (*Client, error) {
	registry, err := prompt.NewRegistry(prompt.EngineTemplates)
	if err != nil {
		return nil, err
	}
	return NewWithRegistry(apiKey, model, registry), nil
}

// NewWithRegistry builds a Client with an explicit template registry.
func NewWithRegistry(apiKey string, model anthropic.Model, registry *prompt.Registry) *Client {
	return &Client{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: defaultMaxTokens,
		prompts:   registry,
	}
}

func (c *Client) complete(ctx context.Context, templateName string, vars kvstore.KSVA) (string, error) {
	rendered, err := c.prompts.Render(templateName, vars)
	if err != nil {
		return "", fmt.Errorf("anthropiccap: %w", err)
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(rendered)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropiccap: messages.new: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", errors.New("anthropiccap: completion returned no content blocks")
	}
	return resp.Content[0].Text, nil
}

// CompleteText implements capability.LLMCapability.
func (c *Client) CompleteText(ctx context.Context, templateName string, vars kvstore.KSVA) (string, error) {
	return c.complete(ctx, templateName, vars)
}

// CompleteStructured implements capability.LLMCapability.
func (c *Client) CompleteStructured(ctx context.Context, templateName string, vars kvstore.KSVA) (string, error) {
	return c.complete(ctx, templateName, vars)
}

// CompleteGrounded is not supported: this adapter targets the core
// engine's structured/text calls only.
func (c *Client) CompleteGrounded(ctx context.Context, templateName string, vars kvstore.KSVA) (capability.GroundedResult, error) {
	return capability.GroundedResult{}, errors.New("anthropiccap: grounded completion not supported")
}

var _ capability.LLMCapability = (*Client)(nil)
