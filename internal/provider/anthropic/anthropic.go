// Package anthropic implements provider.Backend with the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/Cyclone1070/aishell/internal/conversation"
	"github.com/Cyclone1070/aishell/internal/provider"
	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	name             = "anthropic"
	defaultMaxTokens = 1024
	leadingTurn      = "[earlier conversation omitted]"
)

// MessageClient is the subset of the SDK's message service the backend uses.
type MessageClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Backend sends conversations to a Claude model.
type Backend struct {
	client    MessageClient
	model     string
	maxTokens int64
}

// New wraps an existing message client.
func New(client MessageClient, model string, maxTokens int) *Backend {
	if client == nil {
		panic("client is required")
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Backend{client: client, model: model, maxTokens: int64(maxTokens)}
}

// NewFromAPIKey builds the SDK client and wraps it.
func NewFromAPIKey(apiKey, model string, maxTokens int) (*Backend, error) {
	if apiKey == "" {
		return nil, &provider.ProviderError{Provider: name, Code: provider.ErrorCodeAuth, Message: "ANTHROPIC_API_KEY is not set"}
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&client.Messages, model, maxTokens), nil
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return name + "/" + b.model
}

// Generate implements provider.Backend.
func (b *Backend) Generate(ctx context.Context, systemPrompt string, messages []conversation.Message) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(b.model),
		Messages:  toMessageParams(messages),
		MaxTokens: b.maxTokens,
	}
	if systemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := b.client.New(ctx, params)
	if err != nil {
		return "", mapError(err)
	}
	if resp == nil {
		return "", &provider.ProviderError{Provider: name, Code: provider.ErrorCodeEmptyResponse, Message: "nil response"}
	}
	if resp.StopReason == sdk.StopReasonRefusal {
		return "", &provider.ProviderError{Provider: name, Code: provider.ErrorCodeContentBlocked, Message: "model refused the request"}
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", &provider.ProviderError{Provider: name, Code: provider.ErrorCodeEmptyResponse, Message: "no text blocks in response"}
	}
	return text, nil
}

// toMessageParams converts the transcript into alternating user/assistant
// turns that start with a user turn.
func toMessageParams(messages []conversation.Message) []sdk.MessageParam {
	normalised := make([]conversation.Message, len(messages))
	for i, msg := range messages {
		normalised[i] = msg
		if msg.Role == conversation.RoleSystem {
			normalised[i].Role = conversation.RoleUser
		}
	}
	compacted := provider.Compact(normalised)

	out := make([]sdk.MessageParam, 0, len(compacted)+1)
	if len(compacted) == 0 || compacted[0].Role == conversation.RoleAssistant {
		out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(leadingTurn)))
	}
	for _, msg := range compacted {
		if msg.Role == conversation.RoleAssistant {
			out = append(out, sdk.NewAssistantMessage(sdk.NewTextBlock(msg.Content)))
			continue
		}
		out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(msg.Content)))
	}
	return out
}

func mapError(err error) error {
	if pe := provider.FromContext(name, err); pe != nil {
		return pe
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return provider.FromStatus(name, apiErr.StatusCode, err)
	}
	return &provider.ProviderError{Provider: name, Code: provider.ErrorCodeNetwork, Message: "request failed", Underlying: err, Retryable: true}
}
