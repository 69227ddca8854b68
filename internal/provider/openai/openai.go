// Package openai implements provider.Backend with the OpenAI chat
// completions API, against either api.openai.com or an Azure OpenAI
// deployment.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Cyclone1070/aishell/internal/conversation"
	"github.com/Cyclone1070/aishell/internal/provider"
	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
)

// ChatClient is the subset of the SDK's chat completion service the backend uses.
type ChatClient interface {
	New(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
}

// Options configures a Backend.
type Options struct {
	APIKey    string
	Model     string
	MaxTokens int

	// Azure deployments are addressed by endpoint and API version; Model is
	// then the deployment name.
	AzureEndpoint   string
	AzureAPIVersion string
}

// Backend sends conversations to an OpenAI chat model.
type Backend struct {
	client    ChatClient
	name      string
	model     string
	maxTokens int
}

// New wraps an existing chat client.
func New(client ChatClient, name, model string, maxTokens int) *Backend {
	if client == nil {
		panic("client is required")
	}
	return &Backend{client: client, name: name, model: model, maxTokens: maxTokens}
}

// NewFromOptions builds the SDK client for OpenAI or Azure OpenAI.
func NewFromOptions(opts Options) (*Backend, error) {
	if opts.APIKey == "" {
		return nil, &provider.ProviderError{Provider: "openai", Code: provider.ErrorCodeAuth, Message: "API key is not set"}
	}
	if opts.Model == "" {
		return nil, &provider.ProviderError{Provider: "openai", Code: provider.ErrorCodeInvalidModel, Message: "model is not set"}
	}

	if opts.AzureEndpoint != "" {
		client := sdk.NewClient(
			azure.WithEndpoint(opts.AzureEndpoint, opts.AzureAPIVersion),
			azure.WithAPIKey(opts.APIKey),
		)
		return New(&client.Chat.Completions, "azure", opts.Model, opts.MaxTokens), nil
	}

	client := sdk.NewClient(option.WithAPIKey(opts.APIKey))
	return New(&client.Chat.Completions, "openai", opts.Model, opts.MaxTokens), nil
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return b.name + "/" + b.model
}

// Generate implements provider.Backend.
func (b *Backend) Generate(ctx context.Context, systemPrompt string, messages []conversation.Message) (string, error) {
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(b.model),
		Messages: toChatMessages(systemPrompt, messages),
	}
	if b.maxTokens > 0 {
		params.MaxCompletionTokens = sdk.Int(int64(b.maxTokens))
	}

	resp, err := b.client.New(ctx, params)
	if err != nil {
		return "", b.mapError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &provider.ProviderError{Provider: b.name, Code: provider.ErrorCodeEmptyResponse, Message: "no choices in response"}
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", &provider.ProviderError{Provider: b.name, Code: provider.ErrorCodeContentBlocked, Message: "content filtered"}
	}
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return "", &provider.ProviderError{Provider: b.name, Code: provider.ErrorCodeEmptyResponse, Message: "empty message content"}
	}
	return text, nil
}

func toChatMessages(systemPrompt string, messages []conversation.Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, sdk.SystemMessage(systemPrompt))
	}
	for _, msg := range provider.Compact(messages) {
		switch msg.Role {
		case conversation.RoleAssistant:
			out = append(out, sdk.AssistantMessage(msg.Content))
		case conversation.RoleSystem:
			out = append(out, sdk.SystemMessage(msg.Content))
		default:
			out = append(out, sdk.UserMessage(msg.Content))
		}
	}
	return out
}

func (b *Backend) mapError(err error) error {
	if pe := provider.FromContext(b.name, err); pe != nil {
		return pe
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return provider.FromStatus(b.name, apiErr.StatusCode, err)
	}
	return &provider.ProviderError{
		Provider:   b.name,
		Code:       provider.ErrorCodeNetwork,
		Message:    fmt.Sprintf("request to %s failed", b.model),
		Underlying: err,
		Retryable:  true,
	}
}
