// Package gemini implements provider.Backend on top of the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/Cyclone1070/aishell/internal/conversation"
	"github.com/Cyclone1070/aishell/internal/provider"
	"google.golang.org/genai"
)

const name = "gemini"

// Backend sends conversations to a Gemini model.
type Backend struct {
	client    Models
	model     string
	maxTokens int32
}

// New creates a Gemini backend that sends requests through models.
func New(client Models, model string, maxTokens int) *Backend {
	if client == nil {
		panic("client is required")
	}
	return &Backend{client: client, model: model, maxTokens: int32(maxTokens)}
}

// NewFromAPIKey builds the SDK client for the Gemini API and wraps it.
func NewFromAPIKey(ctx context.Context, apiKey, model string, maxTokens int) (*Backend, error) {
	if apiKey == "" {
		return nil, &provider.ProviderError{Provider: name, Code: provider.ErrorCodeAuth, Message: "GEMINI_API_KEY is not set"}
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return New(sdkModels{client: client}, model, maxTokens), nil
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return name + "/" + b.model
}

// Generate implements provider.Backend.
func (b *Backend) Generate(ctx context.Context, systemPrompt string, messages []conversation.Message) (string, error) {
	contents := toGeminiContents(messages)
	if len(contents) == 0 {
		return "", &provider.ProviderError{Provider: name, Code: provider.ErrorCodeInvalidRequest, Message: "no messages to send"}
	}

	resp, err := b.client.GenerateContent(ctx, b.model, contents, toGeminiConfig(systemPrompt, b.maxTokens))
	if err != nil {
		return "", mapError(err)
	}
	return fromGeminiResponse(resp)
}

func mapError(err error) error {
	if pe := provider.FromContext(name, err); pe != nil {
		return pe
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return provider.FromStatus(name, apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return provider.FromStatus(name, apiErrPtr.Code, err)
	}
	return &provider.ProviderError{Provider: name, Code: provider.ErrorCodeNetwork, Message: "request failed", Underlying: err, Retryable: true}
}
