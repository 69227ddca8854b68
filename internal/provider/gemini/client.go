package gemini

import (
	"context"

	"google.golang.org/genai"
)

// Models is the slice of the genai Models service a Backend calls. Tests
// substitute a scripted implementation.
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// sdkModels forwards to a live genai client.
type sdkModels struct {
	client *genai.Client
}

func (m sdkModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.client.Models.GenerateContent(ctx, model, contents, config)
}
