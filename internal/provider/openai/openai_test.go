package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Cyclone1070/aishell/internal/conversation"
	"github.com/Cyclone1070/aishell/internal/provider"
	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChatClient struct {
	NewFunc func(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
}

func (m *mockChatClient) New(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error) {
	if m.NewFunc != nil {
		return m.NewFunc(ctx, body, opts...)
	}
	return nil, errors.New("NewFunc not set")
}

func completion(content, finish string) *sdk.ChatCompletion {
	return &sdk.ChatCompletion{
		Choices: []sdk.ChatCompletionChoice{
			{FinishReason: finish, Message: sdk.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestGenerate_BuildsChatRequest(t *testing.T) {
	var got sdk.ChatCompletionNewParams
	mock := &mockChatClient{
		NewFunc: func(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error) {
			got = body
			return completion(" {\"bash\": \"pwd\"}\n", "stop"), nil
		},
	}

	b := New(mock, "azure", "gpt-4o", 100)
	out, err := b.Generate(context.Background(), "system prompt", []conversation.Message{
		{Role: conversation.RoleUser, Content: ""},
		{Role: conversation.RoleAssistant, Content: `{"input":"ls","stdout":"","stderr":""}`},
		conversation.InstructionMessage("where am i"),
		{Role: conversation.RoleSystem, Content: "correction"},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"bash": "pwd"}`, out)
	assert.Equal(t, "azure/gpt-4o", b.Name())
	assert.Equal(t, sdk.ChatModel("gpt-4o"), got.Model)
	assert.Equal(t, int64(100), got.MaxCompletionTokens.Value)

	require.Len(t, got.Messages, 4)
	assert.NotNil(t, got.Messages[0].OfSystem)
	assert.NotNil(t, got.Messages[1].OfAssistant)
	require.NotNil(t, got.Messages[2].OfUser)
	assert.Equal(t, conversation.InstructionPrefix+"where am i", got.Messages[2].OfUser.Content.OfString.Value)
	assert.NotNil(t, got.Messages[3].OfSystem)
}

func TestGenerate_ResponseErrors(t *testing.T) {
	tests := []struct {
		name     string
		resp     *sdk.ChatCompletion
		sentinel error
	}{
		{"no choices", &sdk.ChatCompletion{}, provider.ErrEmptyResponse},
		{"blank content", completion("  ", "stop"), provider.ErrEmptyResponse},
		{"filtered", completion("", "content_filter"), provider.ErrContentBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockChatClient{
				NewFunc: func(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error) {
					return tt.resp, nil
				},
			}
			_, err := New(mock, "openai", "m", 0).Generate(context.Background(), "", nil)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestGenerate_MapsTransportErrors(t *testing.T) {
	apiErr := &sdk.Error{
		StatusCode: http.StatusTooManyRequests,
		Request:    httptest.NewRequest(http.MethodPost, "/chat/completions", nil),
		Response:   &http.Response{StatusCode: http.StatusTooManyRequests},
	}

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"api status", apiErr, provider.ErrRateLimit},
		{"deadline", context.DeadlineExceeded, provider.ErrTimeout},
		{"dial failure", errors.New("dial tcp: refused"), provider.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockChatClient{
				NewFunc: func(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error) {
					return nil, tt.err
				},
			}
			_, err := New(mock, "openai", "m", 0).Generate(context.Background(), "", nil)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestNewFromOptions(t *testing.T) {
	_, err := NewFromOptions(Options{Model: "m"})
	assert.ErrorIs(t, err, provider.ErrAuthentication)

	_, err = NewFromOptions(Options{APIKey: "k"})
	assert.ErrorIs(t, err, provider.ErrInvalidModel)

	b, err := NewFromOptions(Options{APIKey: "k", Model: "deploy", AzureEndpoint: "https://example.openai.azure.com", AzureAPIVersion: "2024-06-01"})
	require.NoError(t, err)
	assert.Equal(t, "azure/deploy", b.Name())

	b, err = NewFromOptions(Options{APIKey: "k", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", b.Name())
}
