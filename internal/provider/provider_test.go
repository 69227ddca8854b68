package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Cyclone1070/aishell/internal/conversation"
	"github.com/stretchr/testify/assert"
)

func TestCompact(t *testing.T) {
	in := []conversation.Message{
		{Role: conversation.RoleUser, Content: ""},
		{Role: conversation.RoleAssistant, Content: `{"input":"ls"}`},
		{Role: conversation.RoleUser, Content: "aishell command: a"},
		{Role: conversation.RoleUser, Content: "more"},
		{Role: conversation.RoleAssistant, Content: "  \n"},
		{Role: conversation.RoleAssistant, Content: "reply"},
	}

	out := Compact(in)

	assert.Equal(t, []conversation.Message{
		{Role: conversation.RoleAssistant, Content: `{"input":"ls"}`},
		{Role: conversation.RoleUser, Content: "aishell command: a\n\nmore"},
		{Role: conversation.RoleAssistant, Content: "reply"},
	}, out)
	assert.Equal(t, "", in[0].Content, "input must not be modified")
	assert.Equal(t, "more", in[3].Content)
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status    int
		sentinel  error
		retryable bool
	}{
		{401, ErrAuthentication, false},
		{403, ErrAuthentication, false},
		{404, ErrInvalidModel, false},
		{408, ErrTimeout, true},
		{429, ErrRateLimit, true},
		{503, ErrServiceUnavailable, true},
		{400, ErrInvalidRequest, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			underlying := errors.New("boom")
			err := FromStatus("test", tt.status, underlying)

			assert.ErrorIs(t, err, tt.sentinel)
			assert.ErrorIs(t, err, underlying)
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestFromContext(t *testing.T) {
	assert.ErrorIs(t, FromContext("x", fmt.Errorf("wrapped: %w", context.DeadlineExceeded)), ErrTimeout)
	assert.ErrorIs(t, FromContext("x", context.Canceled), context.Canceled)
	assert.Nil(t, FromContext("x", errors.New("other")))
}

func TestProviderError_IsOnlyMatchesOwnCode(t *testing.T) {
	err := &ProviderError{Provider: "p", Code: ErrorCodeRateLimit, Message: "m"}

	assert.ErrorIs(t, err, ErrRateLimit)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "p: rate_limit: m", err.Error())
}
