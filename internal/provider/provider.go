// Package provider defines the language-model backend used to turn
// instructions into shell commands, plus the error taxonomy its
// implementations map SDK failures into.
package provider

import (
	"context"
	"strings"

	"github.com/Cyclone1070/aishell/internal/conversation"
)

// Backend sends one conversation to a language model and returns its reply.
// Transport, authentication and endpoint configuration are the backend's
// concern; callers treat it as a single request/response call.
type Backend interface {
	Generate(ctx context.Context, systemPrompt string, messages []conversation.Message) (string, error)

	// Name identifies the backend in logs and errors, e.g. "gemini/gemini-2.5-flash".
	Name() string
}

// Compact drops empty messages and merges adjacent messages with the same
// role. Several APIs reject empty turns or require alternating roles; the
// transcript's empty "control of the shell" turns carry no content for them.
func Compact(messages []conversation.Message) []conversation.Message {
	out := make([]conversation.Message, 0, len(messages))
	for _, msg := range messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == msg.Role {
			out[n-1].Content += "\n\n" + msg.Content
			continue
		}
		out = append(out, msg)
	}
	return out
}
