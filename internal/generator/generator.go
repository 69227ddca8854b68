// Package generator turns an instruction plus the session transcript into a
// single shell command proposed by a language model.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Cyclone1070/aishell/internal/conversation"
	"github.com/Cyclone1070/aishell/internal/policy"
	"github.com/Cyclone1070/aishell/internal/provider"
	"go.uber.org/zap"
)

const (
	// DefaultMaxAttempts is the number of backend calls made for one command.
	DefaultMaxAttempts = 3
	// DefaultTimeout bounds a single backend call.
	DefaultTimeout = 60 * time.Second
)

// ParseError is returned when no attempt produced a usable reply.
type ParseError struct {
	Raw      string // last raw reply
	Attempts int
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse model reply after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Options configures a Generator.
type Options struct {
	MaxAttempts int
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Generator asks a backend for commands and answers.
type Generator struct {
	backend     provider.Backend
	maxAttempts int
	timeout     time.Duration
	logger      *zap.Logger
}

// New creates a Generator. Zero options fall back to the defaults.
func New(backend provider.Backend, opts Options) *Generator {
	if backend == nil {
		panic("backend is required")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Generator{
		backend:     backend,
		maxAttempts: opts.MaxAttempts,
		timeout:     opts.Timeout,
		logger:      opts.Logger,
	}
}

// Generate proposes the next command for instruction. A malformed reply is
// retried with a corrective message; backend errors are returned at once.
func (g *Generator) Generate(ctx context.Context, instruction string, history []conversation.Message, p policy.ExecutionPolicy, sysInfo string) (Candidate, error) {
	messages := withInstruction(history, instruction)
	system := CommandPrompt(p, sysInfo)

	g.logger.Debug("generating command",
		zap.String("instruction", instruction),
		zap.Int("messages", len(messages)),
		zap.Int("remaining", p.Remaining()))

	var lastRaw string
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		raw, err := g.call(ctx, system, messages)
		if err != nil {
			return Candidate{}, fmt.Errorf("generate command: %w", err)
		}
		g.logger.Debug("model reply", zap.Int("attempt", attempt), zap.String("raw", raw))

		candidate, err := Parse(raw)
		if err == nil {
			return candidate, nil
		}

		lastRaw, lastErr = raw, err
		g.logger.Debug("unusable reply", zap.Int("attempt", attempt), zap.Error(err))
		messages = append(messages, conversation.Message{Role: conversation.RoleSystem, Content: retryMessage})
	}

	return Candidate{}, &ParseError{Raw: lastRaw, Attempts: g.maxAttempts, Err: lastErr}
}

// Answer replies in plain text to a question about the session.
func (g *Generator) Answer(ctx context.Context, question string, history []conversation.Message) (string, error) {
	messages := make([]conversation.Message, len(history), len(history)+1)
	copy(messages, history)
	messages = append(messages, conversation.Message{
		Role:    conversation.RoleUser,
		Content: fmt.Sprintf(questionFraming, question),
	})

	g.logger.Debug("answering question", zap.String("question", question), zap.Int("messages", len(messages)))
	answer, err := g.call(ctx, QuestionPrompt(), messages)
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	return answer, nil
}

func (g *Generator) call(ctx context.Context, system string, messages []conversation.Message) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.backend.Generate(callCtx, system, messages)
	if err == nil {
		return raw, nil
	}
	if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, provider.ErrTimeout) {
		return "", &provider.ProviderError{
			Provider:   g.backend.Name(),
			Code:       provider.ErrorCodeTimeout,
			Message:    fmt.Sprintf("no reply within %s", g.timeout),
			Underlying: err,
			Retryable:  true,
		}
	}
	return "", err
}

// withInstruction returns a copy of history ending with the instruction turn.
func withInstruction(history []conversation.Message, instruction string) []conversation.Message {
	turn := conversation.InstructionMessage(instruction)
	messages := make([]conversation.Message, len(history), len(history)+1+DefaultMaxAttempts)
	copy(messages, history)
	if n := len(messages); n > 0 && messages[n-1] == turn {
		return messages
	}
	return append(messages, turn)
}
