package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/Cyclone1070/aishell/internal/config"
	"github.com/Cyclone1070/aishell/internal/provider"
	"github.com/Cyclone1070/aishell/internal/provider/anthropic"
	"github.com/Cyclone1070/aishell/internal/provider/gemini"
	"github.com/Cyclone1070/aishell/internal/provider/openai"
)

// BackendFactory builds the model backend named by the configuration.
type BackendFactory func(ctx context.Context, cfg *config.Config) (provider.Backend, error)

// Dependencies holds the components required to run the application.
type Dependencies struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// IsTerminal reports whether Stdin and Stdout are an interactive terminal.
	IsTerminal func() bool
	// TerminalWidth returns the output width in columns, or 0 if unknown.
	TerminalWidth func() int

	NewBackend BackendFactory
}

// DefaultDependencies wires the process streams and the real backends.
func DefaultDependencies() Dependencies {
	return Dependencies{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		IsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		},
		TerminalWidth: func() int {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				return 0
			}
			return w
		},
		NewBackend: createRealBackend,
	}
}

func createRealBackend(ctx context.Context, cfg *config.Config) (provider.Backend, error) {
	p := cfg.Provider
	model := cfg.ModelName()

	switch p.Name {
	case config.ProviderGemini:
		return backendOrError(gemini.NewFromAPIKey(ctx, p.GeminiAPIKey, model, p.MaxTokens))
	case config.ProviderOpenAI:
		return backendOrError(openai.NewFromOptions(openai.Options{
			APIKey:    p.OpenAIAPIKey,
			Model:     model,
			MaxTokens: p.MaxTokens,
		}))
	case config.ProviderAzure:
		return backendOrError(openai.NewFromOptions(openai.Options{
			APIKey:          p.AzureAPIKey,
			Model:           model,
			MaxTokens:       p.MaxTokens,
			AzureEndpoint:   p.AzureEndpoint,
			AzureAPIVersion: p.AzureAPIVersion,
		}))
	case config.ProviderAnthropic:
		return backendOrError(anthropic.NewFromAPIKey(p.AnthropicAPIKey, model, p.MaxTokens))
	default:
		return nil, fmt.Errorf("unknown provider %q", p.Name)
	}
}

// backendOrError keeps a nil concrete pointer from becoming a non-nil interface.
func backendOrError[B provider.Backend](b B, err error) (provider.Backend, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}
