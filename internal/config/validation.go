package config

import (
	"fmt"
	"strings"
)

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Provider validation
	switch c.Provider.Name {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	case ProviderAzure:
		if c.Provider.AzureEndpoint == "" {
			errs = append(errs, "provider.azure_endpoint is required for azure")
		}
		if c.ModelName() == "" {
			errs = append(errs, "provider.azure_deployment is required for azure")
		}
	default:
		errs = append(errs, fmt.Sprintf("provider.name must be one of gemini, openai, azure, anthropic (got %q)", c.Provider.Name))
	}
	if c.Provider.TimeoutSeconds < 1 {
		errs = append(errs, "provider.timeout_seconds must be >= 1")
	}
	if c.Provider.MaxTokens < 0 {
		errs = append(errs, "provider.max_tokens must be >= 0")
	}

	// Context and generator validation
	if c.Context.MaxBytes < 1 {
		errs = append(errs, "context.max_bytes must be >= 1")
	}
	if c.Generator.MaxAttempts < 1 {
		errs = append(errs, "generator.max_attempts must be >= 1")
	}

	// Policy validation
	if c.Policy.ExecutionLimit < 0 {
		errs = append(errs, "policy.execution_limit must be >= 0")
	}
	for _, m := range c.Policy.PrivilegedMarkers {
		if strings.TrimSpace(m) == "" {
			errs = append(errs, "policy.privileged_markers must not contain empty entries")
			break
		}
	}

	// Executor validation
	if len(c.Executor.Shell) == 0 || strings.TrimSpace(c.Executor.Shell[0]) == "" {
		errs = append(errs, "executor.shell must name an interpreter")
	}
	if c.Executor.MaxOutputBytes < 1 {
		errs = append(errs, "executor.max_output_bytes must be >= 1")
	}
	if c.Executor.GracefulShutdownMs < 1 {
		errs = append(errs, "executor.graceful_shutdown_ms must be >= 1")
	}

	// Shell validation
	if c.Shell.HistoryLimit < 0 {
		errs = append(errs, "shell.history_limit must be >= 0")
	}
	if c.Shell.MaxInterrupts < 1 {
		errs = append(errs, "shell.max_interrupts must be >= 1")
	}

	// Log validation
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be one of debug, info, warn, error (got %q)", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
