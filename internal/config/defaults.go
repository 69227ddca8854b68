package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile,
// then via environment variables.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Provider  ProviderConfig  `json:"provider"`
	Context   ContextConfig   `json:"context"`
	Generator GeneratorConfig `json:"generator"`
	Policy    PolicyConfig    `json:"policy"`
	Executor  ExecutorConfig  `json:"executor"`
	Shell     ShellConfig     `json:"shell"`
	Log       LogConfig       `json:"log"`
}

// Provider names.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"
)

// DefaultModels is the model used for each provider when none is configured.
var DefaultModels = map[string]string{
	ProviderGemini:    "gemini-2.5-flash",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-sonnet-4-5",
}

type ProviderConfig struct {
	Name  string `json:"name" env:"AISHELL_PROVIDER"` // Default: "gemini"
	Model string `json:"model" env:"AISHELL_MODEL"`   // Default: per provider, see DefaultModels

	GeminiAPIKey    string `json:"gemini_api_key" env:"GEMINI_API_KEY"`
	OpenAIAPIKey    string `json:"openai_api_key" env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `json:"anthropic_api_key" env:"ANTHROPIC_API_KEY"`

	// Azure OpenAI
	AzureAPIKey     string `json:"azure_api_key" env:"AZURE_OPENAI_API_KEY"`
	AzureEndpoint   string `json:"azure_endpoint" env:"AZURE_OPENAI_ENDPOINT"`
	AzureDeployment string `json:"azure_deployment" env:"AZURE_OPENAI_DEPLOYMENT_NAME"`
	AzureAPIVersion string `json:"azure_api_version" env:"AZURE_OPENAI_API_VERSION"` // Default: "2024-06-01"

	TimeoutSeconds int `json:"timeout_seconds" env:"AISHELL_TIMEOUT_SECONDS"` // Default: 60
	MaxTokens      int `json:"max_tokens"`                                    // Default: 1024
}

type ContextConfig struct {
	MaxBytes int `json:"max_bytes" env:"AISHELL_CONTEXT_MAX_BYTES"` // Default: 300000
}

type GeneratorConfig struct {
	MaxAttempts int `json:"max_attempts"` // Default: 3
}

type PolicyConfig struct {
	Interactive       bool     `json:"interactive"`                         // Default: true
	ExecutionLimit    int      `json:"execution_limit" env:"AISHELL_LIMIT"` // Default: 0 (unlimited)
	PrivilegedMarkers []string `json:"privileged_markers"`                  // Added to sudo, doas, pkexec
}

type ExecutorConfig struct {
	Shell              []string `json:"shell"`                // Default: ["/bin/sh", "-c"]
	MaxOutputBytes     int      `json:"max_output_bytes"`     // Default: 1MB per stream
	GracefulShutdownMs int      `json:"graceful_shutdown_ms"` // Default: 2000
}

type ShellConfig struct {
	HistoryFile   string `json:"history_file" env:"AISHELL_HISTORY_FILE"` // Default: "~/.aishell_history"
	HistoryLimit  int    `json:"history_limit"`                           // Default: 1000
	MaxInterrupts int    `json:"max_interrupts"`                          // Default: 3
}

type LogConfig struct {
	Level string `json:"level" env:"AISHELL_LOG_LEVEL"` // Default: "warn"
	File  string `json:"file" env:"AISHELL_LOG_FILE"`   // Default: "" (stderr)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:            ProviderGemini,
			AzureAPIVersion: "2024-06-01",
			TimeoutSeconds:  60,
			MaxTokens:       1024,
		},
		Context: ContextConfig{
			MaxBytes: 300000,
		},
		Generator: GeneratorConfig{
			MaxAttempts: 3,
		},
		Policy: PolicyConfig{
			Interactive:    true,
			ExecutionLimit: 0,
		},
		Executor: ExecutorConfig{
			Shell:              []string{"/bin/sh", "-c"},
			MaxOutputBytes:     1 << 20,
			GracefulShutdownMs: 2000,
		},
		Shell: ShellConfig{
			HistoryFile:   "~/.aishell_history",
			HistoryLimit:  1000,
			MaxInterrupts: 3,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// ModelName returns the configured model, falling back to the provider default.
// For Azure the deployment name is the model.
func (c *Config) ModelName() string {
	if c.Provider.Name == ProviderAzure {
		if c.Provider.AzureDeployment != "" {
			return c.Provider.AzureDeployment
		}
		return c.Provider.Model
	}
	if c.Provider.Model != "" {
		return c.Provider.Model
	}
	return DefaultModels[c.Provider.Name]
}
