package config

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigPath = "/home/user/.config/aishell/config.json"

// MockFileSystem implements FileSystem for testing.
type MockFileSystem struct {
	HomeDir     string
	HomeDirErr  error
	Files       map[string][]byte
	ReadFileErr error
}

func (m *MockFileSystem) UserHomeDir() (string, error) {
	return m.HomeDir, m.HomeDirErr
}

func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileErr != nil {
		return nil, m.ReadFileErr
	}
	data, ok := m.Files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func fsWithConfig(configJSON string) *MockFileSystem {
	return &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			testConfigPath: []byte(configJSON),
		},
	}
}

// --- HAPPY PATH TESTS ---

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files:   map[string][]byte{},
	}
	loader := NewLoaderWithFS(fs, nil)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "gemini-2.5-flash", cfg.ModelName())
}

func TestLoad_FullOverride_AllValuesReplaced(t *testing.T) {
	configJSON := `{
		"provider": {"name": "openai", "model": "gpt-4o", "timeout_seconds": 30, "max_tokens": 2048},
		"context": {"max_bytes": 50000},
		"generator": {"max_attempts": 5},
		"policy": {"interactive": false, "execution_limit": 7, "privileged_markers": ["su"]},
		"executor": {"shell": ["/bin/bash", "-c"], "max_output_bytes": 4096, "graceful_shutdown_ms": 500},
		"shell": {"history_file": "/tmp/hist", "history_limit": 10, "max_interrupts": 5},
		"log": {"level": "debug", "file": "/tmp/aishell.log"}
	}`
	loader := NewLoaderWithFS(fsWithConfig(configJSON), nil)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Provider.Name)
	assert.Equal(t, "gpt-4o", cfg.ModelName())
	assert.Equal(t, 30, cfg.Provider.TimeoutSeconds)
	assert.Equal(t, 2048, cfg.Provider.MaxTokens)
	assert.Equal(t, 50000, cfg.Context.MaxBytes)
	assert.Equal(t, 5, cfg.Generator.MaxAttempts)
	assert.False(t, cfg.Policy.Interactive)
	assert.Equal(t, 7, cfg.Policy.ExecutionLimit)
	assert.Equal(t, []string{"su"}, cfg.Policy.PrivilegedMarkers)
	assert.Equal(t, []string{"/bin/bash", "-c"}, cfg.Executor.Shell)
	assert.Equal(t, 4096, cfg.Executor.MaxOutputBytes)
	assert.Equal(t, 500, cfg.Executor.GracefulShutdownMs)
	assert.Equal(t, "/tmp/hist", cfg.Shell.HistoryFile)
	assert.Equal(t, 10, cfg.Shell.HistoryLimit)
	assert.Equal(t, 5, cfg.Shell.MaxInterrupts)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/aishell.log", cfg.Log.File)
}

func TestLoad_PartialOverride_MergesWithDefaults(t *testing.T) {
	loader := NewLoaderWithFS(fsWithConfig(`{"context": {"max_bytes": 1000}}`), nil)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Context.MaxBytes)                    // Overridden
	assert.Equal(t, ProviderGemini, cfg.Provider.Name)             // Default
	assert.True(t, cfg.Policy.Interactive)                         // Default
	assert.Equal(t, []string{"/bin/sh", "-c"}, cfg.Executor.Shell) // Default
	assert.Equal(t, "~/.aishell_history", cfg.Shell.HistoryFile)   // Default
	assert.Equal(t, DefaultConfig().Provider.AzureAPIVersion, cfg.Provider.AzureAPIVersion)
}

func TestLoad_NestedPartialOverride_OnlySpecifiedFieldsChange(t *testing.T) {
	loader := NewLoaderWithFS(fsWithConfig(`{"executor": {"graceful_shutdown_ms": 100}}`), nil)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Executor.GracefulShutdownMs) // Overridden
	assert.Equal(t, 1<<20, cfg.Executor.MaxOutputBytes)   // Default preserved
}

func TestLoad_ExplicitPath(t *testing.T) {
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			testConfigPath:      []byte(`{"context": {"max_bytes": 1}}`),
			"/etc/aishell.json": []byte(`{"context": {"max_bytes": 2}}`),
		},
	}

	cfg, err := NewLoaderWithFS(fs, nil).WithPath("/etc/aishell.json").Load()

	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Context.MaxBytes)
}

func TestLoad_ExplicitPathMissing_ReturnsError(t *testing.T) {
	fs := &MockFileSystem{HomeDir: "/home/user", Files: map[string][]byte{}}

	cfg, err := NewLoaderWithFS(fs, nil).WithPath("/nope.json").Load()

	assert.Nil(t, cfg)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

// --- ENVIRONMENT TESTS ---

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	environ := []string{
		"AISHELL_PROVIDER=anthropic",
		"AISHELL_MODEL=claude-test",
		"ANTHROPIC_API_KEY=secret",
		"AISHELL_LIMIT=4",
		"AISHELL_LOG_LEVEL=info",
		"UNRELATED=1",
	}
	loader := NewLoaderWithFS(fsWithConfig(`{"provider": {"name": "openai"}, "policy": {"execution_limit": 9}}`), environ)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.Provider.Name)
	assert.Equal(t, "claude-test", cfg.ModelName())
	assert.Equal(t, "secret", cfg.Provider.AnthropicAPIKey)
	assert.Equal(t, 4, cfg.Policy.ExecutionLimit)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_AzureFromEnvironment(t *testing.T) {
	environ := []string{
		"AISHELL_PROVIDER=azure",
		"AZURE_OPENAI_API_KEY=k",
		"AZURE_OPENAI_ENDPOINT=https://example.openai.azure.com",
		"AZURE_OPENAI_DEPLOYMENT_NAME=my-deployment",
	}
	fs := &MockFileSystem{HomeDir: "/home/user", Files: map[string][]byte{}}

	cfg, err := NewLoaderWithFS(fs, environ).Load()

	require.NoError(t, err)
	assert.Equal(t, "my-deployment", cfg.ModelName())
	assert.Equal(t, "2024-06-01", cfg.Provider.AzureAPIVersion)
}

func TestLoad_MalformedEnvironmentValue_ReturnsError(t *testing.T) {
	fs := &MockFileSystem{HomeDir: "/home/user", Files: map[string][]byte{}}

	cfg, err := NewLoaderWithFS(fs, []string{"AISHELL_LIMIT=lots"}).Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "environment")
}

// --- UNHAPPY PATH TESTS ---

func TestLoad_MalformedJSON_ReturnsError(t *testing.T) {
	loader := NewLoaderWithFS(fsWithConfig(`{invalid json`), nil)

	cfg, err := loader.Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid")
}

func TestLoad_PermissionDenied_ReturnsError(t *testing.T) {
	fs := &MockFileSystem{
		HomeDir:     "/home/user",
		ReadFileErr: os.ErrPermission,
	}
	loader := NewLoaderWithFS(fs, nil)

	cfg, err := loader.Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.True(t, errors.Is(err, os.ErrPermission))
}

func TestLoad_HomeDirError_ReturnsDefaults(t *testing.T) {
	fs := &MockFileSystem{
		HomeDirErr: errors.New("homeless"),
	}
	loader := NewLoaderWithFS(fs, nil)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Context.MaxBytes, cfg.Context.MaxBytes)
}

func TestLoad_WrongJSONType_ReturnsError(t *testing.T) {
	loader := NewLoaderWithFS(fsWithConfig(`["not", "an", "object"]`), nil)

	cfg, err := loader.Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
}

// --- EDGE CASE TESTS ---

func TestLoad_ZeroLimitExplicit_MeansUnlimited(t *testing.T) {
	loader := NewLoaderWithFS(fsWithConfig(`{"policy": {"execution_limit": 0, "interactive": false}}`), nil)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Policy.ExecutionLimit)
	assert.False(t, cfg.Policy.Interactive) // Explicit false overrides the true default
}

func TestLoad_EmptyShell_Rejected(t *testing.T) {
	loader := NewLoaderWithFS(fsWithConfig(`{"executor": {"shell": []}}`), nil)

	cfg, err := loader.Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_NegativeValues_Rejected(t *testing.T) {
	loader := NewLoaderWithFS(fsWithConfig(`{"policy": {"execution_limit": -1}}`), nil)

	cfg, err := loader.Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "execution_limit")
}

func TestLoad_UnknownFields_Ignored(t *testing.T) {
	loader := NewLoaderWithFS(fsWithConfig(`{"context": {"max_bytes": 100}, "unknown_field": "ignored"}`), nil)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Context.MaxBytes)
}

// --- DEFAULT CONFIG TESTS ---

func TestDefaultConfig_AllFieldsInitialized(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotEmpty(t, cfg.Executor.Shell)
	assert.True(t, cfg.Policy.Interactive)
	assert.Equal(t, 0, cfg.Policy.ExecutionLimit)
	assert.Greater(t, cfg.Context.MaxBytes, 0)
	assert.Equal(t, 3, cfg.Generator.MaxAttempts)
	assert.Greater(t, cfg.Shell.MaxInterrupts, 0)
}

func TestModelName(t *testing.T) {
	cfg := DefaultConfig()
	for provider, model := range DefaultModels {
		cfg.Provider.Name = provider
		assert.Equal(t, model, cfg.ModelName(), provider)
	}

	cfg.Provider.Name = ProviderAzure
	cfg.Provider.Model = "fallback"
	assert.Equal(t, "fallback", cfg.ModelName())
	cfg.Provider.AzureDeployment = "deployment"
	assert.Equal(t, "deployment", cfg.ModelName())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, home+"/.aishell_history", ExpandHome("~/.aishell_history"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}
