// Package main provides the aishell command: an interactive shell whose
// assistant turns natural-language instructions into shell commands.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Cyclone1070/aishell/internal/config"
	"github.com/Cyclone1070/aishell/internal/logging"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

type flags struct {
	configPath string
	provider   string
	model      string
	unattended bool
	limit      int
	debug      bool
}

// app carries what the root command's hooks hand to each other.
type app struct {
	deps   Dependencies
	flags  flags
	cfg    *config.Config
	logger *logging.Logger
}

func newRootCmd(deps Dependencies) *cobra.Command {
	_, cmd := newApp(deps)
	return cmd
}

func newApp(deps Dependencies) (*app, *cobra.Command) {
	a := &app{deps: deps}

	rootCmd := &cobra.Command{
		Use:   "aishell",
		Short: "An interactive shell with an AI assistant",
		Long: `aishell runs your commands like an ordinary shell. Press Ctrl-E while
editing a line to open the assistant menu: give it an instruction and it
proposes and runs commands until the task is done, or ask it a question
about the session.

Configuration is read from ~/.config/aishell/config.json, then from the
environment (GEMINI_API_KEY, OPENAI_API_KEY, AISHELL_PROVIDER, ...), then
from the flags below.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), a)
		},
	}

	f := rootCmd.PersistentFlags()
	f.StringVarP(&a.flags.configPath, "config", "c", "", "Config file (default ~/.config/aishell/config.json)")
	f.StringVarP(&a.flags.provider, "provider", "p", "", "Model provider: gemini, openai, azure or anthropic")
	f.StringVarP(&a.flags.model, "model", "m", "", "Model name (Azure: deployment name)")
	f.BoolVarP(&a.flags.unattended, "unattended", "u", false, "Run generated commands without asking for confirmation")
	f.IntVarP(&a.flags.limit, "limit", "l", 0, "Maximum commands per instruction, 0 for unlimited")
	f.BoolVarP(&a.flags.debug, "debug", "d", false, "Enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the aishell version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "aishell %s\n", version)
		},
	})

	rootCmd.SetIn(deps.Stdin)
	rootCmd.SetOut(deps.Stdout)
	rootCmd.SetErr(deps.Stderr)
	return a, rootCmd
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.NewLoader().WithPath(a.flags.configPath).Load()
	if err != nil {
		if a.flags.configPath != "" {
			return err
		}
		fmt.Fprintf(a.deps.Stderr, "Warning: failed to load config: %v\n", err)
		fmt.Fprintf(a.deps.Stderr, "Using default configuration.\n")
		cfg = config.DefaultConfig()
	}

	if err := applyFlags(cfg, cmd, a.flags); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if a.flags.debug {
		logger.SetDebug(true)
	}
	a.logger = logger.With(zap.String("session", uuid.NewString()))
	return nil
}

// applyFlags overrides cfg with the flags the user set explicitly.
func applyFlags(cfg *config.Config, cmd *cobra.Command, f flags) error {
	changed := cmd.Flags().Changed

	if changed("provider") {
		cfg.Provider.Name = f.provider
	}
	if changed("model") {
		if cfg.Provider.Name == config.ProviderAzure {
			cfg.Provider.AzureDeployment = f.model
		}
		cfg.Provider.Model = f.model
	}
	if changed("unattended") {
		cfg.Policy.Interactive = !f.unattended
	}
	if changed("limit") {
		cfg.Policy.ExecutionLimit = f.limit
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCmd(DefaultDependencies()).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
