package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Cyclone1070/aishell/internal/config"
	"github.com/Cyclone1070/aishell/internal/conversation"
	"github.com/Cyclone1070/aishell/internal/executor"
	"github.com/Cyclone1070/aishell/internal/generator"
	"github.com/Cyclone1070/aishell/internal/policy"
	"github.com/Cyclone1070/aishell/internal/shell"
	"github.com/Cyclone1070/aishell/internal/ui"
)

const welcome = "Welcome to AIShell. Press Ctrl-E for the assistant menu, type 'exit' to quit."

// runShell assembles the session from the loaded configuration and runs it
// until the user exits.
func runShell(ctx context.Context, a *app) error {
	cfg := a.cfg
	tty := a.deps.IsTerminal != nil && a.deps.IsTerminal()

	width := 0
	if a.deps.TerminalWidth != nil {
		width = a.deps.TerminalWidth()
	}

	opts := ui.Options{
		In:           a.deps.Stdin,
		Out:          a.deps.Stdout,
		ErrOut:       a.deps.Stderr,
		TTY:          tty,
		HistoryLimit: cfg.Shell.HistoryLimit,
		Width:        width,
	}
	if tty && cfg.Shell.HistoryFile != "" {
		opts.HistoryFile = config.ExpandHome(cfg.Shell.HistoryFile)
	}
	terminal, err := ui.New(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer terminal.Close()

	backend, err := a.deps.NewBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create %s backend: %w", cfg.Provider.Name, err)
	}
	a.logger.Info("backend ready", zap.String("backend", backend.Name()), zap.Bool("tty", tty))

	gen := generator.New(backend, generator.Options{
		MaxAttempts: cfg.Generator.MaxAttempts,
		Timeout:     time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		Logger:      a.logger.Logger,
	})

	runner := executor.NewRunner(executor.Options{
		Shell:          cfg.Executor.Shell,
		MaxOutputBytes: cfg.Executor.MaxOutputBytes,
		GracePeriod:    time.Duration(cfg.Executor.GracefulShutdownMs) * time.Millisecond,
		Stdout:         terminal.Stdout(),
		Stderr:         terminal.Stderr(),
		Logger:         a.logger.Logger,
	})

	session := shell.New(shell.Options{
		Terminal:   terminal,
		Generator:  gen,
		Gate:       policy.NewGate(cfg.Policy.PrivilegedMarkers...),
		Runner:     runner,
		Transcript: conversation.NewStore(cfg.Context.MaxBytes),
		Policy: policy.ExecutionPolicy{
			Interactive: cfg.Policy.Interactive,
			Limit:       cfg.Policy.ExecutionLimit,
		},
		Logger:        a.logger,
		MaxInterrupts: cfg.Shell.MaxInterrupts,
	})

	terminal.Println(welcome)
	return session.Run(ctx)
}
