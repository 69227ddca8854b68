// Package shell is the interactive session: it reads command lines, runs
// them, records them for the model, and dispatches the assistant menu.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Cyclone1070/aishell/internal/conversation"
	"github.com/Cyclone1070/aishell/internal/executor"
	"github.com/Cyclone1070/aishell/internal/generator"
	"github.com/Cyclone1070/aishell/internal/logging"
	"github.com/Cyclone1070/aishell/internal/orchestrator"
	"github.com/Cyclone1070/aishell/internal/policy"
	"github.com/Cyclone1070/aishell/internal/ui"
)

// Messages printed by the session.
const (
	MsgExiting        = "Exiting AIShell..."
	MsgNoInstruction  = "No instruction provided. Returning to interactive shell."
	MsgNoQuestion     = "No question provided."
	MsgStopped        = "Execution stopped and switched to interactive mode."
	MsgInvalidLimit   = "Invalid input. Please enter a number."
	MsgInterrupted    = "Command interrupted"
	MsgThinking       = "Thinking..."
	PromptInstruction = "Enter instruction: "
	PromptQuestion    = "Enter question: "
	PromptLimit       = "Enter new execution limit (0 for unlimited): "
)

// DefaultInterrupts is how many interrupts in a row end the session.
const DefaultInterrupts = 3

// Terminal is the user interface the session drives.
type Terminal interface {
	ReadCommand(prompt string) (ui.Input, error)
	ReadLine(prompt string) (string, error)
	Menu() (ui.MenuAction, error)
	Confirm(ctx context.Context, command string) (bool, error)
	Busy(message string) (done func())
	ShowCommand(command string, running bool)
	ShowNote(note string)
	ShowStatus(message string)
	ShowError(err error)
	ShowAnswer(answer string)
	ShowHelp()
	Println(message string)
	Stderr() io.Writer
}

// Generator proposes commands and answers questions.
type Generator interface {
	Generate(ctx context.Context, instruction string, history []conversation.Message, p policy.ExecutionPolicy, sysInfo string) (generator.Candidate, error)
	Answer(ctx context.Context, question string, history []conversation.Message) (string, error)
}

// Gate decides whether a model command may run.
type Gate interface {
	ShouldRun(command string, p policy.ExecutionPolicy) policy.Decision
}

// Runner executes commands through the interpreter.
type Runner interface {
	Run(ctx context.Context, command string) (executor.Result, error)
	Cancel() bool
}

// Transcript is the conversation shared with the model.
type Transcript interface {
	AppendInstruction(instruction string)
	Append(msg conversation.Message)
	AppendCommand(input, stdout, stderr string, fromModel bool)
	Snapshot(forQuestion bool) []conversation.Message
}

// Options configures a Session.
type Options struct {
	Terminal   Terminal
	Generator  Generator
	Gate       Gate
	Runner     Runner
	Transcript Transcript
	Policy     policy.ExecutionPolicy
	Logger     *logging.Logger

	// MaxInterrupts is how many consecutive Ctrl-C/Ctrl-D presses on an
	// empty line end the session.
	MaxInterrupts int

	// SystemInfo describes the host to the model. Defaults to SystemInfo.
	SystemInfo func() string
}

// Session is one interactive shell.
type Session struct {
	term       Terminal
	generator  Generator
	runner     Runner
	transcript Transcript
	loop       *orchestrator.Loop
	policy     *policy.ExecutionPolicy
	logger     *logging.Logger

	maxInterrupts int
	interrupts    int
	previousDir   string

	mu                sync.Mutex
	cancelInstruction context.CancelFunc
}

// New creates a Session and the instruction loop it drives.
func New(opts Options) *Session {
	if opts.Terminal == nil || opts.Generator == nil || opts.Gate == nil || opts.Runner == nil || opts.Transcript == nil {
		panic("shell: nil dependency")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.MaxInterrupts <= 0 {
		opts.MaxInterrupts = DefaultInterrupts
	}
	if opts.SystemInfo == nil {
		opts.SystemInfo = SystemInfo
	}

	p := opts.Policy
	s := &Session{
		term:          opts.Terminal,
		generator:     opts.Generator,
		runner:        opts.Runner,
		transcript:    opts.Transcript,
		policy:        &p,
		logger:        opts.Logger,
		maxInterrupts: opts.MaxInterrupts,
	}
	s.loop = orchestrator.NewLoop(opts.Generator, opts.Gate, s, opts.Transcript, opts.Terminal, s.policy, opts.SystemInfo, opts.Logger.Logger)
	return s
}

// Policy returns a copy of the current execution policy.
func (s *Session) Policy() policy.ExecutionPolicy {
	return *s.policy
}

// Run reads and executes lines until the user exits or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	stop := s.watchInterrupts()
	defer stop()

	for ctx.Err() == nil {
		in, err := s.term.ReadCommand(s.prompt())
		if err != nil {
			if errors.Is(err, ui.ErrInterrupt) || errors.Is(err, io.EOF) {
				if s.countInterrupt() {
					return nil
				}
				continue
			}
			return fmt.Errorf("read command: %w", err)
		}

		if in.Menu {
			s.menu(ctx)
			continue
		}

		line := strings.TrimSpace(in.Line)
		switch line {
		case "":
			continue
		case "exit":
			s.term.Println(MsgExiting)
			return nil
		}
		s.runUserCommand(ctx, line)
	}
	return nil
}

// Execute runs a command for the user or the model, records it in the
// transcript and tracks simple directory changes.
func (s *Session) Execute(ctx context.Context, command string, fromModel bool) (executor.Result, error) {
	s.interrupts = 0

	if target, ok := parseCd(command); ok {
		result := s.changeDir(target)
		s.transcript.AppendCommand(command, result.Stdout, result.Stderr, fromModel)
		return result, nil
	}

	result, err := s.runner.Run(ctx, command)
	if err != nil {
		return result, err
	}
	s.transcript.AppendCommand(command, result.Stdout, result.Stderr, fromModel)
	s.logger.Debug("command finished",
		zap.String("command", command),
		zap.Bool("from_model", fromModel),
		zap.Int("exit_code", result.ExitCode))
	return result, nil
}

// RunInstruction hands an instruction to the loop. An interrupt cancels it.
func (s *Session) RunInstruction(ctx context.Context, instruction string) orchestrator.Outcome {
	ictx, release := s.interruptible(ctx)
	defer release()

	outcome := s.loop.Run(ictx, instruction)
	s.logger.Info("instruction finished",
		zap.Stringer("status", outcome.Status),
		zap.Int("executed", outcome.Executed),
		zap.Error(outcome.Err))
	return outcome
}

// interruptible derives a context that Interrupt cancels until release is called.
func (s *Session) interruptible(ctx context.Context) (context.Context, func()) {
	ictx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelInstruction = cancel
	s.mu.Unlock()
	return ictx, func() {
		s.mu.Lock()
		s.cancelInstruction = nil
		s.mu.Unlock()
		cancel()
	}
}

// Interrupt cancels the running instruction, or else the running command.
func (s *Session) Interrupt() {
	s.mu.Lock()
	cancel := s.cancelInstruction
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		return
	}
	if s.runner.Cancel() {
		s.logger.Debug("command cancelled by interrupt")
	}
}

func (s *Session) runUserCommand(ctx context.Context, line string) {
	result, err := s.Execute(ctx, line, false)
	if err != nil {
		s.term.ShowError(err)
		return
	}
	if result.Cancelled {
		s.term.ShowStatus(MsgInterrupted)
	}
}

func (s *Session) changeDir(target string) executor.Result {
	dir, err := resolveDir(target, s.previousDir)
	if err == nil {
		var cwd string
		cwd, err = os.Getwd()
		if err == nil {
			err = os.Chdir(dir)
			if err == nil {
				s.previousDir = cwd
				return executor.Result{}
			}
		}
	}

	msg := "cd: " + err.Error()
	switch {
	case errors.Is(err, os.ErrNotExist):
		msg = "Directory not found: " + target
	case isNotDir(dir):
		msg = "Not a directory: " + target
	}
	fmt.Fprintln(s.term.Stderr(), msg)
	return executor.Result{Stderr: msg + "\n", ExitCode: 1}
}

func isNotDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// countInterrupt records a Ctrl-C/Ctrl-D at the prompt and reports whether
// the session should end.
func (s *Session) countInterrupt() bool {
	s.interrupts++
	if s.interrupts >= s.maxInterrupts {
		s.term.Println(MsgExiting)
		return true
	}
	s.term.Println(fmt.Sprintf("Interrupt received. Press Ctrl-D %d more time(s) to exit.", s.maxInterrupts-s.interrupts))
	return false
}

func (s *Session) prompt() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "$ "
	}
	return Prompt(cwd)
}

func (s *Session) watchInterrupts() (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sigCh:
				s.Interrupt()
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

// menu handles one assistant menu key.
func (s *Session) menu(ctx context.Context) {
	action, err := s.term.Menu()
	if err != nil {
		return
	}
	s.logger.Debug("menu action", zap.Stringer("action", action))

	switch action {
	case ui.MenuInstruction:
		s.newInstruction(ctx)
	case ui.MenuStop:
		s.runner.Cancel()
		s.policy.Interactive = true
		s.policy.Count = 0
		s.term.ShowStatus(MsgStopped)
	case ui.MenuAsk:
		s.ask(ctx)
	case ui.MenuLimit:
		s.setLimit()
	case ui.MenuInteractive:
		s.policy.Interactive = !s.policy.Interactive
		s.policy.Count = 0
		s.term.ShowStatus("Interactive mode " + enabled(s.policy.Interactive) + ".")
	case ui.MenuDebug:
		on := !s.logger.Debugging()
		s.logger.SetDebug(on)
		s.term.ShowStatus("Debug mode " + enabled(on) + ".")
	case ui.MenuHelp:
		s.term.ShowHelp()
	}
}

func (s *Session) newInstruction(ctx context.Context) {
	instruction, err := s.term.ReadLine(PromptInstruction)
	if err != nil || strings.TrimSpace(instruction) == "" {
		s.term.ShowStatus(MsgNoInstruction)
		return
	}
	s.RunInstruction(ctx, instruction)
}

func (s *Session) ask(ctx context.Context) {
	question, err := s.term.ReadLine(PromptQuestion)
	question = strings.TrimSpace(question)
	if err != nil || question == "" {
		s.term.ShowStatus(MsgNoQuestion)
		return
	}

	qctx, release := s.interruptible(ctx)
	defer release()

	done := s.term.Busy(MsgThinking)
	answer, err := s.generator.Answer(qctx, question, s.transcript.Snapshot(true))
	done()
	if err != nil {
		s.term.ShowError(err)
		return
	}
	s.term.ShowAnswer(answer)
}

func (s *Session) setLimit() {
	input, err := s.term.ReadLine(PromptLimit)
	if err != nil {
		return
	}
	limit, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || limit < 0 {
		s.term.ShowStatus(MsgInvalidLimit)
		return
	}
	s.policy.Limit = limit
	s.policy.Count = 0
	if limit == 0 {
		s.term.ShowStatus("Execution limit set to unlimited")
		return
	}
	s.term.ShowStatus(fmt.Sprintf("Execution limit set to %d", limit))
}

func enabled(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
