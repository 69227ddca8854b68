// Package executor runs shell commands, capturing their output and exit
// status, with cooperative cancellation of the whole process group.
package executor

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxOutputBytes caps each captured stream.
	DefaultMaxOutputBytes = 1 << 20
	// DefaultGracePeriod is how long a cancelled command has to exit after
	// SIGINT before it is killed.
	DefaultGracePeriod = 2 * time.Second
	// InterruptedExitCode is reported for a cancelled command that did not
	// report a non-zero status of its own.
	InterruptedExitCode = 130
)

// DefaultShell is the interpreter used when none is configured.
var DefaultShell = []string{"/bin/sh", "-c"}

// Result represents the outcome of a command execution.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
	Cancelled bool
}

// Success reports whether the command exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0 && !r.Cancelled
}

// Options configures a Runner.
type Options struct {
	// Shell is the interpreter and its flags; the command is appended.
	Shell          []string
	MaxOutputBytes int
	GracePeriod    time.Duration
	// Stdout and Stderr, when set, receive output live as it is produced.
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

// Runner executes one command at a time.
type Runner struct {
	shell       []string
	maxBytes    int
	gracePeriod time.Duration
	stdout      io.Writer
	stderr      io.Writer
	logger      *zap.Logger

	mu       sync.Mutex
	active   bool
	cancelCh chan struct{}
}

// NewRunner creates a Runner. Zero options fall back to the defaults.
func NewRunner(opts Options) *Runner {
	if len(opts.Shell) == 0 {
		opts.Shell = DefaultShell
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runner{
		shell:       append([]string(nil), opts.Shell...),
		maxBytes:    opts.MaxOutputBytes,
		gracePeriod: opts.GracePeriod,
		stdout:      opts.Stdout,
		stderr:      opts.Stderr,
		logger:      opts.Logger,
	}
}

// Run executes command through the shell and waits for it to finish.
// A non-zero exit status is reported in the Result, not as an error.
// Cancelling ctx or calling Cancel interrupts the command.
func (r *Runner) Run(ctx context.Context, command string) (Result, error) {
	if strings.TrimSpace(command) == "" {
		return Result{}, ErrEmptyCommand
	}

	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return Result{}, ErrBusy
	}

	args := append(append([]string(nil), r.shell[1:]...), command)
	cmd := exec.Command(r.shell[0], args...)
	cmd.Stdin = nil
	configureProcess(cmd)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		r.mu.Unlock()
		return Result{}, &CommandError{Cmd: command, Cause: err, Stage: "pipe"}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		r.mu.Unlock()
		return Result{}, &CommandError{Cmd: command, Cause: err, Stage: "pipe"}
	}
	if err := cmd.Start(); err != nil {
		r.mu.Unlock()
		return Result{}, &CommandError{Cmd: command, Cause: err, Stage: "start"}
	}

	cancelCh := make(chan struct{})
	r.active = true
	r.cancelCh = cancelCh
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.active = false
		r.cancelCh = nil
		r.mu.Unlock()
	}()

	r.logger.Debug("command started", zap.String("command", command), zap.Int("pid", cmd.Process.Pid))

	stdoutCollector := newCollector(r.maxBytes, binarySampleSize)
	stderrCollector := newCollector(r.maxBytes, binarySampleSize)

	var drains errgroup.Group
	drains.Go(func() error {
		_, err := io.Copy(liveWriter{capture: stdoutCollector, mirror: r.stdout}, stdoutPipe)
		return err
	})
	drains.Go(func() error {
		_, err := io.Copy(liveWriter{capture: stderrCollector, mirror: r.stderr}, stderrPipe)
		return err
	})

	// Wait must not be called before the pipes are fully read.
	waitCh := make(chan error, 1)
	go func() {
		if err := drains.Wait(); err != nil {
			r.logger.Debug("output drain failed", zap.Error(err))
		}
		waitCh <- cmd.Wait()
	}()

	cancelled := false
	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-ctx.Done():
		cancelled = true
		waitErr = r.stop(cmd, waitCh)
	case <-cancelCh:
		cancelled = true
		waitErr = r.stop(cmd, waitCh)
	}

	result := Result{
		Stdout:    stdoutCollector.String(),
		Stderr:    stderrCollector.String(),
		ExitCode:  r.exitCode(cmd, waitErr),
		Truncated: stdoutCollector.Truncated() || stderrCollector.Truncated(),
		Cancelled: cancelled,
	}
	if cancelled && result.ExitCode <= 0 {
		result.ExitCode = InterruptedExitCode
	}

	r.logger.Debug("command finished",
		zap.String("command", command),
		zap.Int("exit_code", result.ExitCode),
		zap.Bool("cancelled", cancelled),
		zap.Bool("truncated", result.Truncated),
		zap.Int64("dropped_bytes", stdoutCollector.Dropped()+stderrCollector.Dropped()))
	return result, nil
}

// Cancel interrupts the running command, if any. It reports whether there
// was a command to interrupt.
func (r *Runner) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active || r.cancelCh == nil {
		return false
	}
	select {
	case <-r.cancelCh:
	default:
		close(r.cancelCh)
	}
	return true
}

// Running reports whether a command is currently executing.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// stop sends SIGINT to the process group and escalates to SIGKILL once the
// grace period expires.
func (r *Runner) stop(cmd *exec.Cmd, waitCh <-chan error) error {
	interruptProcess(cmd)

	timer := time.NewTimer(r.gracePeriod)
	defer timer.Stop()

	select {
	case err := <-waitCh:
		return err
	case <-timer.C:
	}

	r.logger.Debug("command ignored interrupt, killing", zap.Int("pid", cmd.Process.Pid))
	killProcess(cmd)
	return <-waitCh
}

func (r *Runner) exitCode(cmd *exec.Cmd, err error) int {
	if code, ok := signalExitCode(cmd.ProcessState); ok {
		return code
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	r.logger.Debug("wait failed", zap.Error(err))
	return -1
}
