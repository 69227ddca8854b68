package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when Run is called while another command is running.
	ErrBusy = errors.New("a command is already running")
	// ErrEmptyCommand is returned for blank commands.
	ErrEmptyCommand = errors.New("empty command")
)

// CommandError represents failures to launch a command.
type CommandError struct {
	Cmd   string
	Cause error
	Stage string // "pipe", "start"
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed at %s: %v", e.Cmd, e.Stage, e.Cause)
}

func (e *CommandError) Unwrap() error { return e.Cause }
