package orchestrator

import (
	"context"

	"github.com/Cyclone1070/aishell/internal/conversation"
	"github.com/Cyclone1070/aishell/internal/executor"
	"github.com/Cyclone1070/aishell/internal/generator"
	"github.com/Cyclone1070/aishell/internal/policy"
)

// commandGenerator proposes commands for an instruction.
type commandGenerator interface {
	// Generate returns the next command for the instruction given the working context.
	Generate(ctx context.Context, instruction string, history []conversation.Message, p policy.ExecutionPolicy, sysInfo string) (generator.Candidate, error)
}

// executionGate decides whether a command may run.
type executionGate interface {
	ShouldRun(command string, p policy.ExecutionPolicy) policy.Decision
}

// commandExecutor runs a command on behalf of the model. It records the
// command and its output in the conversation and shows the output.
type commandExecutor interface {
	Execute(ctx context.Context, command string, fromModel bool) (executor.Result, error)
}

// contextStore is the conversation the loop reads from and writes to.
type contextStore interface {
	AppendInstruction(instruction string)
	Append(msg conversation.Message)
	Snapshot(forQuestion bool) []conversation.Message
}

// userInterface is what the loop needs from the terminal.
type userInterface interface {
	// Busy shows a progress indicator until the returned func is called.
	Busy(message string) (done func())

	// Confirm asks the user whether to run a command.
	Confirm(ctx context.Context, command string) (bool, error)

	// ShowCommand announces a generated command; running is true when it
	// runs without confirmation.
	ShowCommand(command string, running bool)

	ShowNote(note string)
	ShowStatus(message string)
	ShowError(err error)
}
