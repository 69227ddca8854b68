// Package orchestrator drives one natural-language instruction from
// generation through execution and back, until the task is done or a
// limit, refusal or error ends it.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Cyclone1070/aishell/internal/conversation"
	"github.com/Cyclone1070/aishell/internal/executor"
	"github.com/Cyclone1070/aishell/internal/generator"
	"github.com/Cyclone1070/aishell/internal/policy"
	"go.uber.org/zap"
)

// User-facing messages for terminal outcomes.
const (
	MsgLimitReached = "Execution limit reached. Use 'Ctrl-E l' to set a new limit."
	MsgDeclined     = "Command execution cancelled."
	MsgCancelled    = "Instruction interrupted."
	MsgStoppedBy    = "AI Assistant stopped execution: "
)

// Loop runs instruction cycles for one shell session.
type Loop struct {
	generator commandGenerator
	gate      executionGate
	executor  commandExecutor
	store     contextStore
	ui        userInterface
	policy    *policy.ExecutionPolicy
	sysInfo   func() string
	logger    *zap.Logger
}

// NewLoop creates a Loop. The policy is shared with the session that owns it.
func NewLoop(gen commandGenerator, gate executionGate, exec commandExecutor, store contextStore, ui userInterface, p *policy.ExecutionPolicy, sysInfo func() string, logger *zap.Logger) *Loop {
	if gen == nil || gate == nil || exec == nil || store == nil || ui == nil || p == nil {
		panic("orchestrator: nil dependency")
	}
	if sysInfo == nil {
		sysInfo = func() string { return "" }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		generator: gen,
		gate:      gate,
		executor:  exec,
		store:     store,
		ui:        ui,
		policy:    p,
		sysInfo:   sysInfo,
		logger:    logger,
	}
}

// Run processes one instruction until the cycle stops.
func (l *Loop) Run(ctx context.Context, instruction string) Outcome {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return Outcome{Status: Rejected}
	}

	l.policy.Count = 0
	l.store.AppendInstruction(instruction)
	l.logger.Info("instruction received",
		zap.String("instruction", instruction),
		zap.Bool("interactive", l.policy.Interactive),
		zap.Int("limit", l.policy.Limit))

	executed := 0
	for {
		if ctx.Err() != nil {
			return l.cancelled(executed)
		}

		candidate, err := l.generate(ctx, instruction)
		if err != nil {
			if ctx.Err() != nil {
				return l.cancelled(executed)
			}
			l.logger.Warn("generation failed", zap.Error(err))
			l.ui.ShowError(err)
			return Outcome{Status: Failed, Executed: executed, Err: err}
		}

		if candidate.Note != "" {
			l.store.Append(conversation.Message{Role: conversation.RoleAssistant, Content: savedContext(candidate.Note)})
			l.ui.ShowNote(candidate.Note)
		}

		decision := l.gate.ShouldRun(candidate.Command, *l.policy)
		l.logger.Debug("gate decision",
			zap.String("command", candidate.Command),
			zap.Stringer("verdict", decision.Verdict),
			zap.String("reason", decision.Reason))

		switch decision.Verdict {
		case policy.Deny:
			l.ui.ShowStatus(MsgLimitReached)
			return Outcome{Status: Denied, Executed: executed}
		case policy.RunAfterConfirm:
			l.ui.ShowCommand(candidate.Command, false)
			ok, err := l.ui.Confirm(ctx, candidate.Command)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return l.cancelled(executed)
				}
				l.ui.ShowError(err)
				return Outcome{Status: Failed, Executed: executed, Err: err}
			}
			if !ok {
				l.ui.ShowStatus(MsgDeclined)
				return Outcome{Status: Declined, Executed: executed}
			}
		default:
			l.ui.ShowCommand(candidate.Command, true)
		}

		result, err := l.executor.Execute(ctx, candidate.Command, true)
		if err != nil {
			l.logger.Warn("command could not be executed", zap.String("command", candidate.Command), zap.Error(err))
			l.ui.ShowError(err)
			return Outcome{Status: Failed, Executed: executed, Err: fmt.Errorf("execute %q: %w", candidate.Command, err)}
		}
		executed++
		l.policy.Count++

		if result.Cancelled {
			return l.cancelled(executed)
		}

		if result.ExitCode != 0 {
			l.logger.Info("command failed, asking for a correction",
				zap.String("command", candidate.Command),
				zap.Int("exit_code", result.ExitCode))
			l.ui.ShowStatus(fmt.Sprintf("Command failed with return code %d", result.ExitCode))
			l.store.Append(conversation.Message{Role: conversation.RoleUser, Content: correction(candidate.Command, result)})
			continue
		}

		if candidate.IsStop() {
			remark := strings.TrimSpace(result.Stdout)
			l.ui.ShowStatus(MsgStoppedBy + remark)
			return Outcome{Status: StoppedByModel, Executed: executed, Remark: remark}
		}
		if !candidate.Continue {
			return Outcome{Status: Completed, Executed: executed}
		}
	}
}

func (l *Loop) generate(ctx context.Context, instruction string) (generator.Candidate, error) {
	done := l.ui.Busy("Generating command...")
	defer done()
	return l.generator.Generate(ctx, instruction, l.store.Snapshot(false), *l.policy, l.sysInfo())
}

func (l *Loop) cancelled(executed int) Outcome {
	l.ui.ShowStatus(MsgCancelled)
	return Outcome{Status: Cancelled, Executed: executed}
}

// correction is the message fed back to the model after a failed command.
func correction(command string, r executor.Result) string {
	return fmt.Sprintf("Automated interpreter message: The previous command '%s' failed with return code %d. "+
		"stdout: %s, stderr: %s. Please provide a corrected command or explain why it failed "+
		"and suggest an alternative approach (with an echo)", command, r.ExitCode, r.Stdout, r.Stderr)
}

func savedContext(note string) string {
	data, err := json.Marshal(map[string]string{"savedcontext": note})
	if err != nil {
		return note
	}
	return string(data)
}
