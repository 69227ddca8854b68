// Package policy decides whether a model-proposed command may run.
package policy

import (
	"path"
	"strings"
	"unicode"
)

// ExecutionPolicy is the per-session execution state. It is passed by value
// and owned by the orchestration loop.
type ExecutionPolicy struct {
	// Interactive requires a confirmation before every generated command.
	Interactive bool
	// Limit caps the number of commands per instruction cycle; 0 means unlimited.
	Limit int
	// Count is the number of commands run in the current cycle.
	Count int
}

// Remaining returns how many commands may still run, or -1 when unlimited.
func (p ExecutionPolicy) Remaining() int {
	if p.Limit <= 0 {
		return -1
	}
	if p.Count >= p.Limit {
		return 0
	}
	return p.Limit - p.Count
}

// LimitReached reports whether the cycle has used up its allowance.
func (p ExecutionPolicy) LimitReached() bool {
	return p.Limit > 0 && p.Count >= p.Limit
}

// Verdict is the outcome of a gate check.
type Verdict int

const (
	Run Verdict = iota
	RunAfterConfirm
	Deny
)

func (v Verdict) String() string {
	switch v {
	case Run:
		return "run"
	case RunAfterConfirm:
		return "confirm"
	case Deny:
		return "deny"
	}
	return "unknown"
}

// Decision is a verdict plus a human readable reason.
type Decision struct {
	Verdict Verdict
	Reason  string
}

// Reasons returned by the gate.
const (
	ReasonLimitReached = "limit reached"
	ReasonInteractive  = "interactive mode"
	ReasonPrivileged   = "privileged command"
	ReasonUnattended   = "unattended mode"
)

// DefaultPrivilegedMarkers are the commands that always require confirmation.
var DefaultPrivilegedMarkers = []string{"sudo", "doas", "pkexec"}

// Gate applies the execution policy to a candidate command.
type Gate struct {
	markers []string
}

// NewGate creates a gate. The default privileged markers are always
// included; extra markers add to them.
func NewGate(extraMarkers ...string) *Gate {
	seen := make(map[string]bool)
	var markers []string
	for _, m := range append(append([]string{}, DefaultPrivilegedMarkers...), extraMarkers...) {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		markers = append(markers, m)
	}
	return &Gate{markers: markers}
}

// ShouldRun decides how a command may be executed under the given policy.
func (g *Gate) ShouldRun(command string, p ExecutionPolicy) Decision {
	if p.LimitReached() {
		return Decision{Verdict: Deny, Reason: ReasonLimitReached}
	}
	if p.Interactive {
		return Decision{Verdict: RunAfterConfirm, Reason: ReasonInteractive}
	}
	if g.IsPrivileged(command) {
		return Decision{Verdict: RunAfterConfirm, Reason: ReasonPrivileged}
	}
	return Decision{Verdict: Run, Reason: ReasonUnattended}
}

// IsPrivileged reports whether any shell word of the command is a privileged
// marker, or starts with one. Words are split on whitespace and shell
// metacharacters, and a leading directory is ignored (/usr/bin/sudo).
func (g *Gate) IsPrivileged(command string) bool {
	for _, word := range strings.FieldsFunc(command, isWordBreak) {
		word = path.Base(word)
		for _, m := range g.markers {
			if strings.HasPrefix(word, m) {
				return true
			}
		}
	}
	return false
}

func isWordBreak(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(";|&()`$<>{}'\"", r)
}
