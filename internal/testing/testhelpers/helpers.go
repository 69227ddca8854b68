package testhelpers

import (
	"context"
	"sync"
)

// MockUI records everything shown to the user and answers prompts from
// configurable functions.
type MockUI struct {
	mu       sync.Mutex
	Commands []string
	Running  []bool
	Notes    []string
	Statuses []string
	Errors   []error
	Prompts  []string
	BusyMsgs []string

	ConfirmFunc func(ctx context.Context, command string) (bool, error)
}

// Busy implements the progress indicator as a no-op.
func (m *MockUI) Busy(message string) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BusyMsgs = append(m.BusyMsgs, message)
	return func() {}
}

// Confirm answers with ConfirmFunc, or yes when unset.
func (m *MockUI) Confirm(ctx context.Context, command string) (bool, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, command)
	fn := m.ConfirmFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, command)
	}
	return true, nil
}

func (m *MockUI) ShowCommand(command string, running bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = append(m.Commands, command)
	m.Running = append(m.Running, running)
}

func (m *MockUI) ShowNote(note string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notes = append(m.Notes, note)
}

func (m *MockUI) ShowStatus(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Statuses = append(m.Statuses, message)
}

func (m *MockUI) ShowError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors = append(m.Errors, err)
}

// GetStatuses returns a copy of the status messages.
func (m *MockUI) GetStatuses() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Statuses))
	copy(out, m.Statuses)
	return out
}

// DeclineAll returns a ConfirmFunc that refuses every command.
func DeclineAll() func(ctx context.Context, command string) (bool, error) {
	return func(ctx context.Context, command string) (bool, error) {
		return false, nil
	}
}
