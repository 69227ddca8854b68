//go:build windows

package executor

import (
	"os"
	"os/exec"
)

func configureProcess(cmd *exec.Cmd) {}

func interruptProcess(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	// Interrupt is not delivered to child processes on Windows.
	_ = cmd.Process.Kill()
}

func killProcess(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}

func signalExitCode(state *os.ProcessState) (int, bool) {
	return 0, false
}
