//go:build !windows

package executor

import (
	"os"
	"os/exec"
	"syscall"
)

// configureProcess starts the command in its own process group so that
// signals reach the shell and everything it spawned.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	if pid <= 0 {
		return
	}
	if pgid, err := syscall.Getpgid(pid); err == nil && pgid > 0 {
		// Negative PGID targets the full process group.
		_ = syscall.Kill(-pgid, sig)
		return
	}
	_ = cmd.Process.Signal(sig)
}

func interruptProcess(cmd *exec.Cmd) {
	signalGroup(cmd, syscall.SIGINT)
}

func killProcess(cmd *exec.Cmd) {
	signalGroup(cmd, syscall.SIGKILL)
}

// signalExitCode reports the shell convention 128+N for a process that was
// terminated by signal N.
func signalExitCode(state *os.ProcessState) (int, bool) {
	if state == nil {
		return 0, false
	}
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, false
	}
	return 128 + int(ws.Signal()), true
}
