package shell

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

var (
	osVersionOnce sync.Once
	osVersion     string
)

// SystemInfo describes the host for the model.
func SystemInfo() string {
	var sb strings.Builder
	sb.WriteString("System Information:\n")
	fmt.Fprintf(&sb, "os: %s\n", runtime.GOOS)
	fmt.Fprintf(&sb, "os_version: %s\n", kernelVersion())
	fmt.Fprintf(&sb, "architecture: %s", runtime.GOARCH)
	if sh := os.Getenv("SHELL"); sh != "" {
		fmt.Fprintf(&sb, "\nshell: %s", sh)
	}
	if cwd, err := os.Getwd(); err == nil {
		fmt.Fprintf(&sb, "\ncwd: %s", cwd)
		if branch, ok := GitBranch(cwd); ok {
			fmt.Fprintf(&sb, "\ngit_branch: %s", branch)
		}
	}
	return sb.String()
}

func kernelVersion() string {
	osVersionOnce.Do(func() {
		if data, err := os.ReadFile("/proc/sys/kernel/osrelease"); err == nil {
			osVersion = strings.TrimSpace(string(data))
			return
		}
		if out, err := exec.Command("uname", "-r").Output(); err == nil {
			osVersion = strings.TrimSpace(string(out))
			return
		}
		osVersion = "unknown"
	})
	return osVersion
}

// GitBranch returns the branch checked out in the repository containing dir,
// or the abbreviated commit for a detached HEAD. ok is false outside a repository.
func GitBranch(dir string) (string, bool) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", false
	}

	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", false
	}
	if head.Type() == plumbing.SymbolicReference {
		return head.Target().Short(), true
	}

	hash := head.Hash().String()
	if len(hash) > 7 {
		hash = hash[:7]
	}
	return hash, true
}

// Prompt renders the shell prompt for dir.
func Prompt(dir string) string {
	if branch, ok := GitBranch(dir); ok {
		return fmt.Sprintf("%s (%s)$ ", dir, branch)
	}
	return dir + "$ "
}
