package shell

import (
	"os"
	"path/filepath"
	"strings"
)

// compoundMarkers make a cd line something the interpreter must run.
var compoundMarkers = []string{"&&", "||", ";", "|", "\n", "&", "`", "$("}

// parseCd recognises a simple "cd [dir]" line and returns its target.
// Compound lines are left to the interpreter and never move the shell.
func parseCd(command string) (string, bool) {
	line := strings.TrimSpace(command)
	if line != "cd" && !strings.HasPrefix(line, "cd ") && !strings.HasPrefix(line, "cd\t") {
		return "", false
	}
	for _, m := range compoundMarkers {
		if strings.Contains(line, m) {
			return "", false
		}
	}

	target := strings.TrimSpace(line[2:])
	if len(target) >= 2 {
		if q := target[0]; (q == '"' || q == '\'') && target[len(target)-1] == q {
			return target[1 : len(target)-1], true
		}
	}
	if strings.ContainsAny(target, " \t") {
		return "", false
	}
	return target, true
}

// resolveDir expands a cd target against the home and previous directories.
func resolveDir(target, previous string) (string, error) {
	switch {
	case target == "" || target == "~":
		return os.UserHomeDir()
	case target == "-":
		if previous == "" {
			return os.Getwd()
		}
		return previous, nil
	case strings.HasPrefix(target, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, target[2:]), nil
	}
	return os.ExpandEnv(target), nil
}
