package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMenuKey(t *testing.T) {
	tests := []struct {
		key  rune
		want MenuAction
	}{
		{'n', MenuInstruction},
		{'N', MenuInstruction},
		{'s', MenuStop},
		{'a', MenuAsk},
		{'l', MenuLimit},
		{'i', MenuInteractive},
		{'d', MenuDebug},
		{'h', MenuHelp},
		{'?', MenuHelp},
		{'\r', MenuNone},
		{'q', MenuNone},
		{3, MenuNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseMenuKey(tt.key), "key %q", tt.key)
	}
}

func TestMenuAction_String(t *testing.T) {
	assert.Equal(t, "instruction", MenuInstruction.String())
	assert.Equal(t, "help", MenuHelp.String())
	assert.Equal(t, "none", MenuNone.String())
}

func TestMenuHelpText_ListsEveryKey(t *testing.T) {
	for _, key := range []string{"n:", "s:", "a:", "l:", "i:", "d:", "h or ?:"} {
		assert.Contains(t, MenuHelpText, key)
		assert.NotEqual(t, MenuNone, ParseMenuKey(rune(key[0])), key)
	}
}
