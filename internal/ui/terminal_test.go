package ui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTerminal(t *testing.T, input string) (*Terminal, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	term, err := New(Options{In: strings.NewReader(input), Out: out, ErrOut: errOut})
	require.NoError(t, err)
	t.Cleanup(func() { _ = term.Close() })
	return term, out, errOut
}

func TestReadCommand(t *testing.T) {
	term, out, _ := newTestTerminal(t, "ls -la\npartial\x05\nlast")

	in, err := term.ReadCommand("/tmp$ ")
	require.NoError(t, err)
	assert.Equal(t, Input{Line: "ls -la"}, in)
	assert.Equal(t, "/tmp$ ", out.String())

	in, err = term.ReadCommand("/tmp$ ")
	require.NoError(t, err)
	assert.True(t, in.Menu)
	assert.Empty(t, in.Line)

	in, err = term.ReadCommand("/tmp$ ")
	require.NoError(t, err)
	assert.Equal(t, "last", in.Line)

	_, err = term.ReadCommand("/tmp$ ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadLine_IgnoresCtrlE(t *testing.T) {
	term, _, _ := newTestTerminal(t, "a\x05b\n")

	line, err := term.ReadLine("Enter question: ")

	require.NoError(t, err)
	assert.Equal(t, "a\x05b", line)
}

func TestMenu(t *testing.T) {
	tests := []struct {
		input string
		want  MenuAction
	}{
		{"n\n", MenuInstruction},
		{"s\n", MenuStop},
		{"a\n", MenuAsk},
		{"l\n", MenuLimit},
		{"i\n", MenuInteractive},
		{"d\n", MenuDebug},
		{"?\n", MenuHelp},
		{"h\n", MenuHelp},
		{"\n", MenuNone},
		{"x\n", MenuNone},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			term, out, _ := newTestTerminal(t, tt.input)

			action, err := term.Menu()

			require.NoError(t, err)
			assert.Equal(t, tt.want, action)
			assert.Contains(t, out.String(), MenuPrompt)
		})
	}
}

func TestMenu_EOF(t *testing.T) {
	term, _, _ := newTestTerminal(t, "")

	action, err := term.Menu()

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, MenuNone, action)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			term, out, _ := newTestTerminal(t, tt.input)

			ok, err := term.Confirm(context.Background(), "rm -rf build")

			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), ConfirmPrompt)
		})
	}
}

func TestConfirm_CancelledContext(t *testing.T) {
	term, out, _ := newTestTerminal(t, "y\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := term.Confirm(ctx, "ls")

	assert.False(t, ok)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, out.String())
}

func TestConfirm_InterruptCancels(t *testing.T) {
	term := &Terminal{src: &stubSource{err: ErrInterrupt}, out: io.Discard, errOut: io.Discard}

	ok, err := term.Confirm(context.Background(), "ls")

	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShowMessages(t *testing.T) {
	term, out, errOut := newTestTerminal(t, "")

	term.ShowCommand("ls", false)
	term.ShowCommand("pwd", true)
	term.ShowNote("remember this")
	term.ShowStatus("Command failed with return code 2")
	term.ShowError(errors.New("boom"))
	term.ShowError(nil)
	term.ShowHelp()

	assert.Contains(t, out.String(), "Generated command: ls")
	assert.Contains(t, out.String(), "Executing: pwd")
	assert.Contains(t, out.String(), "AI Assistant note: remember this")
	assert.Contains(t, out.String(), "Command failed with return code 2")
	assert.Contains(t, out.String(), "Ctrl-E Commands:")
	assert.Equal(t, "Error: boom\n", errOut.String())
}

func TestShowAnswer_RendersMarkdown(t *testing.T) {
	term, out, _ := newTestTerminal(t, "")

	term.ShowAnswer("The directory holds **three** files.")

	assert.Contains(t, out.String(), "Answer: ")
	assert.Contains(t, out.String(), "three")
}

func TestBusy_NoopWithoutTTY(t *testing.T) {
	term, out, _ := newTestTerminal(t, "")

	done := term.Busy("Generating command...")
	done()
	done()

	assert.Empty(t, out.String())
}

func TestWriters(t *testing.T) {
	term, out, errOut := newTestTerminal(t, "")

	assert.Same(t, out, term.Stdout())
	assert.Same(t, errOut, term.Stderr())
}

type stubSource struct {
	line string
	key  rune
	err  error
}

func (s *stubSource) ReadLine(string, bool) (string, bool, error) { return s.line, false, s.err }
func (s *stubSource) ReadKey(string) (rune, error)                { return s.key, s.err }
func (s *stubSource) Close() error                                { return nil }
