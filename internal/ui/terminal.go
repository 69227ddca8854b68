// Package ui is the line-oriented terminal front end of the shell: command
// entry with history, prompts and confirmations, the assistant menu, and
// progress and result rendering.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// ConfirmPrompt asks whether a generated command may run.
const ConfirmPrompt = "Execute command? (y/n): "

// Options configures a Terminal.
type Options struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	// TTY enables line editing, history, the spinner and styled markdown.
	TTY bool

	HistoryFile  string
	HistoryLimit int

	// Width is used to wrap rendered answers. Defaults to 80.
	Width int

	Spinner SpinnerFactory
}

// Input is one line read at the shell prompt.
type Input struct {
	Line string
	// Menu is set when the user opened the assistant menu instead of
	// submitting a command.
	Menu bool
}

// Terminal implements the shell's user interface on a terminal or pipe.
type Terminal struct {
	src     lineSource
	out     io.Writer
	errOut  io.Writer
	tty     bool
	width   int
	spinner SpinnerFactory

	rendererOnce sync.Once
	renderer     *glamour.TermRenderer
}

// New creates a Terminal. With TTY set, input is read from the controlling
// terminal through readline; otherwise from opts.In.
func New(opts Options) (*Terminal, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Spinner == nil {
		opts.Spinner = DefaultSpinner
	}

	t := &Terminal{
		out:     opts.Out,
		errOut:  opts.ErrOut,
		tty:     opts.TTY,
		width:   opts.Width,
		spinner: opts.Spinner,
	}
	if opts.TTY {
		src, err := newReadlineSource(opts.HistoryFile, opts.HistoryLimit)
		if err != nil {
			return nil, err
		}
		t.src = src
	} else {
		t.src = newPlainSource(opts.In, opts.Out)
	}
	return t, nil
}

// Close releases the terminal.
func (t *Terminal) Close() error {
	return t.src.Close()
}

// Stdout is where command output is mirrored.
func (t *Terminal) Stdout() io.Writer { return t.out }

// Stderr is where command error output is mirrored.
func (t *Terminal) Stderr() io.Writer { return t.errOut }

// ReadCommand reads a line at the shell prompt.
// It returns ErrInterrupt on Ctrl-C and io.EOF on Ctrl-D.
func (t *Terminal) ReadCommand(prompt string) (Input, error) {
	line, menu, err := t.src.ReadLine(prompt, true)
	if err != nil {
		return Input{}, err
	}
	return Input{Line: line, Menu: menu}, nil
}

// ReadLine reads a free-form answer such as an instruction or a question.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	line, _, err := t.src.ReadLine(prompt, false)
	return line, err
}

// Menu shows the assistant menu prompt and waits for one key.
func (t *Terminal) Menu() (MenuAction, error) {
	key, err := t.src.ReadKey(MenuStyle.Render(MenuPrompt))
	if err != nil {
		return MenuNone, err
	}
	return ParseMenuKey(key), nil
}

// Confirm asks the user to approve a command. Ctrl-C cancels.
func (t *Terminal) Confirm(ctx context.Context, command string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	line, _, err := t.src.ReadLine(ConfirmPrompt, false)
	if err != nil {
		if errors.Is(err, ErrInterrupt) {
			return false, context.Canceled
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// Busy shows a spinner with message until the returned func is called.
// Nothing is shown when the output is not a terminal.
func (t *Terminal) Busy(message string) func() {
	if !t.tty {
		return func() {}
	}

	p := tea.NewProgram(newSpinnerModel(t.spinner(), message),
		tea.WithInput(nil),
		tea.WithOutput(t.out),
		tea.WithoutSignalHandler(),
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_, _ = p.Run()
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.Send(stopSpinnerMsg{})
			<-finished
		})
	}
}

// ShowCommand announces a generated command.
func (t *Terminal) ShowCommand(command string, running bool) {
	if running {
		t.println(ExecutingStyle.Render("Executing: " + command))
		return
	}
	t.println(GeneratedStyle.Render("Generated command: " + command))
}

// ShowNote prints a note the model saved for itself.
func (t *Terminal) ShowNote(note string) {
	t.println(NoteStyle.Render("AI Assistant note: " + note))
}

// ShowStatus prints an informational message.
func (t *Terminal) ShowStatus(message string) {
	t.println(StatusStyle.Render(message))
}

// ShowError prints an error.
func (t *Terminal) ShowError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(t.errOut, ErrorStyle.Render("Error: "+err.Error()))
}

// ShowAnswer renders a markdown answer.
func (t *Terminal) ShowAnswer(answer string) {
	rendered, err := t.renderMarkdown(answer)
	if err != nil {
		rendered = answer
	}
	t.println("Answer: " + strings.TrimSpace(rendered))
}

// ShowHelp prints the assistant menu help.
func (t *Terminal) ShowHelp() {
	fmt.Fprint(t.out, MenuHelpText)
}

// Println prints an unstyled line.
func (t *Terminal) Println(message string) {
	t.println(message)
}

func (t *Terminal) println(s string) {
	fmt.Fprintln(t.out, s)
}

func (t *Terminal) renderMarkdown(content string) (string, error) {
	t.rendererOnce.Do(func() {
		style := "notty"
		if t.tty {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(t.width),
		)
		if err == nil {
			t.renderer = r
		}
	})
	if t.renderer == nil {
		return "", errors.New("markdown renderer unavailable")
	}
	return t.renderer.Render(content)
}
