package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/chzyer/readline"
)

// ErrInterrupt is returned when the user presses Ctrl-C while a line is being read.
var ErrInterrupt = errors.New("interrupted")

// ctrlE opens the assistant menu while a command line is being edited.
const ctrlE = '\x05'

// lineSource reads user input line by line.
type lineSource interface {
	// ReadLine reads one line. When command is true the line is a shell
	// command: Ctrl-E ends it early with menu set, and it is kept in history.
	ReadLine(prompt string, command bool) (line string, menu bool, err error)

	// ReadKey reads a single key press.
	ReadKey(prompt string) (rune, error)

	Close() error
}

type readMode int32

const (
	modeLine readMode = iota
	modeCommand
	modeKey
)

// readlineSource edits lines on a terminal with chzyer/readline.
type readlineSource struct {
	rl   *readline.Instance
	mode atomic.Int32
	menu atomic.Bool
	key  atomic.Int32
}

func newReadlineSource(historyFile string, historyLimit int) (*readlineSource, error) {
	s := &readlineSource{}
	rl, err := readline.NewEx(&readline.Config{
		HistoryFile:            historyFile,
		HistoryLimit:           historyLimit,
		DisableAutoSaveHistory: true,
		FuncFilterInputRune:    s.filter,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize readline: %w", err)
	}
	s.rl = rl
	return s, nil
}

// filter runs on readline's input goroutine.
func (s *readlineSource) filter(r rune) (rune, bool) {
	switch readMode(s.mode.Load()) {
	case modeKey:
		s.key.Store(r)
		return readline.CharEnter, true
	case modeCommand:
		if r == ctrlE {
			s.menu.Store(true)
			return readline.CharEnter, true
		}
	}
	return r, true
}

func (s *readlineSource) read(prompt string, mode readMode) (string, error) {
	s.mode.Store(int32(mode))
	defer s.mode.Store(int32(modeLine))
	s.rl.SetPrompt(prompt)

	line, err := s.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupt
	}
	return line, err
}

func (s *readlineSource) ReadLine(prompt string, command bool) (string, bool, error) {
	mode := modeLine
	if command {
		mode = modeCommand
		s.menu.Store(false)
	}
	line, err := s.read(prompt, mode)
	if err != nil {
		return "", false, err
	}
	if command && s.menu.Load() {
		return "", true, nil
	}
	if command && strings.TrimSpace(line) != "" {
		_ = s.rl.SaveHistory(line)
	}
	return line, false, nil
}

func (s *readlineSource) ReadKey(prompt string) (rune, error) {
	s.key.Store(readline.CharEnter)
	if _, err := s.read(prompt, modeKey); err != nil {
		return 0, err
	}
	return s.key.Load(), nil
}

func (s *readlineSource) Close() error {
	return s.rl.Close()
}

// plainSource reads newline-terminated input from a pipe or file. A Ctrl-E
// byte typed into a command line opens the menu.
type plainSource struct {
	r   *bufio.Reader
	out io.Writer
}

func newPlainSource(in io.Reader, out io.Writer) *plainSource {
	return &plainSource{r: bufio.NewReader(in), out: out}
}

func (s *plainSource) ReadLine(prompt string, command bool) (string, bool, error) {
	fmt.Fprint(s.out, prompt)
	line, err := s.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", false, err
	}
	line = strings.TrimRight(line, "\r\n")
	if command {
		if strings.ContainsRune(line, ctrlE) {
			return "", true, nil
		}
	}
	return line, false, nil
}

func (s *plainSource) ReadKey(prompt string) (rune, error) {
	line, _, err := s.ReadLine(prompt, false)
	if err != nil {
		return 0, err
	}
	for _, r := range line {
		return r, nil
	}
	return readline.CharEnter, nil
}

func (s *plainSource) Close() error {
	return nil
}
