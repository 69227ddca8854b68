package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/mitchellh/mapstructure"
)

// Candidate is one command proposed by the model.
type Candidate struct {
	Command  string `mapstructure:"bash"`
	Continue bool   `mapstructure:"continue"`
	Note     string `mapstructure:"savecontext"`
}

// IsStop reports whether the command is the stop sentinel: an echo that
// carries the stop phrase.
func (c Candidate) IsStop() bool {
	cmd := strings.TrimSpace(c.Command)
	return strings.HasPrefix(cmd, "echo ") && strings.Contains(strings.ToLower(cmd), StopSentinel)
}

var (
	// ErrNoCommandObject means the reply contains no JSON object with a bash key.
	ErrNoCommandObject = errors.New("no JSON object with a \"bash\" key found")
	// ErrMalformed means a fragment could not be repaired into a JSON object.
	ErrMalformed = errors.New("malformed JSON")
	// ErrMissingCommand means the object has no usable "bash" value.
	ErrMissingCommand = errors.New("\"bash\" must be a non-empty string")
)

var fencePattern = regexp.MustCompile("(?s)```[A-Za-z]*[ \\t]*\\r?\\n?(.*?)```")

// Extract locates the JSON fragment carrying the command in a raw reply.
// Fenced code blocks are searched first, then the whole reply. A trailing
// object that never closes is returned as is so Decode can repair it.
func Extract(raw string) (string, bool) {
	for _, m := range fencePattern.FindAllStringSubmatch(raw, -1) {
		if obj, ok := findCommandObject(m[1]); ok {
			return obj, true
		}
	}
	return findCommandObject(raw)
}

// findCommandObject returns the first balanced object holding the command
// key. Failing that, the innermost unclosed tail holding the key is returned
// for repair.
func findCommandObject(text string) (string, bool) {
	rest := text
	tail := ""
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			break
		}
		obj, closed := balancedObject(rest[start:])
		if !closed {
			if hasCommandKey(obj) {
				tail = obj
			}
			rest = rest[start+1:]
			continue
		}
		if hasCommandKey(obj) {
			return strings.TrimSpace(obj), true
		}
		rest = rest[start+len(obj):]
	}
	if tail != "" {
		return strings.TrimSpace(tail), true
	}
	return "", false
}

func hasCommandKey(obj string) bool {
	return strings.Contains(obj, `"bash"`) || strings.Contains(obj, `'bash'`)
}

// balancedObject returns the object starting at text[0] up to its matching
// brace. Braces inside strings are ignored. If the object never closes the
// remainder of text is returned with closed=false.
func balancedObject(text string) (string, bool) {
	depth := 0
	var quote rune
	escape := false
	for i, r := range text {
		if quote != 0 {
			switch {
			case escape:
				escape = false
			case r == '\\':
				escape = true
			case r == quote:
				quote = 0
			}
			continue
		}
		switch r {
		case '"', '\'':
			quote = r
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[:i+1], true
			}
		}
	}
	return text, false
}

// Decode parses a fragment into a Candidate, repairing near-JSON first.
func Decode(fragment string) (Candidate, error) {
	fields, err := decodeObject(fragment)
	if err != nil {
		return Candidate{}, err
	}

	command, ok := fields["bash"].(string)
	if !ok || strings.TrimSpace(command) == "" {
		return Candidate{}, ErrMissingCommand
	}

	var c Candidate
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &c,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Candidate{}, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(fields); err != nil {
		return Candidate{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return c, nil
}

func decodeObject(fragment string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(fragment), &fields); err == nil && fields != nil {
		return fields, nil
	}

	repaired, err := jsonrepair.JSONRepair(fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	fields = nil
	if err := json.Unmarshal([]byte(repaired), &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: not an object: %s", ErrMalformed, repaired)
	}
	return fields, nil
}

// Encode renders the wire form of a candidate.
func Encode(c Candidate) string {
	wire := struct {
		Bash        string `json:"bash"`
		Continue    bool   `json:"continue,omitempty"`
		SaveContext string `json:"savecontext,omitempty"`
	}{c.Command, c.Continue, c.Note}

	data, err := json.Marshal(wire)
	if err != nil {
		return ""
	}
	return string(data)
}

// Parse runs both stages on a raw reply.
func Parse(raw string) (Candidate, error) {
	fragment, ok := Extract(raw)
	if !ok {
		return Candidate{}, ErrNoCommandObject
	}
	return Decode(fragment)
}
