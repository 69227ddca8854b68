// Package conversation holds the session transcript the model sees as its memory.
package conversation

import (
	"encoding/json"
	"strings"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// InstructionPrefix marks a user message as a natural-language instruction.
const InstructionPrefix = "aishell command: "

// Message is a single entry of the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Size returns the number of bytes the message occupies in its serialized form.
func (m Message) Size() int {
	data, err := json.Marshal(m)
	if err != nil {
		// Marshal of two strings cannot fail; keep a sane fallback anyway.
		return len(m.Role) + len(m.Content)
	}
	return len(data)
}

// IsInstruction reports whether the message carries a user instruction.
func (m Message) IsInstruction() bool {
	return m.Role == RoleUser && strings.HasPrefix(m.Content, InstructionPrefix)
}

// InstructionMessage builds the user turn for an instruction.
func InstructionMessage(instruction string) Message {
	return Message{Role: RoleUser, Content: InstructionPrefix + instruction}
}

// CommandRecord is the transcript form of one executed shell command.
type CommandRecord struct {
	Input  string `json:"input"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// String renders the record as JSON.
func (r CommandRecord) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return r.Input
	}
	return string(data)
}
