package conversation

import (
	"fmt"
)

// DefaultMaxBytes is the default size budget of a Store.
const DefaultMaxBytes = 300000

type entry struct {
	msg  Message
	size int
}

// Store is an append-only, size-bounded log of conversation messages.
//
// The most recent instruction is pinned: pruning never evicts it. Eviction is
// oldest-first among the remaining entries, and the entries written by the
// latest append are never evicted. When the budget cannot be met, a single
// truncation notice is appended instead. An oversized message therefore
// stays in the store, which is left over budget until the next append makes
// it evictable.
//
// A Store is owned by one goroutine and is not safe for concurrent use.
type Store struct {
	entries  []entry
	maxBytes int
	size     int
	pinned   int // index into entries, -1 when nothing is pinned
	fresh    int // entries at or after this index came from the latest append
}

// NewStore creates an empty store with the given byte budget.
// A non-positive budget falls back to DefaultMaxBytes.
func NewStore(maxBytes int) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{
		maxBytes: maxBytes,
		pinned:   -1,
	}
}

// Append adds a message and prunes the store back into its budget.
func (s *Store) Append(msg Message) {
	s.fresh = len(s.entries)
	s.push(msg)
	s.Prune()
}

// AppendInstruction adds an instruction message and pins it, superseding any
// earlier pinned instruction.
func (s *Store) AppendInstruction(instruction string) {
	s.fresh = len(s.entries)
	s.push(InstructionMessage(instruction))
	s.pinned = len(s.entries) - 1
	s.Prune()
}

// AppendCommand records an executed command as a user/assistant pair. The
// side that ran the command carries the record, the other side is empty.
func (s *Store) AppendCommand(input, stdout, stderr string, fromModel bool) {
	record := CommandRecord{Input: input, Stdout: stdout, Stderr: stderr}.String()
	user, assistant := record, ""
	if fromModel {
		user, assistant = "", record
	}
	s.fresh = len(s.entries)
	s.push(Message{Role: RoleUser, Content: user})
	s.push(Message{Role: RoleAssistant, Content: assistant})
	s.Prune()
}

// Prune evicts the oldest evictable entries until the store fits its budget.
// If it still does not fit, one truncation notice is appended.
func (s *Store) Prune() {
	for s.size > s.maxBytes {
		idx := s.oldestEvictable()
		if idx < 0 {
			break
		}
		s.remove(idx)
	}

	if s.size > s.maxBytes {
		over := s.size - s.maxBytes
		s.push(Message{
			Role:    RoleUser,
			Content: fmt.Sprintf("[approximately %d bytes of content has been removed for brevity in this conversation]", over),
		})
	}
}

// Snapshot returns a copy of the visible context. For a question the whole
// retained window is returned; otherwise only the window starting at the
// pinned instruction.
func (s *Store) Snapshot(forQuestion bool) []Message {
	start := 0
	if !forQuestion && s.pinned >= 0 {
		start = s.pinned
	}
	out := make([]Message, 0, len(s.entries)-start)
	for _, e := range s.entries[start:] {
		out = append(out, e.msg)
	}
	return out
}

// Pinned returns the pinned instruction message, if any.
func (s *Store) Pinned() (Message, bool) {
	if s.pinned < 0 {
		return Message{}, false
	}
	return s.entries[s.pinned].msg, true
}

// Size returns the tracked size of all retained messages in bytes.
func (s *Store) Size() int {
	return s.size
}

// Len returns the number of retained messages.
func (s *Store) Len() int {
	return len(s.entries)
}

// MaxBytes returns the configured budget.
func (s *Store) MaxBytes() int {
	return s.maxBytes
}

func (s *Store) push(msg Message) {
	e := entry{msg: msg, size: msg.Size()}
	s.entries = append(s.entries, e)
	s.size += e.size
}

func (s *Store) oldestEvictable() int {
	for i := 0; i < s.fresh && i < len(s.entries); i++ {
		if i != s.pinned {
			return i
		}
	}
	return -1
}

func (s *Store) remove(idx int) {
	s.size -= s.entries[idx].size
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	if s.pinned > idx {
		s.pinned--
	}
	if s.fresh > idx {
		s.fresh--
	}
}
