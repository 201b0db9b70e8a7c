package chat

import (
	"errors"
	"fmt"
)

var ErrIndexOutOfRange = errors.New("message index out of range")

// Saver receives the transcript snapshot after every store mutation.
// Implementations decide durability; the store only guarantees it is called
// synchronously with the post-mutation state.
type Saver interface {
	SaveSnapshot(messages []Message) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(messages []Message) error

func (f SaverFunc) SaveSnapshot(messages []Message) error {
	return f(messages)
}

// Store owns the ordered conversation transcript. It is append-only except
// for in-place field updates on existing entries; no message is ever deleted
// or reordered. All mutations funnel through Append/Update, and each one
// persists a snapshot through the configured Saver.
type Store struct {
	messages []Message
	saver    Saver
}

// NewStore builds a store seeded with a prior snapshot. Restored messages
// are never streaming: that flag only ever applies to a message created in
// the current session.
func NewStore(saver Saver, prior []Message) *Store {
	msgs := make([]Message, len(prior))
	copy(msgs, prior)
	for i := range msgs {
		msgs[i].IsStreaming = false
	}
	return &Store{messages: msgs, saver: saver}
}

// Append adds a message to the end of the transcript and returns its index.
func (s *Store) Append(m Message) int {
	s.messages = append(s.messages, m)
	s.persist()
	return len(s.messages) - 1
}

// Update applies mutate to the message at index i.
func (s *Store) Update(i int, mutate func(*Message)) error {
	if i < 0 || i >= len(s.messages) {
		return fmt.Errorf("update message %d: %w", i, ErrIndexOutOfRange)
	}
	mutate(&s.messages[i])
	s.persist()
	return nil
}

// Message returns a copy of the message at index i.
func (s *Store) Message(i int) (Message, error) {
	if i < 0 || i >= len(s.messages) {
		return Message{}, fmt.Errorf("read message %d: %w", i, ErrIndexOutOfRange)
	}
	return s.messages[i], nil
}

func (s *Store) Len() int {
	return len(s.messages)
}

// Snapshot returns a copy of the full ordered transcript. Transient fields
// are excluded from persistence by their json:"-" tags, so the saver can
// encode the returned slice directly.
func (s *Store) Snapshot() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Store) persist() {
	if s.saver == nil {
		return
	}
	// Persistence is best effort: a failed save never blocks the
	// conversation.
	_ = s.saver.SaveSnapshot(s.Snapshot())
}
