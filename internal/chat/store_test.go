package chat

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type recordingSaver struct {
	calls int
	last  []Message
}

func (r *recordingSaver) SaveSnapshot(messages []Message) error {
	r.calls++
	r.last = messages
	return nil
}

func TestStoreAppendReturnsIndexAndPersists(t *testing.T) {
	saver := &recordingSaver{}
	s := NewStore(saver, nil)

	if idx := s.Append(Message{Role: RoleUser, Content: "q1"}); idx != 0 {
		t.Fatalf("first append index: got=%d want=0", idx)
	}
	if idx := s.Append(Message{Role: RoleAssistant, Content: "a1"}); idx != 1 {
		t.Fatalf("second append index: got=%d want=1", idx)
	}
	if saver.calls != 2 {
		t.Fatalf("saver calls after two appends: got=%d want=2", saver.calls)
	}
	if len(saver.last) != 2 || saver.last[1].Content != "a1" {
		t.Fatalf("persisted snapshot mismatch: %+v", saver.last)
	}
}

func TestStoreUpdateOutOfRange(t *testing.T) {
	s := NewStore(nil, nil)
	err := s.Update(0, func(m *Message) { m.Content = "x" })
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	err = s.Update(-1, func(m *Message) {})
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange for negative index, got %v", err)
	}
}

func TestStoreUpdatePersistsMergedFields(t *testing.T) {
	saver := &recordingSaver{}
	s := NewStore(saver, nil)
	s.Append(Message{Role: RoleAssistant, Content: "answer"})

	if err := s.Update(0, func(m *Message) { m.Liked = Bool(true) }); err != nil {
		t.Fatalf("update: %v", err)
	}
	msg, err := s.Message(0)
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	if msg.Liked == nil || !*msg.Liked {
		t.Fatalf("expected liked=true after update, got %+v", msg.Liked)
	}
	if msg.Content != "answer" {
		t.Fatalf("update must not touch other fields, content=%q", msg.Content)
	}
	if saver.calls != 2 {
		t.Fatalf("saver calls: got=%d want=2", saver.calls)
	}
}

func TestSnapshotEncodingStripsStreamingFlag(t *testing.T) {
	s := NewStore(nil, nil)
	s.Append(Message{Role: RoleAssistant, Content: "a", IsStreaming: true})

	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if strings.Contains(string(data), "treaming") {
		t.Fatalf("snapshot encoding leaked transient flag: %s", data)
	}
}

func TestNewStoreRestoresPriorWithoutStreaming(t *testing.T) {
	prior := []Message{
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant, Content: "a", IsStreaming: true},
	}
	s := NewStore(nil, prior)

	if s.Len() != 2 {
		t.Fatalf("restored length: got=%d want=2", s.Len())
	}
	msg, _ := s.Message(1)
	if msg.IsStreaming {
		t.Fatalf("restored message must not be streaming")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore(nil, nil)
	s.Append(Message{Role: RoleUser, Content: "q"})

	snap := s.Snapshot()
	snap[0].Content = "mutated"

	msg, _ := s.Message(0)
	if msg.Content != "q" {
		t.Fatalf("snapshot mutation leaked into store: %q", msg.Content)
	}
}
