package store

import (
	"path/filepath"
	"testing"

	"sopchat/internal/chat"
)

func openTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "transcripts.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s := openTestStore(t)

	messages := []chat.Message{
		{Role: chat.RoleUser, Content: "q"},
		{
			Role:              chat.RoleAssistant,
			Content:           "a",
			Sources:           []string{"sop-1.pdf"},
			Citations:         []chat.Citation{{FileName: "sop-1.pdf", Text: "excerpt"}},
			Liked:             chat.Bool(false),
			FeedbackText:      "too short",
			FeedbackSubmitted: true,
		},
	}
	if err := s.Save("session-a", messages); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := s.Load("session-a")
	if len(got) != 2 {
		t.Fatalf("restored length: got=%d want=2", len(got))
	}
	if got[1].Content != "a" || !got[1].FeedbackSubmitted {
		t.Fatalf("restored message: %+v", got[1])
	}
	if got[1].Liked == nil || *got[1].Liked {
		t.Fatalf("restored polarity: %+v", got[1].Liked)
	}
}

func TestSaveReplacesPriorSnapshot(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save("k", []chat.Message{{Role: chat.RoleUser, Content: "one"}}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.Save("k", []chat.Message{
		{Role: chat.RoleUser, Content: "one"},
		{Role: chat.RoleAssistant, Content: "two"},
	}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got := s.Load("k")
	if len(got) != 2 {
		t.Fatalf("replaced snapshot length: got=%d want=2", len(got))
	}
}

func TestLoadMissingSessionIsEmpty(t *testing.T) {
	s := openTestStore(t)
	if got := s.Load("never-saved"); got != nil {
		t.Fatalf("missing session: got=%v want=nil", got)
	}
}

func TestLoadMalformedSnapshotIsEmpty(t *testing.T) {
	s := openTestStore(t)

	_, err := s.db.Exec(
		`INSERT INTO transcripts (session_id, snapshot, updated_at) VALUES (?, ?, 0)`,
		"broken", "{not json",
	)
	if err != nil {
		t.Fatalf("seed malformed row: %v", err)
	}

	if got := s.Load("broken"); got != nil {
		t.Fatalf("malformed snapshot must load as empty, got %v", got)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save("a", []chat.Message{{Role: chat.RoleUser, Content: "for a"}}); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := s.Save("b", []chat.Message{{Role: chat.RoleUser, Content: "for b"}}); err != nil {
		t.Fatalf("save b: %v", err)
	}

	if got := s.Load("a"); len(got) != 1 || got[0].Content != "for a" {
		t.Fatalf("session a: %+v", got)
	}
	if got := s.Load("b"); len(got) != 1 || got[0].Content != "for b" {
		t.Fatalf("session b: %+v", got)
	}
}

func TestSaverBindsSessionKey(t *testing.T) {
	s := openTestStore(t)

	saver := s.Saver("bound")
	if err := saver.SaveSnapshot([]chat.Message{{Role: chat.RoleUser, Content: "hello"}}); err != nil {
		t.Fatalf("save via saver: %v", err)
	}
	if got := s.Load("bound"); len(got) != 1 || got[0].Content != "hello" {
		t.Fatalf("bound session: %+v", got)
	}
}
