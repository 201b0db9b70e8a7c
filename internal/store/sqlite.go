// Package store persists transcript snapshots to a local sqlite database,
// one row per session key.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"sopchat/internal/chat"

	_ "github.com/mattn/go-sqlite3"
)

type SnapshotStore struct {
	db *sql.DB
	mu sync.Mutex
}

func Open(dbPath string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	s := &SnapshotStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

func (s *SnapshotStore) initSchema() error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`CREATE TABLE IF NOT EXISTS transcripts (
			session_id TEXT PRIMARY KEY,
			snapshot TEXT NOT NULL,
			updated_at INTEGER
		);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Save writes the JSON-encoded snapshot under sessionID, replacing any
// prior snapshot for that key.
func (s *SnapshotStore) Save(sessionID string, messages []chat.Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		`INSERT INTO transcripts (session_id, snapshot, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		sessionID, string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load restores the snapshot stored under sessionID. A missing row or one
// that no longer parses yields an empty transcript, never an error: a
// corrupt snapshot is discarded rather than surfaced to the user.
func (s *SnapshotStore) Load(sessionID string) []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data string
	err := s.db.QueryRow(
		`SELECT snapshot FROM transcripts WHERE session_id = ?`, sessionID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) || err != nil {
		return nil
	}

	var messages []chat.Message
	if err := json.Unmarshal([]byte(data), &messages); err != nil {
		return nil
	}
	return messages
}

// Saver binds this store to one session key so it can serve as the
// transcript store's persistence hook.
func (s *SnapshotStore) Saver(sessionID string) chat.Saver {
	return chat.SaverFunc(func(messages []chat.Message) error {
		return s.Save(sessionID, messages)
	})
}
