package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"concierge/internal/logging"
	"concierge/internal/session"
	"concierge/internal/types"
)

// ErrNoCheckpoint is returned when a thread has no saved state.
var ErrNoCheckpoint = errors.New("no checkpoint for thread")

// Checkpoint is one saved snapshot: the full session state and, when
// the turn was interrupted, the pending sensitive call.
type Checkpoint struct {
	ThreadID  string
	State     types.State
	Pending   *Pending
	UpdatedAt time.Time
}

// Interrupted reports whether the snapshot is paused at an approval
// gate.
func (c *Checkpoint) Interrupted() bool {
	return c.Pending != nil
}

// CheckpointStore persists one checkpoint per thread in SQLite.
// Saving replaces the thread's previous snapshot.
type CheckpointStore struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenCheckpoints opens (or creates) the checkpoint database.
func OpenCheckpoints(path string) (*CheckpointStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode: %v", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS checkpoints (
		thread_id TEXT PRIMARY KEY,
		state_json TEXT NOT NULL,
		pending_json TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create checkpoint schema: %w", err)
	}

	return &CheckpointStore{db: db}, nil
}

// Close closes the store.
func (s *CheckpointStore) Close() error {
	return s.db.Close()
}

// Save replaces the thread's checkpoint with the given state. A nil
// pending marks the thread as settled.
func (s *CheckpointStore) Save(ctx context.Context, thread string, state types.State, pending *Pending) error {
	if thread == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	var pendingJSON any
	if pending != nil {
		data, err := json.Marshal(pending)
		if err != nil {
			return fmt.Errorf("failed to encode pending call: %w", err)
		}
		pendingJSON = string(data)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_id, state_json, pending_json, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(thread_id) DO UPDATE SET
			state_json = excluded.state_json,
			pending_json = excluded.pending_json,
			updated_at = CURRENT_TIMESTAMP`,
		thread, string(stateJSON), pendingJSON)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	logging.SessionDebug("Checkpointed thread %s (%d messages, interrupted=%v)",
		thread, len(state.Messages), pending != nil)
	return nil
}

// Load returns the thread's checkpoint, or ErrNoCheckpoint.
func (s *CheckpointStore) Load(ctx context.Context, thread string) (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stateJSON, updatedAt string
	var pendingJSON sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT state_json, pending_json, updated_at FROM checkpoints WHERE thread_id = ?",
		thread).Scan(&stateJSON, &pendingJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoCheckpoint, thread)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	cp := &Checkpoint{ThreadID: thread}
	if t, err := time.Parse("2006-01-02 15:04:05", updatedAt); err == nil {
		cp.UpdatedAt = t
	}
	if err := json.Unmarshal([]byte(stateJSON), &cp.State); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	if pendingJSON.Valid && pendingJSON.String != "" {
		cp.Pending = &Pending{}
		if err := json.Unmarshal([]byte(pendingJSON.String), cp.Pending); err != nil {
			return nil, fmt.Errorf("failed to decode pending call: %w", err)
		}
	}
	return cp, nil
}

// Delete removes a thread's checkpoint.
func (s *CheckpointStore) Delete(ctx context.Context, thread string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM checkpoints WHERE thread_id = ?", thread)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// threadID pulls the session's thread id from the context; engine
// checkpointing is skipped when no session is configured.
func threadID(ctx context.Context) string {
	cfg, ok := session.FromContext(ctx)
	if !ok {
		return ""
	}
	return cfg.ThreadID
}
