// Package eventlog records runtime events (network traffic, viewport state,
// browser actions, tool errors) to a SQLite database so a browsing session can
// be inspected after the fact.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/entrhq/surfer/pkg/logging"
)

// Event names written by the surfer.
const (
	EventRequest       = "mws_request"
	EventResponse      = "mws_response"
	EventViewportState = "viewport_state"
	EventCookies       = "cookies"
	EventBrowserAction = "browser_action"
	EventValueError    = "ValueError"
	EventUnknownTool   = "Unknown tool"
)

// Logger receives runtime events. Implementations must be safe for concurrent use.
type Logger interface {
	// LogEvent records an event. Failures are reported to the process log, not the caller.
	LogEvent(ctx context.Context, source, name string, fields map[string]interface{})

	// Enabled reports whether events are persisted. Callers may skip
	// building expensive payloads when it returns false.
	Enabled() bool
}

// Event is one persisted runtime event.
type Event struct {
	ID        int64
	SessionID string
	Source    string
	Name      string
	Timestamp time.Time
	Fields    map[string]interface{}
}

// Store is a SQLite-backed Logger.
type Store struct {
	db        *sql.DB
	sessionID string
	logger    *logging.Logger
	mu        sync.Mutex
}

// Open opens (creating if needed) the event database at path and starts a new session.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("event database path cannot be empty")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases coherent and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &Store{
		db:        db,
		sessionID: uuid.New().String(),
		logger:    logging.NewNop(),
	}
	if l, err := logging.NewLogger("eventlog"); err == nil {
		s.logger = l
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		source TEXT NOT NULL,
		name TEXT NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
	CREATE INDEX IF NOT EXISTS idx_events_name ON events(name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SessionID identifies the events written by this store.
func (s *Store) SessionID() string {
	return s.sessionID
}

// Enabled always reports true for a store.
func (s *Store) Enabled() bool {
	return true
}

// LogEvent implements Logger.
func (s *Store) LogEvent(ctx context.Context, source, name string, fields map[string]interface{}) {
	if err := s.Append(ctx, source, name, fields); err != nil {
		s.logger.Warnf("failed to record %s event: %v", name, err)
	}
}

// Append records an event and returns any storage error.
func (s *Store) Append(ctx context.Context, source, name string, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (session_id, timestamp, source, name, payload) VALUES (?, ?, ?, ?, ?)`,
		s.sessionID, time.Now().UTC(), source, name, string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Events returns the events of a session in insertion order. An empty
// sessionID selects the store's own session.
func (s *Store) Events(ctx context.Context, sessionID string) ([]Event, error) {
	if sessionID == "" {
		sessionID = s.sessionID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, timestamp, source, name, payload FROM events WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e       Event
			payload string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Timestamp, &e.Source, &e.Name, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &e.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode payload of event %d: %w", e.ID, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Nop discards every event.
type Nop struct{}

// LogEvent implements Logger.
func (Nop) LogEvent(context.Context, string, string, map[string]interface{}) {}

// Enabled implements Logger.
func (Nop) Enabled() bool { return false }
