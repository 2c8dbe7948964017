package session

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/daykeeper-io/daykeeper/pkg/protocol"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session store: open: %w", err)
	}

	// Enable WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("session store: wal: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Timestamps are stored as Unix nanoseconds so ORDER BY created_at is a
// total order; textual timestamp formats sort wrong across fractional and
// whole-second values.
func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			chat_id    TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			closed_at  INTEGER
		);

		CREATE TABLE IF NOT EXISTS session_messages (
			id         TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session ON session_messages(session_id);
		CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, chat_id);
	`)
	if err != nil {
		return fmt.Errorf("session store: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Save(sess *protocol.Session) error {
	var closedAt *int64
	if sess.ClosedAt != nil {
		v := sess.ClosedAt.UnixNano()
		closedAt = &v
	}

	_, err := s.db.Exec(`
		INSERT INTO sessions (id, user_id, chat_id, created_at, closed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id=excluded.user_id, chat_id=excluded.chat_id, closed_at=excluded.closed_at
	`, sess.ID, sess.UserID, sess.ChatID, sess.CreatedAt.UnixNano(), closedAt)
	if err != nil {
		return fmt.Errorf("session store: save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(id string) (*protocol.Session, error) {
	row := s.db.QueryRow(`SELECT id, user_id, chat_id, created_at, closed_at FROM sessions WHERE id = ?`, id)

	sess, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %q not found", id)
		}
		return nil, fmt.Errorf("session store: get: %w", err)
	}

	msgs, err := s.History(id, 0)
	if err != nil {
		return nil, err
	}
	sess.Messages = msgs
	return sess, nil
}

func (s *SQLiteStore) Active(userID, chatID string) (*protocol.Session, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, chat_id, created_at, closed_at FROM sessions
		WHERE user_id = ? AND chat_id = ? AND closed_at IS NULL
		ORDER BY created_at DESC LIMIT 1
	`, userID, chatID)

	sess, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("session store: active: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) List(filter Filter) ([]*protocol.Session, error) {
	query := "SELECT id, user_id, chat_id, created_at, closed_at FROM sessions WHERE 1=1"
	var args []any

	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.ChatID != "" {
		query += " AND chat_id = ?"
		args = append(args, filter.ChatID)
	}
	if filter.Open != nil {
		if *filter.Open {
			query += " AND closed_at IS NULL"
		} else {
			query += " AND closed_at IS NOT NULL"
		}
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("session store: list: %w", err)
	}
	defer rows.Close()

	var sessions []*protocol.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("session store: list scan: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) AppendMessage(sessionID string, msg protocol.SessionMessage) error {
	_, err := s.db.Exec(`INSERT INTO session_messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, sessionID, msg.Role, msg.Content, msg.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("session store: append message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) History(sessionID string, limit int) ([]protocol.SessionMessage, error) {
	query := `SELECT id, role, content, created_at FROM session_messages WHERE session_id = ? ORDER BY created_at`
	args := []any{sessionID}
	if limit > 0 {
		// Take the newest N, then restore chronological order below.
		query = `SELECT id, role, content, created_at FROM (
			SELECT id, role, content, created_at FROM session_messages
			WHERE session_id = ? ORDER BY created_at DESC LIMIT ?
		) ORDER BY created_at`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("session store: history: %w", err)
	}
	defer rows.Close()

	var msgs []protocol.SessionMessage
	for rows.Next() {
		var m protocol.SessionMessage
		var ts int64
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &ts); err != nil {
			return nil, fmt.Errorf("session store: scan message: %w", err)
		}
		m.CreatedAt = time.Unix(0, ts).UTC()
		m.SessionID = sessionID
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *SQLiteStore) Close(sessionID string) error {
	result, err := s.db.Exec(`UPDATE sessions SET closed_at = ? WHERE id = ? AND closed_at IS NULL`,
		time.Now().UnixNano(), sessionID)
	if err != nil {
		return fmt.Errorf("session store: close: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session %q not found or already closed", sessionID)
	}
	return nil
}

// Shutdown closes the underlying database.
func (s *SQLiteStore) Shutdown() error {
	return s.db.Close()
}

// DB returns the underlying database connection (for testing or direct access).
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSession(row scannable) (*protocol.Session, error) {
	var sess protocol.Session
	var createdAt int64
	var closedAt *int64

	if err := row.Scan(&sess.ID, &sess.UserID, &sess.ChatID, &createdAt, &closedAt); err != nil {
		return nil, err
	}

	sess.CreatedAt = time.Unix(0, createdAt).UTC()
	if closedAt != nil {
		ct := time.Unix(0, *closedAt).UTC()
		sess.ClosedAt = &ct
	}
	return &sess, nil
}
