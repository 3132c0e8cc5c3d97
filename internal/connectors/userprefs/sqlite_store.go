package userprefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Preferences are the per-session console display settings.
type Preferences struct {
	Animations    bool `json:"animations"`
	RefreshSecs   int  `json:"refresh_secs"`
	HideSensitive bool `json:"hide_sensitive"`
	ThemeSystem   bool `json:"theme_system"`
}

// DefaultPreferences mirrors the console defaults applied before a session
// saves anything.
func DefaultPreferences() Preferences {
	return Preferences{Animations: true, RefreshSecs: 30, ThemeSystem: true}
}

// ChatMessage is one entry in a session's assistant conversation.
type ChatMessage struct {
	ID        string     `json:"id"`
	Role      string     `json:"role"`
	Text      string     `json:"text"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Store persists per-session preferences and chat transcripts in SQLite.
type Store struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS session_preferences (
  session_id TEXT NOT NULL,
  pref_key TEXT NOT NULL,
  pref_value TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(session_id, pref_key)
);
`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_sp_session ON session_preferences(session_id);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS chat_messages (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  role TEXT NOT NULL,
  text TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_cm_session ON chat_messages(session_id, created_at);`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetPreferences loads a session's saved settings over the defaults.
func (s *Store) GetPreferences(ctx context.Context, sessionID string) (Preferences, error) {
	out := DefaultPreferences()

	rows, err := s.db.QueryContext(ctx, `
SELECT pref_key, pref_value
FROM session_preferences
WHERE session_id = ?;
`, strings.TrimSpace(sessionID))
	if err != nil {
		return out, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return out, err
		}
		switch key {
		case "pref.animations":
			out.Animations = value == "1"
		case "pref.refresh":
			var secs int
			if _, err := fmt.Sscanf(value, "%d", &secs); err == nil && secs > 0 {
				out.RefreshSecs = secs
			}
		case "pref.hideSensitive":
			out.HideSensitive = value == "1"
		case "pref.themeSystem":
			out.ThemeSystem = value == "1"
		}
	}
	if err := rows.Err(); err != nil {
		return out, err
	}
	return out, nil
}

// SetPreferences replaces a session's saved settings.
func (s *Store) SetPreferences(ctx context.Context, sessionID string, prefs Preferences) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return errors.New("session id required")
	}
	if prefs.RefreshSecs <= 0 {
		prefs.RefreshSecs = DefaultPreferences().RefreshSecs
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	pairs := map[string]string{
		"pref.animations":    boolValue(prefs.Animations),
		"pref.refresh":       fmt.Sprintf("%d", prefs.RefreshSecs),
		"pref.hideSensitive": boolValue(prefs.HideSensitive),
		"pref.themeSystem":   boolValue(prefs.ThemeSystem),
	}
	for key, value := range pairs {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO session_preferences (session_id, pref_key, pref_value, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(session_id, pref_key) DO UPDATE SET
  pref_value = excluded.pref_value,
  updated_at = CURRENT_TIMESTAMP;
`, sessionID, key, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListMessages returns a session's conversation oldest first.
func (s *Store) ListMessages(ctx context.Context, sessionID string, limit int) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, role, text, created_at
FROM chat_messages
WHERE session_id = ?
ORDER BY created_at ASC, id ASC
LIMIT ?;
`, strings.TrimSpace(sessionID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ChatMessage, 0, limit)
	for rows.Next() {
		var (
			item      ChatMessage
			createdAt sql.NullTime
		)
		if err := rows.Scan(&item.ID, &item.Role, &item.Text, &createdAt); err != nil {
			return nil, err
		}
		if createdAt.Valid {
			t := createdAt.Time.UTC()
			item.CreatedAt = &t
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// AppendMessage stores one message for a session.
func (s *Store) AppendMessage(ctx context.Context, sessionID string, msg ChatMessage) error {
	sessionID = strings.TrimSpace(sessionID)
	msg.ID = strings.TrimSpace(msg.ID)
	msg.Text = strings.TrimSpace(msg.Text)
	if sessionID == "" || msg.ID == "" {
		return errors.New("session id and message id required")
	}
	if msg.Role != "user" && msg.Role != "assistant" {
		return fmt.Errorf("unsupported role: %s", msg.Role)
	}
	if msg.Text == "" {
		return errors.New("message text required")
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO chat_messages (id, session_id, role, text)
VALUES (?, ?, ?, ?);
`, msg.ID, sessionID, msg.Role, msg.Text)
	return err
}

// ClearMessages deletes a session's conversation, returning rows removed.
func (s *Store) ClearMessages(ctx context.Context, sessionID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, strings.TrimSpace(sessionID))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func boolValue(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
