package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// SessionKey is the fixed key the serialized session lives under.
const SessionKey = "flaire_auth_user_v1"

// DB wraps the local state database.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if needed) the state database at path and runs
// migrations. The parent directory is created when missing.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate() error {
	const schema = `CREATE TABLE IF NOT EXISTS client_state (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate state database: %w", err)
	}
	return nil
}

// SaveSession overwrites the durable session record.
func (db *DB) SaveSession(payload []byte) error {
	const query = `INSERT INTO client_state (key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if _, err := db.conn.Exec(query, SessionKey, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSession returns the durable session record, or nil when none exists.
func (db *DB) LoadSession() ([]byte, error) {
	const query = `SELECT payload FROM client_state WHERE key = ?`
	var payload string
	err := db.conn.QueryRow(query, SessionKey).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return []byte(payload), nil
}

// DeleteSession removes the durable session record.
func (db *DB) DeleteSession() error {
	if _, err := db.conn.Exec(`DELETE FROM client_state WHERE key = ?`, SessionKey); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
