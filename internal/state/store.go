package state

import (
	"database/sql"
	"fmt"
	"time"
)

const (
	keyActiveProfileID = "active_profile_id"
	secretSessionToken = "session_token"
)

// Store persists client-local state: the last-selected profile id and the
// sealed session token. Everything else is server-owned and refetched.
type Store struct {
	db         *sql.DB
	passphrase string
}

func NewStore(db *sql.DB, passphrase string) *Store {
	return &Store{db: db, passphrase: passphrase}
}

func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM local_settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO local_settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// ActiveProfileID returns the persisted last-selected profile id, or ""
// if no profile has been selected yet.
func (s *Store) ActiveProfileID() (string, error) {
	return s.get(keyActiveProfileID)
}

// SetActiveProfileID records the last-selected profile id so the app
// resumes the same profile across restarts.
func (s *Store) SetActiveProfileID(id string) error {
	return s.set(keyActiveProfileID, id)
}

// ClearActiveProfileID forgets the persisted selection.
func (s *Store) ClearActiveProfileID() error {
	_, err := s.db.Exec(`DELETE FROM local_settings WHERE key = ?`, keyActiveProfileID)
	if err != nil {
		return fmt.Errorf("clear active profile: %w", err)
	}
	return nil
}

// SaveSessionToken seals the token under the store's passphrase and
// persists it.
func (s *Store) SaveSessionToken(token string) error {
	blob, err := Seal([]byte(token), s.passphrase)
	if err != nil {
		return fmt.Errorf("seal session token: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sealed_secrets (name, blob, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		secretSessionToken, blob, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	return nil
}

// SessionToken unseals and returns the persisted token, or "" when none
// is stored.
func (s *Store) SessionToken() (string, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT blob FROM sealed_secrets WHERE name = ?`, secretSessionToken).Scan(&blob)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load session token: %w", err)
	}
	plaintext, err := Open(blob, s.passphrase)
	if err != nil {
		return "", fmt.Errorf("unseal session token: %w", err)
	}
	return string(plaintext), nil
}

// DeleteSessionToken removes the sealed token (logout).
func (s *Store) DeleteSessionToken() error {
	_, err := s.db.Exec(`DELETE FROM sealed_secrets WHERE name = ?`, secretSessionToken)
	if err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}
