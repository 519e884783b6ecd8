package secrets

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mpickett/artfetch/internal/encryption"
)

// Store persists named secrets in the settings key-value table,
// encrypted at rest with AES-256-GCM.
type Store struct {
	db        *sql.DB
	encryptor *encryption.Encryptor
}

// NewStore creates a Store backed by the given database and encryptor.
func NewStore(db *sql.DB, encryptor *encryption.Encryptor) *Store {
	return &Store{db: db, encryptor: encryptor}
}

// settingKey returns the settings table key for a secret name.
func settingKey(name string) string {
	return fmt.Sprintf("secret.%s", name)
}

// GetSecret retrieves and decrypts a named secret. Returns an empty
// string if no secret is stored under that name.
func (s *Store) GetSecret(ctx context.Context, name string) (string, error) {
	key := settingKey(name)
	var encrypted string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&encrypted)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading secret %s: %w", name, err)
	}
	plaintext, err := s.encryptor.Decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypting secret %s: %w", name, err)
	}
	return plaintext, nil
}

// SetSecret encrypts and stores a named secret, replacing any existing
// value.
func (s *Store) SetSecret(ctx context.Context, name, value string) error {
	encrypted, err := s.encryptor.Encrypt(value)
	if err != nil {
		return fmt.Errorf("encrypting secret %s: %w", name, err)
	}
	key := settingKey(name)
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = datetime('now')",
		key, encrypted, encrypted,
	)
	if err != nil {
		return fmt.Errorf("storing secret %s: %w", name, err)
	}
	return nil
}

// DeleteSecret removes a named secret. Deleting an absent secret is
// not an error.
func (s *Store) DeleteSecret(ctx context.Context, name string) error {
	key := settingKey(name)
	if _, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting secret %s: %w", name, err)
	}
	return nil
}

// HasSecret checks whether a secret is stored under the given name.
func (s *Store) HasSecret(ctx context.Context, name string) (bool, error) {
	key := settingKey(name)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM settings WHERE key = ?", key).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking secret %s: %w", name, err)
	}
	return count > 0, nil
}
