// Package session persists the console's provider-issued tokens between
// runs, encrypted at rest. A stored session is what makes the startup
// probe meaningful: without one the console is trivially unauthenticated.
package session

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aussiebroadwan/iothub/internal/console/session/migrations"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "modernc.org/sqlite"
)

// ErrNoSession reports that no session is stored.
var ErrNoSession = errors.New("no stored session")

// Session is one persisted provider session. The password that produced
// it is never stored; only the issued tokens are.
type Session struct {
	Username     string
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the session's access token has aged out.
func (s Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Store is a single-row SQLite store with tokens sealed by an AEAD whose
// key lives in a separate file.
type Store struct {
	db   *sql.DB
	aead cipher.AEAD
}

// Open opens (creating if needed) the session database at dbPath and the
// encryption key at keyPath, and applies pending migrations.
func Open(dbPath, keyPath string) (*Store, error) {
	key, err := loadOrCreateKey(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load session key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	s := &Store{db: db, aead: aead}
	if err := s.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply session migrations: %w", err)
	}

	return s, nil
}

// ApplyMigrations applies any pending schema migrations using the
// embedded migration files compiled into the binary.
func (s *Store) ApplyMigrations() error {
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return err
	}

	src, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithInstance("iofs", src, "", driver)
	if err != nil {
		return err
	}

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save replaces the stored session.
func (s *Store) Save(ctx context.Context, sess Session) error {
	access, err := s.seal(sess.AccessToken)
	if err != nil {
		return err
	}
	id, err := s.seal(sess.IDToken)
	if err != nil {
		return err
	}
	refresh, err := s.seal(sess.RefreshToken)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session (id, username, access_token, id_token, refresh_token, expires_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username      = excluded.username,
			access_token  = excluded.access_token,
			id_token      = excluded.id_token,
			refresh_token = excluded.refresh_token,
			expires_at    = excluded.expires_at,
			updated_at    = excluded.updated_at`,
		sess.Username, access, id, refresh, sess.ExpiresAt.Unix(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the stored session, or ErrNoSession when there is none.
func (s *Store) Load(ctx context.Context) (Session, error) {
	var (
		sess      Session
		access    []byte
		id        []byte
		refresh   []byte
		expiresAt int64
	)

	row := s.db.QueryRowContext(ctx, `
		SELECT username, access_token, id_token, refresh_token, expires_at
		FROM session WHERE id = 1`)
	if err := row.Scan(&sess.Username, &access, &id, &refresh, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	var err error
	if sess.AccessToken, err = s.open(access); err != nil {
		return Session{}, fmt.Errorf("failed to decrypt session: %w", err)
	}
	if sess.IDToken, err = s.open(id); err != nil {
		return Session{}, fmt.Errorf("failed to decrypt session: %w", err)
	}
	if sess.RefreshToken, err = s.open(refresh); err != nil {
		return Session{}, fmt.Errorf("failed to decrypt session: %w", err)
	}

	sess.ExpiresAt = time.Unix(expiresAt, 0)
	return sess, nil
}

// Clear removes any stored session.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// seal encrypts plaintext as nonce||ciphertext.
func (s *Store) seal(plaintext string) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

func (s *Store) open(blob []byte) (string, error) {
	if len(blob) < s.aead.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := blob[:s.aead.NonceSize()], blob[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// loadOrCreateKey reads the AEAD key file, generating one on first run.
func loadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("key file %s has wrong size %d", path, len(key))
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}
