package session

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "session.db"), filepath.Join(dir, "session.key"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	want := Session{
		Username:     "alice@example.com",
		AccessToken:  "access-token-value",
		IDToken:      "id-token-value",
		RefreshToken: "refresh-token-value",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
	}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want.Username, got.Username)
	require.Equal(t, want.AccessToken, got.AccessToken)
	require.Equal(t, want.IDToken, got.IDToken)
	require.Equal(t, want.RefreshToken, got.RefreshToken)
	require.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
}

func TestStoreLoadEmpty(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}

func TestStoreSaveOverwrites(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	first := Session{Username: "alice@example.com", AccessToken: "a1", IDToken: "i1", RefreshToken: "r1", ExpiresAt: time.Now().Add(time.Hour)}
	second := Session{Username: "bob@example.com", AccessToken: "a2", IDToken: "i2", RefreshToken: "r2", ExpiresAt: time.Now().Add(2 * time.Hour)}

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", got.Username)
	require.Equal(t, "a2", got.AccessToken)
}

func TestStoreClear(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	sess := Session{Username: "alice@example.com", AccessToken: "a", IDToken: "i", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.Clear(ctx))

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestStoreTokensEncryptedAtRest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "session.db")
	store, err := Open(dbPath, filepath.Join(dir, "session.key"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	sess := Session{Username: "alice@example.com", AccessToken: "super-secret-access", IDToken: "i", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, sess))

	// Read the raw column back and confirm the plaintext is not in it.
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var raw []byte
	require.NoError(t, db.QueryRow(`SELECT access_token FROM session WHERE id = 1`).Scan(&raw))
	require.NotContains(t, string(raw), "super-secret-access")
}

func TestStoreKeyFilePermissions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	keyPath := filepath.Join(dir, "session.key")
	store, err := Open(filepath.Join(dir, "session.db"), keyPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStoreKeyReuseAcrossOpens(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "session.db")
	keyPath := filepath.Join(dir, "session.key")

	store, err := Open(dbPath, keyPath)
	require.NoError(t, err)

	ctx := context.Background()
	sess := Session{Username: "alice@example.com", AccessToken: "a", IDToken: "i", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.Close())

	reopened, err := Open(dbPath, keyPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", got.AccessToken)
}

func TestSessionExpired(t *testing.T) {
	t.Parallel()

	require.True(t, Session{ExpiresAt: time.Now().Add(-time.Minute)}.Expired())
	require.False(t, Session{ExpiresAt: time.Now().Add(time.Minute)}.Expired())
	require.False(t, Session{}.Expired())
}
