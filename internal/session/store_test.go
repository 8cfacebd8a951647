package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ankit76350/whistleblower/internal/session"
)

func TestStoreEmpty(t *testing.T) {
	store := session.NewStore("test-session")

	key, err := store.SecretKey()
	assert.ErrorIs(t, err, session.ErrNoSecretKey)
	assert.Empty(t, key)
	assert.Equal(t, "test-session", store.Namespace())
}

func TestStoreRoundTrip(t *testing.T) {
	store := session.NewStore("test-session")
	store.SetSecretKey("abc123")

	key, err := store.SecretKey()
	assert.NoError(t, err)
	assert.Equal(t, "abc123", key)
}

func TestStoreClear(t *testing.T) {
	store := session.NewStore("test-session")
	store.SetSecretKey("abc123")
	store.Clear()

	_, err := store.SecretKey()
	assert.ErrorIs(t, err, session.ErrNoSecretKey)
}
