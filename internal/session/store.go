// Package session holds the reporter's secret key for the lifetime of one
// client session. The key is kept in memory only; it is never written to
// durable storage, to bound the blast radius of a leaked token.
package session

import (
	"errors"
	"sync"
)

// ErrNoSecretKey signals that no key is available for the current session.
// It is a routing precondition, not a failure: the caller must route the
// user to key entry instead of issuing any request.
var ErrNoSecretKey = errors.New("no secret key in session")

// Store is a session-scoped holder for the reporter's secret key.
type Store struct {
	mu        sync.Mutex
	namespace string
	secretKey string
}

// NewStore creates an empty session store under the given namespace.
func NewStore(namespace string) *Store {
	return &Store{namespace: namespace}
}

// SetSecretKey stores the key for this session. An empty key clears it.
func (s *Store) SetSecretKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secretKey = key
}

// SecretKey returns the stored key, or ErrNoSecretKey when absent.
func (s *Store) SecretKey() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.secretKey == "" {
		return "", ErrNoSecretKey
	}
	return s.secretKey, nil
}

// Clear drops the key, ending reporter access for this session.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secretKey = ""
}

// Namespace reports the storage namespace this session is keyed under.
func (s *Store) Namespace() string { return s.namespace }
