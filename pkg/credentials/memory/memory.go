// Package memory provides an in-memory credentials.Store for tests and
// short-lived processes. Credentials are lost when the process exits.
package memory

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/rhuss/mistral-bridge/pkg/credentials"
)

// Store is an in-memory credential store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]credentials.Credential
}

// Ensure Store implements credentials.Store at compile time.
var _ credentials.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{entries: make(map[string]credentials.Credential)}
}

// Read returns a copy of the stored credential.
func (s *Store) Read(_ context.Context, url string) (*credentials.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.entries[url]
	if !ok {
		return nil, credentials.ErrNotFound
	}
	c.Secret = bytes.Clone(c.Secret)
	return &c, nil
}

// Write stores a copy of secret.
func (s *Store) Write(_ context.Context, url, username string, secret []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[url] = credentials.Credential{
		URL:       url,
		Username:  username,
		Secret:    bytes.Clone(secret),
		UpdatedAt: time.Now(),
	}
	return nil
}

// Delete removes the entry for url.
func (s *Store) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, url)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
