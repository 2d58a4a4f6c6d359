// Package credentials defines the store used to persist provider API keys.
// Entries are keyed by the provider's API URL, so two deployments of the
// same provider keep separate keys.
//
// Implementations live in the memory, file and postgres subpackages.
package credentials

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Read when no credential exists for the URL.
var ErrNotFound = errors.New("credential not found")

// Credential is a stored secret and the user name it was written with.
type Credential struct {
	URL       string
	Username  string
	Secret    []byte
	UpdatedAt time.Time
}

// Store reads and writes credentials keyed by URL.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Store interface {
	// Read returns the credential for url, or ErrNotFound.
	Read(ctx context.Context, url string) (*Credential, error)

	// Write creates or replaces the credential for url.
	Write(ctx context.Context, url, username string, secret []byte) error

	// Delete removes the credential for url. Deleting a missing entry is
	// not an error.
	Delete(ctx context.Context, url string) error

	// Close releases store resources.
	Close() error
}
