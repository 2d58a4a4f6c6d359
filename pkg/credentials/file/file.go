// Package file provides a credentials.Store backed by a YAML file with
// owner-only permissions. Every write rewrites the file atomically.
package file

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rhuss/mistral-bridge/pkg/credentials"
	"github.com/rhuss/mistral-bridge/pkg/debug"
)

// fileMode is applied to the credentials file; the directory gets 0700.
const fileMode = 0o600

// document is the on-disk layout.
type document struct {
	Credentials []entry `yaml:"credentials"`
}

type entry struct {
	URL       string    `yaml:"url"`
	Username  string    `yaml:"username"`
	Secret    string    `yaml:"secret"` // base64
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Store keeps credentials in a single YAML file.
type Store struct {
	mu   sync.Mutex
	path string
}

// Ensure Store implements credentials.Store at compile time.
var _ credentials.Store = (*Store)(nil)

// New returns a store for path. The file is created on first write.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("credentials file path is required")
	}
	return &Store{path: path}, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/mistral-bridge/credentials.yaml,
// falling back to the user config directory.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		dir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("locating config directory: %w", err)
		}
	}
	return filepath.Join(dir, "mistral-bridge", "credentials.yaml"), nil
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Read returns the credential for url.
func (s *Store) Read(_ context.Context, url string) (*credentials.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, e := range doc.Credentials {
		if e.URL != url {
			continue
		}
		secret, err := base64.StdEncoding.DecodeString(e.Secret)
		if err != nil {
			return nil, fmt.Errorf("decoding secret for %s: %w", url, err)
		}
		return &credentials.Credential{
			URL:       e.URL,
			Username:  e.Username,
			Secret:    secret,
			UpdatedAt: e.UpdatedAt,
		}, nil
	}
	return nil, credentials.ErrNotFound
}

// Write creates or replaces the credential for url.
func (s *Store) Write(_ context.Context, url, username string, secret []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	e := entry{
		URL:       url,
		Username:  username,
		Secret:    base64.StdEncoding.EncodeToString(secret),
		UpdatedAt: time.Now().UTC(),
	}
	replaced := false
	for i := range doc.Credentials {
		if doc.Credentials[i].URL == url {
			doc.Credentials[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Credentials = append(doc.Credentials, e)
	}

	debug.Log(debug.Credentials, "writing credential", "path", s.path, "url", url)
	return s.save(doc)
}

// Delete removes the credential for url.
func (s *Store) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	kept := doc.Credentials[:0]
	for _, e := range doc.Credentials {
		if e.URL != url {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(doc.Credentials) {
		return nil
	}
	doc.Credentials = kept

	debug.Log(debug.Credentials, "deleting credential", "path", s.path, "url", url)
	return s.save(doc)
}

// Close is a no-op; the file is not held open.
func (s *Store) Close() error {
	return nil
}

func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing credentials file %s: %w", s.path, err)
	}
	return &doc, nil
}

func (s *Store) save(doc *document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing credentials file: %w", err)
	}
	return nil
}
