package mistral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/rhuss/mistral-bridge/pkg/credentials"
	"github.com/rhuss/mistral-bridge/pkg/debug"
)

// APIKeyEnvVar names the environment variable consulted before the
// credential store.
const APIKeyEnvVar = "MISTRAL_API_KEY"

// credentialUsername is stored alongside the key.
const credentialUsername = "Bearer"

// State holds the provider's resolved API key. It is read by every call at
// setup time and written only by Authenticate, SetAPIKey and ResetAPIKey.
type State struct {
	mu            sync.RWMutex
	apiKey        string
	apiKeyFromEnv bool
	apiURL        string

	store     credentials.Store
	lookupEnv func(string) (string, bool)
}

// NewState creates an unauthenticated state for apiURL. An empty apiURL
// means DefaultAPIURL.
func NewState(apiURL string, store credentials.Store) *State {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &State{
		apiURL:    apiURL,
		store:     store,
		lookupEnv: os.LookupEnv,
	}
}

// IsAuthenticated reports whether a key is available.
func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey != ""
}

// APIKeyFromEnv reports whether the current key came from APIKeyEnvVar.
func (s *State) APIKeyFromEnv() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKeyFromEnv
}

// APIURL returns the base URL credentials are keyed by.
func (s *State) APIURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiURL
}

// SetAPIURL switches the base URL. A key loaded from the store for the
// previous URL is dropped; an environment key is kept.
func (s *State) SetAPIURL(apiURL string) {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if apiURL == s.apiURL {
		return
	}
	s.apiURL = apiURL
	if !s.apiKeyFromEnv {
		s.apiKey = ""
	}
}

// Credentials returns the key and URL a call should use. The key is empty
// when the state is not authenticated.
func (s *State) Credentials() (apiKey, apiURL string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey, s.apiURL
}

// Authenticate resolves a key, first from APIKeyEnvVar, then from the
// credential store. It returns immediately if a key is already loaded.
func (s *State) Authenticate(ctx context.Context) error {
	if s.IsAuthenticated() {
		return nil
	}

	if key, ok := s.lookupEnv(APIKeyEnvVar); ok && key != "" {
		s.mu.Lock()
		s.apiKey = key
		s.apiKeyFromEnv = true
		s.mu.Unlock()
		debug.Log(debug.Credentials, "using api key from environment", "var", APIKeyEnvVar)
		return nil
	}

	if s.store == nil {
		return ErrCredentialsNotFound
	}

	apiURL := s.APIURL()
	cred, err := s.store.Read(ctx, apiURL)
	if errors.Is(err, credentials.ErrNotFound) {
		return ErrCredentialsNotFound
	}
	if err != nil {
		return fmt.Errorf("reading mistral credentials: %w", err)
	}
	if !utf8.Valid(cred.Secret) {
		return errors.New("stored mistral api key is not valid UTF-8")
	}
	if len(cred.Secret) == 0 {
		return ErrCredentialsNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.apiURL != apiURL {
		// URL changed while reading; the key belongs to another endpoint.
		return ErrCredentialsNotFound
	}
	s.apiKey = string(cred.Secret)
	s.apiKeyFromEnv = false
	debug.Log(debug.Credentials, "loaded api key from store", "url", apiURL, "api_key", debug.RedactKey(s.apiKey))
	return nil
}

// SetAPIKey stores key for the current URL and makes it the active key.
func (s *State) SetAPIKey(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("api key must not be empty")
	}
	apiURL := s.APIURL()
	if s.store != nil {
		if err := s.store.Write(ctx, apiURL, credentialUsername, []byte(key)); err != nil {
			return fmt.Errorf("storing mistral credentials: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
	s.apiKeyFromEnv = false
	return nil
}

// ResetAPIKey removes the stored key and clears the active one. Store
// failures are logged; the in-memory key is cleared regardless.
func (s *State) ResetAPIKey(ctx context.Context) error {
	apiURL := s.APIURL()
	if s.store != nil {
		if err := s.store.Delete(ctx, apiURL); err != nil {
			slog.Error("failed to delete mistral credentials", "url", apiURL, "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = ""
	s.apiKeyFromEnv = false
	return nil
}
