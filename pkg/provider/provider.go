package provider

import (
	"context"

	"github.com/rhuss/mistral-bridge/pkg/api"
)

// LanguageModelProvider groups the models of one backend together with its
// authentication state.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type LanguageModelProvider interface {
	// ID returns the stable provider identifier (e.g., "mistral").
	ID() string

	// Name returns the human-readable provider name.
	Name() string

	// IsAuthenticated reports whether an API key is currently loaded.
	IsAuthenticated() bool

	// Authenticate loads an API key from the environment or the credential
	// store.
	Authenticate(ctx context.Context) error

	// ResetCredentials forgets the API key and removes it from the store.
	ResetCredentials(ctx context.Context) error

	// ProvidedModels returns every model the provider offers, sorted by ID.
	ProvidedModels() []LanguageModel

	// DefaultModel returns the model used when none is requested.
	DefaultModel() LanguageModel

	// DefaultFastModel returns the model used for cheap auxiliary requests.
	DefaultFastModel() LanguageModel
}

// LanguageModel is a single model bound to its provider's credentials and
// request limiter.
type LanguageModel interface {
	ID() string
	Name() string
	ProviderID() string
	ProviderName() string

	// TelemetryID identifies the model in logs and metrics ("provider/id").
	TelemetryID() string

	Capabilities() Capabilities

	// SupportsToolChoice reports whether the given tool choice can be sent.
	SupportsToolChoice(choice api.ToolChoice) bool

	// MaxTokenCount is the context window size.
	MaxTokenCount() int

	// MaxOutputTokens is the completion limit, or 0 when the backend
	// default applies.
	MaxOutputTokens() int

	// StreamCompletion sends req and returns the resulting events. The
	// channel is closed when the stream ends, fails, or ctx is cancelled.
	// Errors returned directly happen before any event is produced.
	StreamCompletion(ctx context.Context, req *api.Request) (<-chan api.Event, error)
}
