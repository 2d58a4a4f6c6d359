package mistral

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rhuss/mistral-bridge/pkg/credentials"
	"github.com/rhuss/mistral-bridge/pkg/provider"
)

// Provider identity.
const (
	ProviderID   = "mistral"
	ProviderName = "Mistral"
)

// Settings configures the provider.
type Settings struct {
	// APIURL is the base URL (default: DefaultAPIURL).
	APIURL string

	// AvailableModels adds models or overrides built-in ones by name.
	AvailableModels []AvailableModel

	// DefaultModel and DefaultFastModel name models from the merged
	// catalog. Empty values use DefaultModelID and DefaultFastModelID.
	DefaultModel     string
	DefaultFastModel string

	// Transport is the HTTP transport (default: http.DefaultTransport).
	Transport http.RoundTripper

	// Timeout bounds non-streaming requests such as model listing.
	Timeout time.Duration
}

// Provider offers the Mistral models. Model instances are created once per
// ID and reused, so every caller of a model shares its request limiter.
type Provider struct {
	state    *State
	client   *Client
	settings Settings

	mu     sync.Mutex
	models map[string]*LanguageModel
}

// Ensure Provider implements provider.LanguageModelProvider at compile time.
var _ provider.LanguageModelProvider = (*Provider)(nil)

// New creates a provider. store may be nil, in which case only the
// environment variable can supply a key.
func New(settings Settings, store credentials.Store) *Provider {
	return &Provider{
		state:    NewState(settings.APIURL, store),
		client:   NewClient(settings.Transport, settings.Timeout),
		settings: settings,
		models:   make(map[string]*LanguageModel),
	}
}

func (p *Provider) ID() string   { return ProviderID }
func (p *Provider) Name() string { return ProviderName }

// State returns the authentication state.
func (p *Provider) State() *State { return p.state }

// Client returns the HTTP client.
func (p *Provider) Client() *Client { return p.client }

func (p *Provider) IsAuthenticated() bool {
	return p.state.IsAuthenticated()
}

func (p *Provider) Authenticate(ctx context.Context) error {
	return p.state.Authenticate(ctx)
}

func (p *Provider) ResetCredentials(ctx context.Context) error {
	return p.state.ResetAPIKey(ctx)
}

// UpdateSettings applies new model and URL settings. The transport and
// timeout of a running provider are not changed.
func (p *Provider) UpdateSettings(settings Settings) {
	p.mu.Lock()
	p.settings.APIURL = settings.APIURL
	p.settings.AvailableModels = settings.AvailableModels
	p.settings.DefaultModel = settings.DefaultModel
	p.settings.DefaultFastModel = settings.DefaultFastModel
	p.mu.Unlock()

	p.state.SetAPIURL(settings.APIURL)
}

// ProvidedModels returns built-in and settings models sorted by ID.
func (p *Provider) ProvidedModels() []provider.LanguageModel {
	merged := mergeModels(p.currentSettings().AvailableModels)
	out := make([]provider.LanguageModel, 0, len(merged))
	for _, m := range merged {
		out = append(out, p.languageModel(m))
	}
	return out
}

// Model returns the provided model with id.
func (p *Provider) Model(id string) (*LanguageModel, bool) {
	for _, m := range mergeModels(p.currentSettings().AvailableModels) {
		if m.ID == id {
			return p.languageModel(m), true
		}
	}
	return nil, false
}

func (p *Provider) DefaultModel() provider.LanguageModel {
	return p.modelOrDefault(p.currentSettings().DefaultModel, DefaultModelID)
}

func (p *Provider) DefaultFastModel() provider.LanguageModel {
	return p.modelOrDefault(p.currentSettings().DefaultFastModel, DefaultFastModelID)
}

// RemoteModels lists the models the API reports for the current key.
func (p *Provider) RemoteModels(ctx context.Context) ([]ModelCard, error) {
	apiKey, apiURL := p.state.Credentials()
	return p.client.ListModels(ctx, apiURL, apiKey)
}

// Close releases idle HTTP connections.
func (p *Provider) Close() error {
	return p.client.Close()
}

func (p *Provider) currentSettings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

func (p *Provider) modelOrDefault(id, fallback string) *LanguageModel {
	if id != "" {
		if m, ok := p.Model(id); ok {
			return m
		}
	}
	m, _ := p.Model(fallback)
	return m
}

// languageModel returns the cached instance for m.ID, replacing it when
// the catalog entry changed.
func (p *Provider) languageModel(m Model) *LanguageModel {
	p.mu.Lock()
	defer p.mu.Unlock()

	if lm, ok := p.models[m.ID]; ok && lm.model == m {
		return lm
	}
	lm := newLanguageModel(m, p.state, p.client)
	p.models[m.ID] = lm
	return lm
}
