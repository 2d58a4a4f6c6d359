package mistral

import (
	"errors"
	"fmt"
	"sort"
)

// Model identifiers offered out of the box.
const (
	ModelCodestral        = "codestral-latest"
	ModelLarge            = "mistral-large-latest"
	ModelMedium           = "mistral-medium-latest"
	ModelSmall            = "mistral-small-latest"
	ModelMagistralMedium  = "magistral-medium-latest"
	ModelMagistralSmall   = "magistral-small-latest"
	ModelNemo             = "open-mistral-nemo"
	ModelCodestralMamba   = "open-codestral-mamba"
	ModelDevstralMedium   = "devstral-medium-latest"
	ModelDevstralSmall    = "devstral-small-latest"
	ModelPixtral12B       = "pixtral-12b-latest"
	ModelPixtralLarge     = "pixtral-large-latest"
	DefaultModelID        = ModelSmall
	DefaultFastModelID    = ModelSmall
	defaultCustomMaxToken = 32000
)

// Model describes one Mistral model.
type Model struct {
	ID          string
	DisplayName string

	// MaxTokens is the context window.
	MaxTokens int

	// MaxOutputTokens is sent as max_tokens when positive.
	MaxOutputTokens int

	SupportsTools  bool
	SupportsImages bool

	// Custom marks models defined in settings.
	Custom bool
}

// Name returns the display name, falling back to the ID.
func (m Model) Name() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.ID
}

var builtinModels = []Model{
	{ID: ModelCodestral, DisplayName: "codestral-latest", MaxTokens: 256000, SupportsTools: true},
	{ID: ModelLarge, DisplayName: "mistral-large-latest", MaxTokens: 131000, SupportsTools: true},
	{ID: ModelMedium, DisplayName: "mistral-medium-latest", MaxTokens: 128000, SupportsTools: true, SupportsImages: true},
	{ID: ModelSmall, DisplayName: "mistral-small-latest", MaxTokens: 32000, SupportsTools: true, SupportsImages: true},
	{ID: ModelMagistralMedium, DisplayName: "magistral-medium-latest", MaxTokens: 40000, SupportsTools: true},
	{ID: ModelMagistralSmall, DisplayName: "magistral-small-latest", MaxTokens: 40000, SupportsTools: true},
	{ID: ModelNemo, DisplayName: "open-mistral-nemo", MaxTokens: 131000, SupportsTools: true},
	{ID: ModelCodestralMamba, DisplayName: "open-codestral-mamba", MaxTokens: 256000},
	{ID: ModelDevstralMedium, DisplayName: "devstral-medium-latest", MaxTokens: 128000, SupportsTools: true},
	{ID: ModelDevstralSmall, DisplayName: "devstral-small-latest", MaxTokens: 262144, SupportsTools: true},
	{ID: ModelPixtral12B, DisplayName: "pixtral-12b-latest", MaxTokens: 128000, SupportsTools: true, SupportsImages: true},
	{ID: ModelPixtralLarge, DisplayName: "pixtral-large-latest", MaxTokens: 128000, SupportsTools: true, SupportsImages: true},
}

// BuiltinModels returns a copy of the built-in catalog.
func BuiltinModels() []Model {
	out := make([]Model, len(builtinModels))
	copy(out, builtinModels)
	return out
}

// LookupBuiltin returns the built-in model with id.
func LookupBuiltin(id string) (Model, bool) {
	for _, m := range builtinModels {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// AvailableModel is a model declared in settings. It adds to or replaces
// the built-in entry with the same name.
type AvailableModel struct {
	Name                string `yaml:"name" json:"name"`
	DisplayName         string `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	MaxTokens           int    `yaml:"max_tokens" json:"max_tokens"`
	MaxOutputTokens     int    `yaml:"max_output_tokens,omitempty" json:"max_output_tokens,omitempty"`
	MaxCompletionTokens int    `yaml:"max_completion_tokens,omitempty" json:"max_completion_tokens,omitempty"`
	SupportsTools       *bool  `yaml:"supports_tools,omitempty" json:"supports_tools,omitempty"`
	SupportsImages      *bool  `yaml:"supports_images,omitempty" json:"supports_images,omitempty"`
}

// Validate checks the declared limits.
func (a AvailableModel) Validate() error {
	var errs []error
	if a.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if a.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be >= 0, got %d", a.MaxTokens))
	}
	if a.MaxOutputTokens < 0 {
		errs = append(errs, fmt.Errorf("max_output_tokens must be >= 0, got %d", a.MaxOutputTokens))
	}
	if a.MaxCompletionTokens < 0 {
		errs = append(errs, fmt.Errorf("max_completion_tokens must be >= 0, got %d", a.MaxCompletionTokens))
	}
	return errors.Join(errs...)
}

// Model converts the declaration. Unset capabilities default to false and
// max_completion_tokens stands in for a missing max_output_tokens.
func (a AvailableModel) Model() Model {
	maxTokens := a.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultCustomMaxToken
	}
	maxOutput := a.MaxOutputTokens
	if maxOutput == 0 {
		maxOutput = a.MaxCompletionTokens
	}
	return Model{
		ID:              a.Name,
		DisplayName:     a.DisplayName,
		MaxTokens:       maxTokens,
		MaxOutputTokens: maxOutput,
		SupportsTools:   a.SupportsTools != nil && *a.SupportsTools,
		SupportsImages:  a.SupportsImages != nil && *a.SupportsImages,
		Custom:          true,
	}
}

// mergeModels overlays the settings models onto the built-ins and returns
// the result sorted by ID.
func mergeModels(available []AvailableModel) []Model {
	byID := make(map[string]Model, len(builtinModels)+len(available))
	for _, m := range builtinModels {
		byID[m.ID] = m
	}
	for _, a := range available {
		if a.Name == "" {
			continue
		}
		byID[a.Name] = a.Model()
	}

	out := make([]Model, 0, len(byID))
	for _, m := range byID {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
