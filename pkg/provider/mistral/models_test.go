package mistral

import (
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestBuiltinModels(t *testing.T) {
	models := BuiltinModels()
	if len(models) == 0 {
		t.Fatal("catalog is empty")
	}

	seen := make(map[string]bool)
	for _, m := range models {
		if seen[m.ID] {
			t.Errorf("duplicate model %q", m.ID)
		}
		seen[m.ID] = true
		if m.MaxTokens <= 0 {
			t.Errorf("%s: MaxTokens = %d", m.ID, m.MaxTokens)
		}
		if m.Custom {
			t.Errorf("%s: built-in marked custom", m.ID)
		}
	}

	for _, id := range []string{DefaultModelID, DefaultFastModelID} {
		if _, ok := LookupBuiltin(id); !ok {
			t.Errorf("default model %q not in catalog", id)
		}
	}

	models[0].ID = "mutated"
	if _, ok := LookupBuiltin("mutated"); ok {
		t.Error("BuiltinModels should return a copy")
	}
}

func TestAvailableModel_Model(t *testing.T) {
	tests := []struct {
		name string
		in   AvailableModel
		want Model
	}{
		{
			name: "defaults",
			in:   AvailableModel{Name: "my-model"},
			want: Model{ID: "my-model", MaxTokens: defaultCustomMaxToken, Custom: true},
		},
		{
			name: "full",
			in: AvailableModel{
				Name: "ft:small", DisplayName: "Fine tuned", MaxTokens: 64000, MaxOutputTokens: 4096,
				SupportsTools: boolPtr(true), SupportsImages: boolPtr(true),
			},
			want: Model{ID: "ft:small", DisplayName: "Fine tuned", MaxTokens: 64000, MaxOutputTokens: 4096,
				SupportsTools: true, SupportsImages: true, Custom: true},
		},
		{
			name: "completion tokens fallback",
			in:   AvailableModel{Name: "c", MaxTokens: 1000, MaxCompletionTokens: 256},
			want: Model{ID: "c", MaxTokens: 1000, MaxOutputTokens: 256, Custom: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Model(); got != tt.want {
				t.Errorf("Model() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAvailableModel_Validate(t *testing.T) {
	if err := (AvailableModel{Name: "ok", MaxTokens: 10}).Validate(); err != nil {
		t.Errorf("valid model rejected: %v", err)
	}
	if err := (AvailableModel{MaxTokens: -1, MaxOutputTokens: -1}).Validate(); err == nil {
		t.Error("expected validation error")
	}
}

func TestModelName(t *testing.T) {
	if got := (Model{ID: "x"}).Name(); got != "x" {
		t.Errorf("Name() = %q, want x", got)
	}
	if got := (Model{ID: "x", DisplayName: "X"}).Name(); got != "X" {
		t.Errorf("Name() = %q, want X", got)
	}
}

func TestMergeModels(t *testing.T) {
	merged := mergeModels([]AvailableModel{
		{Name: ModelSmall, DisplayName: "Small override", MaxTokens: 99},
		{Name: "aaa-custom", MaxTokens: 10},
		{Name: ""},
	})

	if len(merged) != len(builtinModels)+1 {
		t.Fatalf("len = %d, want %d", len(merged), len(builtinModels)+1)
	}
	for i := 1; i < len(merged); i++ {
		if merged[i-1].ID >= merged[i].ID {
			t.Errorf("models not sorted: %q before %q", merged[i-1].ID, merged[i].ID)
		}
	}
	if merged[0].ID != "aaa-custom" {
		t.Errorf("first model = %q", merged[0].ID)
	}

	for _, m := range merged {
		if m.ID == ModelSmall {
			if !m.Custom || m.DisplayName != "Small override" || m.MaxTokens != 99 {
				t.Errorf("override not applied: %+v", m)
			}
		}
	}
}
