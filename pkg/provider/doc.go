// Package provider defines the contracts between callers and language model
// backends. A LanguageModelProvider owns authentication and the model
// catalog; each LanguageModel streams completions as api.Event values.
// Backend wire formats stay inside the adapter packages.
package provider
