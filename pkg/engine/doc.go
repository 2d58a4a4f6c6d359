// Package engine runs the tool loop on top of a provider.LanguageModel.
//
// A run streams one model call per turn, folds the events into an
// assistant message, and executes the requested tools through the
// configured executors. Tool results go back to the model as a user
// message and the next turn starts. The loop ends when the model answers
// without tools, when a call has no executor (the caller must act), when
// the context is cancelled, or after Config.MaxTurns model calls.
package engine
