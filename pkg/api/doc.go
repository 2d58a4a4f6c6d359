// Package api defines the vendor-neutral types shared by every part of
// mistral-bridge: the chat request model, the streaming event model and the
// error taxonomy.
//
// Content and roles are closed sets. Every switch over ContentKind or Role in
// this module is exhaustive, so adding a kind forces each translation site
// to decide what to do with it.
//
// Core types:
//   - [Request]: ordered messages, tool definitions, tool choice, temperature
//   - [Message] and [Content]: role-tagged, ordered content parts
//   - [Event]: one item of a completion stream (text, usage, tool use, stop, error)
//   - [APIError]: structured error with type, code, param, and message
//
// The package has no external dependencies and performs no I/O.
package api
