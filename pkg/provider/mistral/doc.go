// Package mistral implements the provider contracts for the Mistral Chat
// Completions API. IntoMistral translates vendor-neutral requests into the
// wire format, Client opens the SSE stream, and EventMapper rebuilds
// text, usage and tool calls from the streamed chunks. Each model allows
// four concurrent streams; further calls queue.
package mistral
