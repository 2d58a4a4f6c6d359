package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rhuss/mistral-bridge/pkg/observability"
	"github.com/rhuss/mistral-bridge/pkg/provider/mistral"
)

func newHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handleChatCompletions)
	mux.HandleFunc("GET /v1/models", handleModels)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n"))
	})
	return observability.Chain(
		observability.RequestID(),
		observability.Recovery(),
		observability.Logging(slog.Default()),
	)(requireKey(mux))
}

// requireKey rejects API calls without a bearer token, like the real API.
func requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"object":  "error",
		"message": message,
		"type":    "invalid_request_error",
		"code":    status,
	})
}

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req mistral.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !req.Stream {
		writeError(w, http.StatusBadRequest, "only streaming requests are supported")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}

	s := &chunkStream{w: w, id: "cmpl-" + uuid.NewString(), model: req.Model}
	s.flusher, _ = w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	prompt := promptTokens(req)
	last := req.Messages[len(req.Messages)-1]

	switch {
	case last.Role == mistral.RoleTool:
		s.text("Tool result: " + last.Text())
		s.finish("stop", prompt)

	case toolFor(req) != "":
		name := toolFor(req)
		s.toolCall("call_"+strings.ReplaceAll(uuid.NewString(), "-", "")[:9], name, toolArguments(name, last.Text()))
		s.finish("tool_calls", prompt)

	default:
		s.text("You said: " + userText(last))
		s.finish("stop", prompt)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

// toolFor returns the first offered tool named in the last user message.
// tool_choice "none" never yields a call, "any" always does.
func toolFor(req mistral.Request) string {
	if len(req.Tools) == 0 {
		return ""
	}
	if req.ToolChoice != nil && *req.ToolChoice == mistral.ToolChoiceNone {
		return ""
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != mistral.RoleUser {
		return ""
	}
	text := strings.ToLower(userText(last))
	for _, t := range req.Tools {
		if strings.Contains(text, strings.ToLower(t.Function.Name)) {
			return t.Function.Name
		}
	}
	if req.ToolChoice != nil && *req.ToolChoice == mistral.ToolChoiceAny {
		return req.Tools[0].Function.Name
	}
	return ""
}

func toolArguments(name, prompt string) string {
	if name == "echo" {
		b, _ := json.Marshal(map[string]string{"message": prompt})
		return string(b)
	}
	return "{}"
}

func userText(m mistral.RequestMessage) string {
	if m.Content == nil {
		return ""
	}
	if !m.Content.IsMultipart() {
		return m.Content.Plain
	}
	var parts []string
	images := 0
	for _, p := range m.Content.Parts {
		switch p.Type {
		case mistral.PartText:
			parts = append(parts, p.Text)
		case mistral.PartImageURL:
			images++
		}
	}
	if images > 0 {
		parts = append(parts, fmt.Sprintf("(%d image(s))", images))
	}
	return strings.Join(parts, " ")
}

// promptTokens approximates token usage by counting words.
func promptTokens(req mistral.Request) int {
	n := 0
	for _, m := range req.Messages {
		n += len(strings.Fields(userText(m)))
	}
	return n
}

// chunkStream writes Mistral stream chunks as SSE events.
type chunkStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	id      string
	model   string
	words   int
}

func (s *chunkStream) send(delta mistral.StreamDelta, finish *string, usage *mistral.Usage) {
	chunk := mistral.StreamResponse{
		ID:      s.id,
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   s.model,
		Choices: []mistral.StreamChoice{{Index: 0, Delta: delta, FinishReason: finish}},
		Usage:   usage,
	}
	data, _ := json.Marshal(chunk)
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

// text streams text word by word.
func (s *chunkStream) text(text string) {
	role := string(mistral.RoleAssistant)
	words := strings.SplitAfter(text, " ")
	for i, word := range words {
		delta := mistral.StreamDelta{Content: &word}
		if i == 0 {
			delta.Role = &role
		}
		s.send(delta, nil, nil)
	}
	s.words += len(words)
}

// toolCall streams one call with its arguments split in two fragments.
func (s *chunkStream) toolCall(id, name, args string) {
	half := len(args) / 2
	first, second := args[:half], args[half:]
	s.send(mistral.StreamDelta{ToolCalls: []mistral.ToolCallChunk{{
		Index:    0,
		ID:       &id,
		Function: &mistral.FunctionCallChunk{Name: &name, Arguments: &first},
	}}}, nil, nil)
	s.send(mistral.StreamDelta{ToolCalls: []mistral.ToolCallChunk{{
		Index:    0,
		Function: &mistral.FunctionCallChunk{Arguments: &second},
	}}}, nil, nil)
	s.words += 5
}

func (s *chunkStream) finish(reason string, promptTokens int) {
	s.send(mistral.StreamDelta{}, &reason, &mistral.Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: s.words,
		TotalTokens:      promptTokens + s.words,
	})
}

func handleModels(w http.ResponseWriter, _ *http.Request) {
	resp := mistral.ModelsResponse{Object: "list"}
	for _, m := range mistral.BuiltinModels() {
		resp.Data = append(resp.Data, mistral.ModelCard{
			ID:               m.ID,
			Object:           "model",
			OwnedBy:          "mistralai",
			Name:             m.Name(),
			MaxContextLength: m.MaxTokens,
			Capabilities: mistral.ModelCapabilities{
				CompletionChat:  true,
				FunctionCalling: m.SupportsTools,
				Vision:          m.SupportsImages,
			},
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
