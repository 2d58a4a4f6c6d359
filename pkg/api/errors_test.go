package api

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestAPIErrorInterface(t *testing.T) {
	var _ error = &APIError{}
}

func TestAPIErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			"with param",
			&APIError{Type: ErrorTypeInvalidRequest, Param: "tools[0].name", Message: "is required"},
			"invalid_request: is required (param: tools[0].name)",
		},
		{
			"without param",
			&APIError{Type: ErrorTypeTransport, Message: "connection refused"},
			"transport_error: connection refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("APIError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *APIError
		wantType  ErrorType
		wantParam string
	}{
		{"invalid request", NewInvalidRequestError("messages", "bad"), ErrorTypeInvalidRequest, "messages"},
		{"not found", NewNotFoundError("model not found"), ErrorTypeNotFound, ""},
		{"server error", NewServerError("internal failure"), ErrorTypeServerError, ""},
		{"too many requests", NewTooManyRequestsError("rate limit exceeded"), ErrorTypeTooManyRequests, ""},
		{"authentication", NewAuthenticationError("bad key"), ErrorTypeAuthentication, ""},
		{"configuration", NewConfigurationError("missing api key"), ErrorTypeConfiguration, ""},
		{"transport", NewTransportError("dial failed"), ErrorTypeTransport, ""},
		{"protocol", NewProtocolError("Response contained no choices"), ErrorTypeProtocol, ""},
		{"incomplete tool call", NewIncompleteToolCallError("missing id"), ErrorTypeIncompleteToolCall, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", tt.err.Type, tt.wantType)
			}
			if tt.err.Param != tt.wantParam {
				t.Errorf("Param = %q, want %q", tt.err.Param, tt.wantParam)
			}
		})
	}
}

func TestAPIErrorRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want bool
	}{
		{"rate limited", NewTooManyRequestsError("slow down"), true},
		{"network failure", NewTransportError("reset"), true},
		{"bad gateway", &APIError{Type: ErrorTypeServerError, StatusCode: 502}, true},
		{"client error", &APIError{Type: ErrorTypeTransport, StatusCode: 400}, false},
		{"auth", NewAuthenticationError("no"), false},
		{"protocol", NewProtocolError("garbled"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Retryable(); got != tt.want {
				t.Errorf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsErrorType(t *testing.T) {
	wrapped := fmt.Errorf("streaming: %w", NewProtocolError("no choices"))
	if !IsErrorType(wrapped, ErrorTypeProtocol) {
		t.Error("expected wrapped protocol error to match")
	}
	if IsErrorType(wrapped, ErrorTypeTransport) {
		t.Error("protocol error must not match transport type")
	}
	if IsErrorType(fmt.Errorf("plain"), ErrorTypeProtocol) {
		t.Error("non-API error must not match")
	}
}

func TestAPIErrorOmitEmpty(t *testing.T) {
	err := &APIError{Type: ErrorTypeServerError, Message: "fail", StatusCode: 500}
	data, marshalErr := json.Marshal(err)
	if marshalErr != nil {
		t.Fatalf("Marshal: %v", marshalErr)
	}

	var m map[string]interface{}
	if unmarshalErr := json.Unmarshal(data, &m); unmarshalErr != nil {
		t.Fatalf("Unmarshal: %v", unmarshalErr)
	}

	if _, ok := m["code"]; ok {
		t.Error("empty code should be omitted from JSON")
	}
	if _, ok := m["param"]; ok {
		t.Error("empty param should be omitted from JSON")
	}
	if _, ok := m["StatusCode"]; ok {
		t.Error("status code must not be serialized")
	}
}
