package api

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of an API error.
type ErrorType string

const (
	ErrorTypeServerError        ErrorType = "server_error"
	ErrorTypeInvalidRequest     ErrorType = "invalid_request"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeTooManyRequests    ErrorType = "too_many_requests"
	ErrorTypeAuthentication     ErrorType = "authentication_error"
	ErrorTypeConfiguration      ErrorType = "configuration_error"
	ErrorTypeTransport          ErrorType = "transport_error"
	ErrorTypeProtocol           ErrorType = "protocol_error"
	ErrorTypeIncompleteToolCall ErrorType = "incomplete_tool_call"
)

// APIError represents a structured error with type, code, param, and message.
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`

	// StatusCode is the HTTP status returned by the provider, if any.
	StatusCode int `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Retryable reports whether the caller may reasonably try the request again.
// Nothing in this module retries on its own.
func (e *APIError) Retryable() bool {
	switch e.Type {
	case ErrorTypeTooManyRequests:
		return true
	case ErrorTypeTransport, ErrorTypeServerError:
		return e.StatusCode == 0 || e.StatusCode >= 500
	default:
		return false
	}
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewNotFoundError creates an APIError for resources that cannot be found.
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewServerError creates an APIError for internal errors.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}

// NewTooManyRequestsError creates an APIError for rate limiting.
func NewTooManyRequestsError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeTooManyRequests,
		Message: message,
	}
}

// NewAuthenticationError creates an APIError for rejected credentials.
func NewAuthenticationError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeAuthentication,
		Message: message,
	}
}

// NewConfigurationError creates an APIError for setup problems detected
// before any network call, such as a missing API key.
func NewConfigurationError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeConfiguration,
		Message: message,
	}
}

// NewTransportError creates an APIError for network or HTTP failures.
func NewTransportError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeTransport,
		Message: message,
	}
}

// NewProtocolError creates an APIError for stream chunks with an
// unexpected shape.
func NewProtocolError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeProtocol,
		Message: message,
	}
}

// NewIncompleteToolCallError creates an APIError for a tool call that
// finished without an id or a name.
func NewIncompleteToolCallError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeIncompleteToolCall,
		Message: message,
	}
}

// IsErrorType reports whether err is an *APIError of the given type.
func IsErrorType(err error, t ErrorType) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == t
	}
	return false
}
