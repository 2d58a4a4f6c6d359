package mistral

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rhuss/mistral-bridge/pkg/api"
)

// ErrMissingAPIKey is returned when a call is attempted without an API key.
var ErrMissingAPIKey = errors.New("missing Mistral API key")

// ErrCredentialsNotFound is returned by Authenticate when neither the
// environment nor the credential store holds a key.
var ErrCredentialsNotFound = errors.New("mistral credentials not found")

// missingKeyError matches both ErrMissingAPIKey and the configuration
// error type.
func missingKeyError() error {
	return fmt.Errorf("%w: %w", ErrMissingAPIKey,
		api.NewConfigurationError("no Mistral API key configured; set "+APIKeyEnvVar+" or store a key"))
}

// MapHTTPError converts an HTTP response with a non-2xx status code into
// an APIError. It attempts to parse the response body as an ErrorResponse
// to extract a descriptive message.
func MapHTTPError(resp *http.Response) *api.APIError {
	message := ExtractErrorMessage(resp.Body)

	var apiErr *api.APIError
	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		if message == "" {
			message = "invalid request to Mistral"
		}
		apiErr = api.NewInvalidRequestError("", message)

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if message == "" {
			message = "Mistral rejected the API key"
		}
		apiErr = api.NewAuthenticationError(message)

	case resp.StatusCode == http.StatusNotFound:
		if message == "" {
			message = "Mistral resource not found"
		}
		apiErr = api.NewNotFoundError(message)

	case resp.StatusCode == http.StatusTooManyRequests:
		if message == "" {
			message = "Mistral rate limit exceeded"
		}
		apiErr = api.NewTooManyRequestsError(message)

	case resp.StatusCode >= http.StatusInternalServerError:
		if message == "" {
			message = fmt.Sprintf("Mistral server error (HTTP %d)", resp.StatusCode)
		}
		apiErr = api.NewServerError(message)

	default:
		if message == "" {
			message = fmt.Sprintf("unexpected Mistral response (HTTP %d)", resp.StatusCode)
		}
		apiErr = api.NewTransportError(message)
	}

	apiErr.StatusCode = resp.StatusCode
	return apiErr
}

// MapNetworkError converts a network-level error (connection refused, timeout,
// DNS resolution failure) into an APIError with a descriptive message.
func MapNetworkError(err error) *api.APIError {
	return api.NewTransportError(fmt.Sprintf("Mistral connection error: %s", err.Error()))
}

// MapStreamError converts a failure while reading the event stream.
func MapStreamError(err error) *api.APIError {
	return api.NewTransportError(fmt.Sprintf("Mistral stream error: %s", err.Error()))
}

// ExtractErrorMessage tries to parse the response body as an ErrorResponse
// and returns the error message if found.
func ExtractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(data, &errResp); err != nil {
		return ""
	}
	if errResp.Error != nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	switch msg := errResp.Message.(type) {
	case string:
		if msg != "" {
			return msg
		}
	case nil:
	default:
		// Validation failures carry structured detail.
		if b, err := json.Marshal(msg); err == nil {
			return string(b)
		}
	}
	if errResp.Detail != nil {
		if s, ok := errResp.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(errResp.Detail); err == nil {
			return string(b)
		}
	}
	return ""
}
