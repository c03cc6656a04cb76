package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ProviderError is a structured failure reported by OpenRouter: the request
// reached the provider and came back non-2xx.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	switch e.StatusCode {
	case 401:
		return "Invalid API key. Please check your OpenRouter API key."
	case 403:
		return "Access forbidden. Please check your API key permissions."
	case 404:
		return "The requested resource was not found."
	case 429:
		return "Rate limit exceeded. Please try again later."
	case 500:
		return "OpenRouter server error. Please try again later."
	default:
		if e.Message != "" {
			return fmt.Sprintf("Error: %s", e.Message)
		}
		return fmt.Sprintf("Error: request failed with status %d", e.StatusCode)
	}
}

// extractErrorMessage pulls a human-readable message from a response body:
// JSON error object first, then plain text, then a generic fallback.
func extractErrorMessage(body []byte, statusCode int) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &obj); err == nil && obj.Message != "" {
			return obj.Message
		}
		var plain string
		if err := json.Unmarshal(envelope.Error, &plain); err == nil && plain != "" {
			return plain
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", statusCode)
}

// IsTimeout reports whether err is a timeout or cancellation of the
// underlying request.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsRetryable reports whether err warrants another attempt: transport
// timeouts and a provider 504 only. Everything else, including every other
// provider status, propagates immediately.
func IsRetryable(err error) bool {
	if IsTimeout(err) {
		return true
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.StatusCode == 504
	}
	return false
}

// normalizeError unwraps the model layer's error chain so callers see the
// typed provider or transport error the transport produced.
func normalizeError(err error) error {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr
	}
	if IsTimeout(err) {
		return fmt.Errorf("completion request timed out: %w", err)
	}
	return err
}
