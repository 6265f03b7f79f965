package backend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"ocrweb/internal/domain"
)

// APIError is a non-2xx backend response with its detail normalized to text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: status %d: %s", e.StatusCode, e.Message)
}

// UserMessage returns the human-readable detail.
func (e *APIError) UserMessage() string {
	return e.Message
}

// NetworkError wraps a transport failure where no response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) UserMessage() string {
	return "Network error, please try again"
}

// ExtractErrorMessage turns a possibly structured error detail into one line
// of text. Strings pass through; objects yield their "error" field, then their
// "message" field, then the generic fallback. Object values are never
// stringified.
func ExtractErrorMessage(detail json.RawMessage) string {
	trimmed := strings.TrimSpace(string(detail))
	if trimmed == "" || trimmed == "null" {
		return domain.DefaultErrorMessage
	}
	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return domain.DefaultErrorMessage
	}
	return messageFromValue(value)
}

func messageFromValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		for _, field := range []string{"error", "message"} {
			if s, ok := scalarText(v[field]); ok {
				return s
			}
		}
	case []any:
		// Validation failures arrive as a list of {msg, loc, type}.
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok {
				for _, field := range []string{"msg", "message", "error"} {
					if s, ok := scalarText(first[field]); ok {
						return s
					}
				}
			}
		}
	}
	return domain.DefaultErrorMessage
}

// scalarText reports a non-empty textual form for strings, numbers and
// booleans. Objects and arrays are rejected.
func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", false
		}
		return t, true
	case float64:
		if t == 0 {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		if !t {
			return "", false
		}
		return "true", true
	}
	return "", false
}

func decodeAPIError(status int, raw []byte) *APIError {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	message := domain.DefaultErrorMessage
	if err := json.Unmarshal(raw, &envelope); err == nil {
		message = ExtractErrorMessage(envelope.Detail)
	}
	return &APIError{StatusCode: status, Message: message}
}
