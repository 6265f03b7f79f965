package domain

import "errors"

var (
	ErrQuotaBlocked      = errors.New("no tokens remaining")
	ErrMissingCheckoutID = errors.New("missing checkout id")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrUnsupportedFile   = errors.New("unsupported file type")
	ErrEmptyFile         = errors.New("file is empty")
	ErrNoResult          = errors.New("no document to export")
	ErrInvalidPhone      = errors.New("invalid phone number")
	ErrProcessingFailed  = errors.New("document processing failed")
)

// DefaultErrorMessage is shown when an error carries no usable detail.
const DefaultErrorMessage = "An error occurred"

// UserMessage normalizes err into a single human-readable string for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var msg interface{ UserMessage() string }
	if errors.As(err, &msg) {
		if m := msg.UserMessage(); m != "" {
			return m
		}
	}
	if m := err.Error(); m != "" {
		return m
	}
	return DefaultErrorMessage
}
