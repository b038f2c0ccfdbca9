package plugin

import (
	stderrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes reported by plugins
const (
	// Configuration errors (1000-1099)
	ErrCodeInvalidConfig = "CONFIG_1001"

	// Validation errors (2000-2099)
	ErrCodeOutOfRange   = "VALIDATION_2001"
	ErrCodeInvalidValue = "VALIDATION_2002"

	// Event errors (3000-3099)
	ErrCodeEventPayload = "EVENT_3001"
)

// NewConfigError reports a configuration payload that could not be decoded.
func NewConfigError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeInvalidConfig, "invalid plugin configuration").
		WithUserMessage(fmt.Sprintf("Failed to parse config: %v", cause)).
		WithSeverity("error")
}

// NewRangeError reports a numeric value outside [min, max].
func NewRangeError(field string, value, min, max float64, userMessage string) *errors.Error {
	return errors.New(ErrCodeOutOfRange, fmt.Sprintf("%s out of range", field)).
		WithUserMessage(userMessage).
		WithContext("field", field).
		WithContext("value", value).
		WithContext("min", min).
		WithContext("max", max).
		WithSeverity("warning")
}

// NewInvalidValueError reports a PUT or request value that could not be decoded.
func NewInvalidValueError(field string, cause error, userMessage string) *errors.Error {
	return errors.Wrap(cause, ErrCodeInvalidValue, fmt.Sprintf("invalid %s", field)).
		WithUserMessage(userMessage).
		WithContext("field", field).
		WithSeverity("warning")
}

// NewEventPayloadError reports an event whose envelope or data is malformed.
func NewEventPayloadError(eventType string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeEventPayload, "malformed event payload").
		WithUserMessage(fmt.Sprintf("Failed to decode %s event: %v", eventType, cause)).
		WithContext("event_type", eventType).
		WithSeverity("info")
}

// CheckRange returns a range error when value lies outside [min, max].
func CheckRange(field string, value, min, max float64, userMessage string) error {
	if value < min || value > max {
		return NewRangeError(field, value, min, max, userMessage)
	}
	return nil
}

// HasCode reports whether err is a structured error with the given code.
func HasCode(err error, code string) bool {
	var coded *errors.Error
	return stderrors.As(err, &coded) && string(coded.Code) == code
}

// UserMessage extracts the user facing text of err.
func UserMessage(err error) string {
	var coded *errors.Error
	if stderrors.As(err, &coded) && coded.UserMessage() != "" {
		return coded.UserMessage()
	}
	return err.Error()
}
