package errors

import (
	"errors"
	"fmt"
)

// Common error types for categorization and handling

var (
	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid user input
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable indicates a required service is unavailable
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrDatabaseOperation indicates a database operation failed
	ErrDatabaseOperation = errors.New("database operation failed")

	// ErrLLMCommunication indicates the hosted assistant could not be reached
	ErrLLMCommunication = errors.New("llm communication failed")

	// ErrRunFailed indicates an assistant run ended in a non-completed state
	ErrRunFailed = errors.New("assistant run failed")

	// ErrRunTimeout indicates an assistant run did not finish in time
	ErrRunTimeout = errors.New("assistant run timed out")

	// ErrMissingAPIKey indicates no API key was configured
	ErrMissingAPIKey = errors.New("OPENAI_API_KEY is missing")

	// ErrRateLimited indicates the caller exceeded its request budget
	ErrRateLimited = errors.New("rate limit exceeded")
)

// WrapError wraps an error with context message and stack
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsServiceUnavailable checks if error is a service unavailable error
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsRemoteFailure reports whether err came from the hosted assistant side:
// transport failures, failed runs and run timeouts.
func IsRemoteFailure(err error) bool {
	return errors.Is(err, ErrLLMCommunication) ||
		errors.Is(err, ErrRunFailed) ||
		errors.Is(err, ErrRunTimeout) ||
		errors.Is(err, ErrServiceUnavailable)
}
