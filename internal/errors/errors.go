package apperrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorDelivery = 2   // Indicates at least one entry could not reach a destination.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

var (
	// ErrUnknownDestination is the cause carried by a DestinationError when a
	// category references a destination name the registry does not know.
	ErrUnknownDestination = errors.New("unknown destination")

	// ErrRegistryClosed is returned for writes issued after the registry was closed.
	ErrRegistryClosed = errors.New("destination registry closed")
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// ConfigLoadError reports a routing document that could not be read or parsed.
// It is fatal at startup and is propagated to the caller unmodified.
type ConfigLoadError struct {
	// Path is the source of the document ("<embedded>" for the built-in one).
	Path string
	// Cause is the read or parse failure.
	Cause error
}

// Error returns a formatted message naming the document and the cause.
func (e ConfigLoadError) Error() string {
	return fmt.Sprintf("load config %q: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying read or parse failure.
func (e ConfigLoadError) Unwrap() error { return e.Cause }

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// UnknownCategoryError is returned by the router when a category has no entry.
// It is recoverable: the logger substitutes its default category.
type UnknownCategoryError struct {
	Category string
}

// Error returns a formatted message naming the category.
func (e UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Category)
}

// UnknownStyleError is returned by strict colour lookups for tokens that are
// not in the palette. Decorate never returns it.
type UnknownStyleError struct {
	Token string
}

// Error returns a formatted message naming the token.
func (e UnknownStyleError) Error() string {
	return fmt.Sprintf("unknown style token %q", e.Token)
}

// DestinationError reports a failure to resolve, open or write a single
// destination. It never aborts delivery to the other destinations of a call.
type DestinationError struct {
	// Destination is the destination name.
	Destination string
	// Path is the sink path, empty when the name did not resolve.
	Path string
	// Op is the failing step: "resolve", "open", "write" or "close".
	Op string
	// Cause is the underlying error.
	Cause error
}

// Error returns a formatted message describing the failing step.
func (e DestinationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("destination %q: %s: %v", e.Destination, e.Op, e.Cause)
	}
	return fmt.Sprintf("destination %q (%s): %s: %v", e.Destination, e.Path, e.Op, e.Cause)
}

// Unwrap returns the underlying error.
func (e DestinationError) Unwrap() error { return e.Cause }

// DeliveryError aggregates the failures of one log call. Destinations not
// listed in Failures received the entry.
type DeliveryError struct {
	// Category is the category the caller asked for.
	Category string
	// RoutedCategory is the category whose destinations were used. It differs
	// from Category when the call fell back to the default category, and is
	// empty when routing failed.
	RoutedCategory string
	// Delivered lists the destinations that received the entry, in write order.
	Delivered []string
	// Failures holds one entry per failed destination, in write order.
	Failures []DestinationError
	// Cause is set when routing itself failed and nothing was written.
	Cause error
}

// Error returns a summary of every failed destination.
func (e *DeliveryError) Error() string {
	if e.Cause != nil && len(e.Failures) == 0 {
		return fmt.Sprintf("deliver %q: %v", e.Category, e.Cause)
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("deliver %q: %d of %d destinations failed: %s",
		e.Category, len(e.Failures), len(e.Failures)+len(e.Delivered), strings.Join(parts, "; "))
}

// Unwrap exposes every per-destination failure (and the routing cause, if any)
// to errors.Is and errors.As.
func (e *DeliveryError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// FailedDestinations returns the names of the failed destinations in write order.
func (e *DeliveryError) FailedDestinations() []string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Destination
	}
	return names
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
