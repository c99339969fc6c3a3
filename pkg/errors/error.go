// Package errors provides error types for publishhub
package errors

import (
	"encoding/json"
	"fmt"
	"time"
)

// PublishError represents a publishhub error with structured information
type PublishError struct {
	// Core error information
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Platform  string                 `json:"platform,omitempty"`
	Operation string                 `json:"operation,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`

	// Context information
	Timestamp time.Time `json:"timestamp"`

	// Error hierarchy
	Cause error `json:"-"` // Original error (not serialized)

	// Retry information
	Retryable  bool           `json:"retryable"`
	RetryAfter *time.Duration `json:"retry_after,omitempty"`
}

// Error implements the error interface
func (e *PublishError) Error() string {
	if e.Platform != "" && e.Operation != "" {
		return fmt.Sprintf("%s: %s (platform: %s, operation: %s)", e.Code, e.Message, e.Platform, e.Operation)
	}
	if e.Platform != "" {
		return fmt.Sprintf("%s: %s (platform: %s)", e.Code, e.Message, e.Platform)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// String returns a string representation of the error
func (e *PublishError) String() string {
	return e.Error()
}

// Unwrap returns the underlying cause error
func (e *PublishError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error by code
func (e *PublishError) Is(target error) bool {
	if targetErr, ok := target.(*PublishError); ok {
		return e.Code == targetErr.Code
	}
	return false
}

// MarshalJSON implements json.Marshaler
func (e *PublishError) MarshalJSON() ([]byte, error) {
	type Alias PublishError
	return json.Marshal(&struct {
		*Alias
		CauseMessage string `json:"cause_message,omitempty"`
	}{
		Alias:        (*Alias)(e),
		CauseMessage: e.getCauseMessage(),
	})
}

// getCauseMessage returns the cause error message if available
func (e *PublishError) getCauseMessage() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return ""
}

// WithCause adds a cause error
func (e *PublishError) WithCause(cause error) *PublishError {
	e.Cause = cause
	return e
}

// WithPlatform sets the platform
func (e *PublishError) WithPlatform(platform string) *PublishError {
	e.Platform = platform
	return e
}

// WithOperation sets the operation that produced the error
func (e *PublishError) WithOperation(operation string) *PublishError {
	e.Operation = operation
	return e
}

// WithMetadata adds metadata
func (e *PublishError) WithMetadata(key string, value interface{}) *PublishError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithRetryAfter sets the retry delay
func (e *PublishError) WithRetryAfter(delay time.Duration) *PublishError {
	e.RetryAfter = &delay
	return e
}

// IsRetryable returns whether the error is retryable
func (e *PublishError) IsRetryable() bool {
	if e.Retryable {
		return true
	}
	return IsRetryable(e.Code)
}

// GetRetryDelay returns the recommended retry delay
func (e *PublishError) GetRetryDelay() time.Duration {
	if e.RetryAfter != nil {
		return *e.RetryAfter
	}
	return 0
}

// GetSeverity returns the error severity based on code priority
func (e *PublishError) GetSeverity() string {
	priority := GetPriority(e.Code)
	switch priority {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// ToMap converts the error to a map representation
func (e *PublishError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"code":      string(e.Code),
		"message":   e.Message,
		"timestamp": e.Timestamp,
		"retryable": e.IsRetryable(),
		"severity":  e.GetSeverity(),
	}

	if e.Platform != "" {
		result["platform"] = e.Platform
	}
	if e.Operation != "" {
		result["operation"] = e.Operation
	}
	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}
	if e.Metadata != nil {
		result["metadata"] = e.Metadata
	}
	if e.RetryAfter != nil {
		result["retry_after"] = e.RetryAfter.String()
	}

	return result
}

// MultiError represents multiple errors that occurred
type MultiError struct {
	Errors []error `json:"errors"`
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors occurred (%d errors)", len(e.Errors))
}

// Add adds an error to the multi-error
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// IsEmpty returns true if no errors are present
func (e *MultiError) IsEmpty() bool {
	return len(e.Errors) == 0
}

// ErrorOrNil returns the multi-error if it contains errors, otherwise nil
func (e *MultiError) ErrorOrNil() error {
	if e.IsEmpty() {
		return nil
	}
	return e
}

// First returns the first error, or nil if none
func (e *MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// Count returns the number of errors
func (e *MultiError) Count() int {
	return len(e.Errors)
}

// Constructor functions

// New creates a new PublishError
func New(code ErrorCode, message string) *PublishError {
	return &PublishError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Retryable: IsRetryable(code),
	}
}

// Newf creates a new PublishError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PublishError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a PublishError
func Wrap(err error, code ErrorCode, message string) *PublishError {
	return New(code, message).WithCause(err)
}

// Wrapf wraps an existing error with a PublishError and formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *PublishError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// NewMultiError creates a new MultiError
func NewMultiError() *MultiError {
	return &MultiError{
		Errors: make([]error, 0),
	}
}

// Convenience constructors for common error types

// NewConfigError creates a configuration error
func NewConfigError(message string) *PublishError {
	return New(ErrInvalidConfig, message)
}

// NewPlatformError creates a platform error
func NewPlatformError(platform, message string) *PublishError {
	return New(ErrPlatformError, message).WithPlatform(platform)
}

// NewRejectedError creates a platform rejection error
func NewRejectedError(platform, message string) *PublishError {
	return New(ErrPlatformRejected, message).WithPlatform(platform)
}

// NewNetworkError creates a network error
func NewNetworkError(message string) *PublishError {
	return New(ErrConnectionFailed, message)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string) *PublishError {
	return New(ErrNetworkTimeout, message).WithRetryAfter(5 * time.Second)
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(retryAfter time.Duration) *PublishError {
	return New(ErrRateLimitExceeded, "rate limit exceeded").WithRetryAfter(retryAfter)
}

// NewQuotaError creates a daily quota error
func NewQuotaError(platform string) *PublishError {
	return New(ErrQuotaExceeded, "daily publish quota exhausted").WithPlatform(platform)
}

// NewNotSupportedError creates an unsupported-operation error
func NewNotSupportedError(platform, operation string) *PublishError {
	return Newf(ErrNotSupported, "%s does not support %s", platform, operation).
		WithPlatform(platform).
		WithOperation(operation)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *PublishError {
	return New(ErrInternal, message)
}

// Error classification functions

// IsConfigError checks if error is a configuration error
func IsConfigError(err error) bool {
	if pubErr, ok := err.(*PublishError); ok {
		return GetCategory(pubErr.Code) == "configuration"
	}
	return false
}

// IsPlatformError checks if error is a platform error
func IsPlatformError(err error) bool {
	if pubErr, ok := err.(*PublishError); ok {
		return GetCategory(pubErr.Code) == "platform"
	}
	return false
}

// IsNetworkError checks if error is a network error
func IsNetworkError(err error) bool {
	if pubErr, ok := err.(*PublishError); ok {
		return GetCategory(pubErr.Code) == "network"
	}
	return false
}

// IsRetryableError checks if error is retryable
func IsRetryableError(err error) bool {
	if pubErr, ok := err.(*PublishError); ok {
		return pubErr.IsRetryable()
	}
	return false
}

// Error extraction functions

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	if pubErr, ok := err.(*PublishError); ok {
		return pubErr.Code
	}
	return ErrInternal
}

// GetErrorMessage extracts the error message from an error
func GetErrorMessage(err error) string {
	if pubErr, ok := err.(*PublishError); ok {
		return pubErr.Message
	}
	return err.Error()
}

// GetErrorPlatform extracts the platform from an error
func GetErrorPlatform(err error) string {
	if pubErr, ok := err.(*PublishError); ok {
		return pubErr.Platform
	}
	return ""
}
