// Package errors defines the application error taxonomy for the session
// service and helpers for resilient calls to external collaborators.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Error codes, one per failure family.
const (
	CodeValidation   = "E100"
	CodeCredentials  = "E110"
	CodeSignup       = "E120"
	CodeStorage      = "E200"
	CodeProvider     = "E300"
	CodeSessionState = "E400"
)

// AppError carries both an operator-facing message and the toast catalog key
// shown to the user.
type AppError struct {
	Code       string
	Message    string
	MessageKey string
	Severity   Severity
	Retryable  bool
	cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    msg,
		MessageKey: "errors.validation",
		Severity:   SeverityLow,
		Retryable:  false,
	}
}

func NewCredentialsError(cause error) *AppError {
	return &AppError{
		Code:       CodeCredentials,
		Message:    "login rejected",
		MessageKey: "toasts.login_failed",
		Severity:   SeverityLow,
		Retryable:  false,
		cause:      cause,
	}
}

func NewSignupError(cause error) *AppError {
	return &AppError{
		Code:       CodeSignup,
		Message:    "signup rejected",
		MessageKey: "toasts.signup_failed",
		Severity:   SeverityLow,
		Retryable:  false,
		cause:      cause,
	}
}

func NewStorageError(cause error) *AppError {
	var underlying string
	if cause != nil {
		underlying = cause.Error()
	}

	return &AppError{
		Code:       CodeStorage,
		Message:    fmt.Sprintf("session storage error: %s", underlying),
		MessageKey: "errors.storage",
		Severity:   SeverityHigh,
		Retryable:  true,
		cause:      cause,
	}
}

func NewProviderError(kind string, cause error) *AppError {
	return &AppError{
		Code:       CodeProvider,
		Message:    fmt.Sprintf("identity provider error: %s", kind),
		MessageKey: "toasts.provider_failed",
		Severity:   SeverityMedium,
		Retryable:  true,
		cause:      cause,
	}
}

func NewSessionStateError(msg string) *AppError {
	return &AppError{
		Code:       CodeSessionState,
		Message:    msg,
		MessageKey: "errors.session_state",
		Severity:   SeverityMedium,
		Retryable:  false,
	}
}
