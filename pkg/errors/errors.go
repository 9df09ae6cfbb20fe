package errors

import "fmt"

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Credential errors
	ErrCodeMissingCredentials ErrorCode = "MISSING_CREDENTIALS"

	// Authentication / validation errors reported by Circle
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"

	// Entity secret lifecycle
	ErrCodeSecretRegistered ErrorCode = "ENTITY_SECRET_ALREADY_REGISTERED"

	// Provisioning errors
	ErrCodeCandidateFailed ErrorCode = "CANDIDATE_FAILED"
	ErrCodeExhausted       ErrorCode = "CANDIDATES_EXHAUSTED"

	// System errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeExternal ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// ProvisionError represents a standardized provisioning error
type ProvisionError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// New creates a new ProvisionError
func New(code ErrorCode, message string) *ProvisionError {
	return &ProvisionError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a ProvisionError
func Wrap(err error, code ErrorCode, message string) *ProvisionError {
	return &ProvisionError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// AddDetail adds a detail to the error
func (e *ProvisionError) AddDetail(key string, value interface{}) *ProvisionError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}
