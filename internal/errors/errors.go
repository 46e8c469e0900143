package errors

import (
	stderrors "errors"
	"fmt"
)

// WikiError is the structured error type shared by every termwiki package.
type WikiError struct {
	// Code is the unique error code (e.g., "ERR_407_INVALID_REFERENCE").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details carries extra context such as the document path.
	Details map[string]string

	// Cause is the underlying error, if any.
	Cause error

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *WikiError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *WikiError) Unwrap() error {
	return e.Cause
}

// Is matches another WikiError by code, so errors.Is works against sentinels
// built with New(code, "", nil).
func (e *WikiError) Is(target error) bool {
	if t, ok := target.(*WikiError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail and returns the error for chaining.
func (e *WikiError) WithDetail(key, value string) *WikiError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion sets the user-facing hint and returns the error for chaining.
func (e *WikiError) WithSuggestion(suggestion string) *WikiError {
	e.Suggestion = suggestion
	return e
}

// New creates a WikiError. Category and severity are derived from the code.
func New(code string, message string, cause error) *WikiError {
	return &WikiError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a WikiError from an existing error, reusing its message.
func Wrap(code string, err error) *WikiError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration error.
func ConfigError(message string, cause error) *WikiError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates a file error.
func IOError(message string, cause error) *WikiError {
	return New(ErrCodeFileNotFound, message, cause)
}

// ParseError creates a ParseFailure for the document at path.
func ParseError(path, message string, cause error) *WikiError {
	return New(ErrCodeDocumentMalformed, message, cause).WithDetail("path", path)
}

// ValidationError creates a validation error.
func ValidationError(message string, cause error) *WikiError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *WikiError {
	return New(ErrCodeInternal, message, cause)
}

// IsParseFailure reports whether err says a document could not be parsed or read.
func IsParseFailure(err error) bool {
	code := GetCode(err)
	return code == ErrCodeDocumentMalformed || code == ErrCodeDocumentUnreadable
}

// IsFatal reports whether err has fatal severity.
func IsFatal(err error) bool {
	var we *WikiError
	if stderrors.As(err, &we) {
		return we.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the code of the first WikiError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var we *WikiError
	if stderrors.As(err, &we) {
		return we.Code
	}
	return ""
}

// GetCategory extracts the category of the first WikiError in the chain.
func GetCategory(err error) Category {
	var we *WikiError
	if stderrors.As(err, &we) {
		return we.Category
	}
	return ""
}
