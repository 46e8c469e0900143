// Package errors provides structured errors for termwiki.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Document and file errors
//   - 3XX: Transport errors (HTTP, websocket, locks)
//   - 4XX: Validation errors (references, paths, queries)
//   - 5XX: Internal errors
package errors

// Category classifies an error by the subsystem that raised it.
type Category string

const (
	CategoryConfig     Category = "CONFIG"
	CategoryDocument   Category = "DOCUMENT"
	CategoryTransport  Category = "TRANSPORT"
	CategoryValidation Category = "VALIDATION"
	CategoryInternal   Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal means the process cannot keep serving.
	SeverityFatal Severity = "FATAL"
	// SeverityError means the call failed; the index is still consistent.
	SeverityError Severity = "ERROR"
	// SeverityWarning means a single document was skipped.
	SeverityWarning Severity = "WARNING"
)

const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Document errors (200-299)
	ErrCodeFileNotFound       = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission     = "ERR_202_FILE_PERMISSION"
	ErrCodeFileTooLarge       = "ERR_204_FILE_TOO_LARGE"
	ErrCodeDocumentMalformed  = "ERR_207_DOCUMENT_MALFORMED"
	ErrCodeDocumentUnreadable = "ERR_208_DOCUMENT_UNREADABLE"

	// Transport errors (300-399)
	ErrCodeAddrInUse      = "ERR_301_ADDR_IN_USE"
	ErrCodeAlreadyServing = "ERR_302_ALREADY_SERVING"

	// Validation errors (400-499)
	ErrCodeInvalidInput     = "ERR_401_INVALID_INPUT"
	ErrCodeQueryEmpty       = "ERR_404_QUERY_EMPTY"
	ErrCodeInvalidPath      = "ERR_406_INVALID_PATH"
	ErrCodeInvalidReference = "ERR_407_INVALID_REFERENCE"

	// Internal errors (500-599)
	ErrCodeInternal    = "ERR_501_INTERNAL"
	ErrCodeIndexFailed = "ERR_505_INDEX_FAILED"
)

// categoryFromCode reads the hundreds digit of a code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryDocument
	case '3':
		return CategoryTransport
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeAlreadyServing, ErrCodeAddrInUse:
		return SeverityFatal
	case ErrCodeDocumentMalformed, ErrCodeDocumentUnreadable, ErrCodeFileTooLarge:
		return SeverityWarning
	}
	return SeverityError
}
