// Package mcp implements the Model Context Protocol (MCP) server for termwiki.
package mcp

import (
	"context"
	"errors"
	"fmt"

	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
)

// Custom MCP error codes for termwiki.
const (
	// ErrCodeIndexUnavailable indicates the index could not be built.
	ErrCodeIndexUnavailable = -32001

	// ErrCodeUnknownReference indicates a reference that cannot be parsed.
	ErrCodeUnknownReference = -32002

	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout = -32003

	// ErrCodeFileNotFound indicates a document no longer exists on disk.
	ErrCodeFileNotFound = -32004

	// ErrCodeFileTooLarge indicates a document is too large to index.
	ErrCodeFileTooLarge = -32005

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Sentinel errors for internal use.
var (
	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("invalid parameters")
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var wikiErr *wikierrors.WikiError
	if errors.As(err, &wikiErr) {
		return mapWikiError(wikiErr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "Tool not found."}
	case errors.Is(err, ErrInvalidParams):
		return &MCPError{Code: ErrCodeInvalidParams, Message: "Invalid parameters."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

func mapWikiError(we *wikierrors.WikiError) *MCPError {
	message := we.Message
	if we.Suggestion != "" {
		message = fmt.Sprintf("%s (%s)", we.Message, we.Suggestion)
	}

	switch we.Category {
	case wikierrors.CategoryValidation:
		if we.Code == wikierrors.ErrCodeInvalidReference {
			return &MCPError{Code: ErrCodeUnknownReference, Message: message}
		}
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case wikierrors.CategoryDocument:
		switch we.Code {
		case wikierrors.ErrCodeFileNotFound:
			return &MCPError{Code: ErrCodeFileNotFound, Message: message}
		case wikierrors.ErrCodeFileTooLarge:
			return &MCPError{Code: ErrCodeFileTooLarge, Message: message}
		default:
			return &MCPError{Code: ErrCodeInternalError, Message: message}
		}
	case wikierrors.CategoryInternal:
		if we.Code == wikierrors.ErrCodeIndexFailed {
			return &MCPError{Code: ErrCodeIndexUnavailable, Message: message}
		}
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	default: // Config, transport and unknown
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
