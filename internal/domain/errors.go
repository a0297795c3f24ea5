package domain

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Pipeline specific errors
	ErrMalformedQuota       ErrorCode = "MALFORMED_QUOTA"
	ErrClassificationFailed ErrorCode = "CLASSIFICATION_FAILED"
	ErrRetryExhausted       ErrorCode = "RETRY_EXHAUSTED"
	ErrCacheWriteFailed     ErrorCode = "CACHE_WRITE_FAILED"
	ErrClassifierService    ErrorCode = "CLASSIFIER_SERVICE_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Helper functions for common errors
func NewInvalidInputError(message string) *DomainError {
	return NewError(ErrInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(ErrInternal, message, err)
}

func NewMalformedQuotaError(message string) *DomainError {
	return NewError(ErrMalformedQuota, message, nil)
}

func NewClassifierServiceError(err error) *DomainError {
	return NewError(ErrClassifierService, "classification service request failed", err)
}

func NewCacheWriteError(id string, err error) *DomainError {
	return NewError(ErrCacheWriteFailed, fmt.Sprintf("failed to persist classification for %s", id), err)
}
