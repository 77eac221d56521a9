package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/TimurManjosov/leadgrade/internal/catalog"
	"github.com/TimurManjosov/leadgrade/internal/emaildomain"
	"github.com/TimurManjosov/leadgrade/internal/evaluation"
	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/query"
	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/segment"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
)

// ErrorCode represents machine-readable error codes
type ErrorCode string

const (
	// General error codes
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeRateLimited     ErrorCode = "RATE_LIMITED"
	ErrCodeRequestTooLarge ErrorCode = "REQUEST_TOO_LARGE"

	// Validation error codes
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidJSON      ErrorCode = "INVALID_JSON"
	ErrCodeInvalidQuery     ErrorCode = "INVALID_QUERY"
	ErrCodeInvalidThreshold ErrorCode = "INVALID_THRESHOLD"
	ErrCodeInvalidRule      ErrorCode = "INVALID_RULE"
	ErrCodeSchemaMismatch   ErrorCode = "SCHEMA_MISMATCH"
	ErrCodeReservedSegment  ErrorCode = "RESERVED_SEGMENT"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error     string            `json:"error"`                // HTTP status text
	Message   string            `json:"message"`              // Human-readable description
	Code      ErrorCode         `json:"code"`                 // Machine-readable error code
	Fields    map[string]string `json:"fields,omitempty"`     // Field-level errors
	RequestID string            `json:"request_id,omitempty"` // Request ID for debugging
}

// NewErrorResponse creates a new error response
func NewErrorResponse(statusCode int, code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    code,
	}
}

// WithFields adds field-level errors to the response
func (e *ErrorResponse) WithFields(fields map[string]string) *ErrorResponse {
	e.Fields = fields
	return e
}

// WithRequestID adds a request ID to the response
func (e *ErrorResponse) WithRequestID(requestID string) *ErrorResponse {
	e.RequestID = requestID
	return e
}

// writeErrorResponse writes a structured error response to the http response writer
func writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, errResp *ErrorResponse) {
	// Add request ID from chi middleware if available
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		errResp.RequestID = reqID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errResp)
}

// ValidationError creates a validation error response with field-level details
func ValidationError(w http.ResponseWriter, r *http.Request, message string, fields map[string]string) {
	errResp := NewErrorResponse(http.StatusBadRequest, ErrCodeValidation, message).
		WithFields(fields)
	writeErrorResponse(w, r, http.StatusBadRequest, errResp)
}

// BadRequestError creates a bad request error response
func BadRequestError(w http.ResponseWriter, r *http.Request, code ErrorCode, message string) {
	errResp := NewErrorResponse(http.StatusBadRequest, code, message)
	writeErrorResponse(w, r, http.StatusBadRequest, errResp)
}

// ConflictError creates a conflict error response
func ConflictError(w http.ResponseWriter, r *http.Request, code ErrorCode, message string) {
	errResp := NewErrorResponse(http.StatusConflict, code, message)
	writeErrorResponse(w, r, http.StatusConflict, errResp)
}

// InternalError creates an internal server error response
func InternalError(w http.ResponseWriter, r *http.Request, message string) {
	errResp := NewErrorResponse(http.StatusInternalServerError, ErrCodeInternal, message)
	writeErrorResponse(w, r, http.StatusInternalServerError, errResp)
}

// NotFoundError creates a not found error response
func NotFoundError(w http.ResponseWriter, r *http.Request, message string) {
	errResp := NewErrorResponse(http.StatusNotFound, ErrCodeNotFound, message)
	writeErrorResponse(w, r, http.StatusNotFound, errResp)
}

// RequestTooLargeError creates a request entity too large error response
func RequestTooLargeError(w http.ResponseWriter, r *http.Request, message string) {
	errResp := NewErrorResponse(http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge, message)
	writeErrorResponse(w, r, http.StatusRequestEntityTooLarge, errResp)
}

// RateLimitedError creates a too many requests error response
func RateLimitedError(w http.ResponseWriter, r *http.Request, message string) {
	errResp := NewErrorResponse(http.StatusTooManyRequests, ErrCodeRateLimited, message)
	writeErrorResponse(w, r, http.StatusTooManyRequests, errResp)
}

// StoreError maps a store or domain error onto a response.
// Unknown errors are reported as internal errors without their message.
func StoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, lead.ErrNotFound),
		errors.Is(err, segment.ErrSegmentNotFound),
		errors.Is(err, catalog.ErrCriterionNotFound),
		errors.Is(err, rules.ErrUnknownCriterion),
		errors.Is(err, rules.ErrUnknownCondition):
		NotFoundError(w, r, err.Error())
	case errors.Is(err, segment.ErrReservedSegment):
		ConflictError(w, r, ErrCodeReservedSegment, err.Error())
	case errors.Is(err, segment.ErrDuplicateSegment):
		ConflictError(w, r, ErrCodeConflict, err.Error())
	case errors.Is(err, rules.ErrSchemaMismatch):
		BadRequestError(w, r, ErrCodeSchemaMismatch, err.Error())
	case errors.Is(err, rules.ErrInvalidCondition),
		errors.Is(err, rules.ErrInvalidWeight),
		errors.Is(err, rules.ErrInvalidCombinator),
		errors.Is(err, rules.ErrDuplicateCriterion),
		errors.Is(err, rules.ErrEmptyCriterion),
		errors.Is(err, rules.ErrInvalidCriterion):
		BadRequestError(w, r, ErrCodeInvalidRule, err.Error())
	case errors.Is(err, threshold.ErrThresholdOrder),
		errors.Is(err, threshold.ErrInvalidField),
		errors.Is(err, threshold.ErrInvalidTier):
		BadRequestError(w, r, ErrCodeInvalidThreshold, err.Error())
	case errors.Is(err, query.ErrInvalidSortField),
		errors.Is(err, query.ErrInvalidSortDirection),
		errors.Is(err, query.ErrInvalidFilter):
		BadRequestError(w, r, ErrCodeInvalidQuery, err.Error())
	case errors.Is(err, segment.ErrInvalidSegment),
		errors.Is(err, emaildomain.ErrInvalidConfig),
		errors.Is(err, evaluation.ErrInvalidConfig):
		BadRequestError(w, r, ErrCodeValidation, err.Error())
	default:
		InternalError(w, r, "Internal server error")
	}
}
