package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Error codes used across the API.
const (
	CodeBadRequest          = "BAD_REQUEST"
	CodeInvalidJSON         = "INVALID_JSON"
	CodeInvalidParam        = "INVALID_PARAM"
	CodeInvalidID           = "INVALID_ID"
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeInsufficientPayment = "INSUFFICIENT_PAYMENT"
	CodeAmountOutOfRange    = "AMOUNT_OUT_OF_RANGE"
	CodeStockLimit          = "STOCK_LIMIT"
	CodeInternal            = "INTERNAL_ERROR"
)

// Meta holds metadata for every API response.
type Meta struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// ListMeta extends Meta with pagination information.
type ListMeta struct {
	Meta
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Error represents a structured API error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope is the standard API response wrapper.
type Envelope struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
	Meta  Meta   `json:"meta"`
}

// ListEnvelope is the response wrapper for list endpoints with pagination metadata.
type ListEnvelope struct {
	Data  any      `json:"data"`
	Error *Error   `json:"error"`
	Meta  ListMeta `json:"meta"`
}

// Page describes the slice of a collection returned by a list endpoint.
type Page struct {
	Total int
	Page  int
	Limit int
}

// NewMeta creates a Meta with the current timestamp. A new UUID is used when
// requestID is empty.
func NewMeta(requestID string) Meta {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return Meta{
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// JSON writes env with the given status code.
func JSON(w http.ResponseWriter, status int, env Envelope) {
	write(w, status, env)
}

// Success writes a successful JSON response.
func Success(w http.ResponseWriter, status int, data any, requestID string) {
	write(w, status, Envelope{Data: data, Meta: NewMeta(requestID)})
}

// SuccessList writes a 200 list response with pagination metadata.
func SuccessList(w http.ResponseWriter, data any, page Page, requestID string) {
	write(w, http.StatusOK, ListEnvelope{
		Data: data,
		Meta: ListMeta{
			Meta:  NewMeta(requestID),
			Total: page.Total,
			Page:  page.Page,
			Limit: page.Limit,
		},
	})
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Err writes an error JSON response.
func Err(w http.ResponseWriter, status int, code string, message string, requestID string) {
	ErrWithDetails(w, status, code, message, nil, requestID)
}

// ErrWithDetails writes an error JSON response with additional details.
func ErrWithDetails(w http.ResponseWriter, status int, code string, message string, details any, requestID string) {
	write(w, status, Envelope{
		Error: &Error{Code: code, Message: message, Details: details},
		Meta:  NewMeta(requestID),
	})
}

// Internal logs err and writes a generic 500 response.
func Internal(w http.ResponseWriter, msg string, err error, requestID string) {
	slog.Error(msg, "error", err, "requestId", requestID)
	Err(w, http.StatusInternalServerError, CodeInternal, "An unexpected error occurred", requestID)
}
