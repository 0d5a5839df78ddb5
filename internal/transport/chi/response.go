package chi

import (
	"encoding/json"
	"net/http"
)

// ErrorCode is the machine-readable code of an error response.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeOrderNotFound    ErrorCode = "order_not_found"
	ErrorCodeAlreadyExists    ErrorCode = "already_exists"
	ErrorCodeNotReady         ErrorCode = "not_ready"
	ErrorCodeStoreError       ErrorCode = "store_error"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// CreateOrderResponse is returned by POST /orders.
type CreateOrderResponse struct {
	ID string `json:"id"`
}

// MutationResponse reports the outcome of an update or delete. Count is -1
// unless Outcome is "counted".
type MutationResponse struct {
	Outcome string `json:"outcome"`
	Count   int    `json:"count"`
}

// UpdateByFilterRequest is the body of POST /orders/update.
type UpdateByFilterRequest struct {
	Filter map[string]any `json:"filter"`
	Update map[string]any `json:"update"`
}

// DeleteByFilterRequest is the body of POST /orders/delete.
type DeleteByFilterRequest struct {
	Filter map[string]any `json:"filter"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
