package utils

import (
	"encoding/json"
	"net/http"
)

// Stable machine-readable error codes returned in Payload.Error.
const (
	ErrValidation         = "validation_error"
	ErrNotFound           = "not_found"
	ErrUnauthorized       = "unauthorized"
	ErrWrongPassword      = "wrong_password"
	ErrInvalidCredentials = "invalid_credentials"
	ErrStorageRejected    = "storage_rejected"
	ErrRateLimited        = "rate_limited"
	ErrInternal           = "internal_error"
)

type Payload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSONResponse sends a JSON response with given status, success flag, and payload
func JSONResponse(w http.ResponseWriter, status int, payload Payload) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
