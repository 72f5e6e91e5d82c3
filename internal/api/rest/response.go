package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainErrors "github.com/bwbexpress/leadflow-backend/internal/domain/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps an AppError to its HTTP status; anything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	code := "INTERNAL_ERROR"
	message := "an internal error occurred"
	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message
	}
	writeJSON(w, domainErrors.GetStatusCode(err), errorBody{Error: errorDetail{
		Code:    code,
		Message: message,
	}})
}

func writeValidationError(w http.ResponseWriter, message string) {
	writeError(w, domainErrors.NewValidationError("INVALID_REQUEST", message))
}
