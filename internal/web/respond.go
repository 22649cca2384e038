// Package web holds the JSON response envelope shared by every handler.
// Successes wrap the payload as {"success": true, "data": ...}; failures
// carry a single human-readable message and an HTTP status derived from the
// domain error taxonomy.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gfmartins/deliveryflow/internal/domain"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, envelope{Success: true, Data: data})
}

func SuccessMessage(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// SuccessList mirrors the list responses of the upstream API, which carry a
// count next to the data.
func SuccessList(w http.ResponseWriter, count int, data any) {
	JSON(w, http.StatusOK, envelope{Success: true, Count: &count, Data: data})
}

func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, envelope{Success: false, Message: message})
}

// Error maps a domain error onto the response taxonomy. Anything outside the
// taxonomy is an internal failure: logged with its cause, surfaced without it.
func Error(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		Fail(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, domain.ErrNotFound):
		Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		Fail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		Fail(w, http.StatusUnauthorized, err.Error())
	default:
		logger.Error("internal error", "error", err)
		Fail(w, http.StatusInternalServerError, "internal server error")
	}
}
