package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/rpattn/signalcat/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeError maps domain errors onto HTTP statuses. Everything unrecognized
// is a 500 with a generic body so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	var conflictErr *domain.VersionConflictError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, "record not found")
	case errors.As(err, &conflictErr):
		writeErrorMessage(w, http.StatusConflict, conflictErr.Error())
	case errors.As(err, &validationErr):
		writeErrorMessage(w, http.StatusBadRequest, validationErr.Error())
	default:
		log.Printf("[api] internal error: %v", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
