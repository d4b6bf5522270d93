package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Tejazzz/banking-system/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	var cerr *models.ConflictError

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &cerr):
		writeError(w, http.StatusConflict, cerr.Error())
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, "insufficient funds")
	default:
		log.Printf("ERROR: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
