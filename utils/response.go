package utils

import (
	"encoding/json"
	"log"
	"net/http"

	"emporia/apperrors"
)

// RespondWithJSON sends a JSON response with the given status code.
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

// RespondError maps a classified error to its HTTP status and public
// message. Internal failures are logged here and never leak their cause.
func RespondError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
	}
	RespondWithError(w, status, apperrors.PublicMessage(err))
}

type M map[string]interface{}
