package httpapi

import (
	"encoding/json"
	"net/http"

	apperrors "igfeed/pkg/errors"
)

// WriteJSON writes payload with the given status
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// WriteJSONError writes {"error": message}
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteError maps err to its status and client message. Causes are never
// written to the response.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSONError(w, apperrors.HTTPStatus(err), apperrors.ClientMessage(err))
}
