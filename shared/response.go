package shared

import (
	"encoding/json"
	"log"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

// SendError writes {"error": message} with the given status code.
func SendError(w http.ResponseWriter, message string, status int) {
	SendJSON(w, status, errorResponse{Error: message})
}

func SendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
