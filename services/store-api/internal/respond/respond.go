// Package respond writes the JSON envelopes shared by handlers and
// middleware.
package respond

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Success bool `json:"success"`
	Error   any  `json:"error"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"success":false,"error":msg}. msg is a string or a list of
// validation messages.
func Error(w http.ResponseWriter, status int, msg any) {
	JSON(w, status, errorBody{Success: false, Error: msg})
}
