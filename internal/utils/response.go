package utils

import (
	"encoding/json"
	"net/http"
)

// APIError is the error envelope every handler returns.
type APIError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type MessageResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, APIError{Error: message, Code: code})
}

// WriteInternalError follows the "Internal server error: <msg>" shape, without a code.
func WriteInternalError(w http.ResponseWriter, err error) {
	WriteJSON(w, http.StatusInternalServerError, APIError{Error: "Internal server error: " + err.Error()})
}

// DecodeJSON reads the request body into dst. An empty body is an error.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
