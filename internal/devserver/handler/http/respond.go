// Package http provides the dev server's HTTP handlers for the
// authentication, user and connection endpoints.
package http

import (
	"encoding/json"
	"net/http"
)

// successResponse is the standard response envelope.
type successResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// writeSuccess writes the standard {success, data, message} envelope.
func writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successResponse{Success: true, Data: data, Message: message})
}

// writeFailure writes a failure envelope. A single message is written as
// a string; several (validation) messages are written as an array, one
// per violated field.
func writeFailure(w http.ResponseWriter, status int, messages ...string) {
	var message any
	switch len(messages) {
	case 0:
	case 1:
		message = messages[0]
	default:
		message = messages
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}

// writeData writes the bare {data} shape used by the connection list
// endpoints, which carry no success flag.
func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}
