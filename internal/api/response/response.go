package response

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Data any `json:"data"`
	Page any `json:"page,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
	Page  any       `json:"page,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data})
}

// WithPage writes data together with the page state that produced it
// (workflow state, notices, loading indicator).
func WithPage(w http.ResponseWriter, data, page any) {
	writeJSON(w, http.StatusOK, envelope{Data: data, Page: page})
}

func Error(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// PageError is Error with the page state attached.
func PageError(w http.ResponseWriter, status int, code, message string, details, page any) {
	writeJSON(w, status, errorEnvelope{
		Error: errorBody{Code: code, Message: message, Details: details},
		Page:  page,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
