// Package httputil holds the JSON response helpers shared by the mock
// backend and the render hub.
package httputil

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// ContentTypeJSON is the Content-Type of every body written here.
const ContentTypeJSON = "application/json"

// ErrorBody is the minimal error document: a machine code and a message.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON encodes v and writes it with status. The body is encoded before
// the header goes out, so an unencodable value yields a 500 instead of a
// truncated response. A nil v writes no body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	if v == nil {
		w.Header().Set("Content-Type", ContentTypeJSON)
		w.WriteHeader(status)
		return
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, "response encoding failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	WriteRaw(w, status, buf.Bytes())
}

// WriteRaw writes pre-encoded JSON.
func WriteRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// WriteError writes an ErrorBody.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorBody{Error: code, Message: message})
}

// WriteOK writes v with 200.
func WriteOK(w http.ResponseWriter, v any) { WriteJSON(w, http.StatusOK, v) }

// WriteCreated writes v with 201.
func WriteCreated(w http.ResponseWriter, v any) { WriteJSON(w, http.StatusCreated, v) }

// WriteNoContent writes an empty 204.
func WriteNoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }
