package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sfmarket/daily-spin/internal/models"
)

// --- Helpers ---

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, code int, data interface{}, message string) {
	writeJSON(w, code, models.Response{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// writeFail emits the error envelope. debug is the optional debug
// string for unexpected failures; client-facing text stays generic.
func writeFail(w http.ResponseWriter, code int, message, debug string) {
	writeJSON(w, code, models.Response{
		Success: false,
		Message: message,
		Error:   debug,
	})
}
