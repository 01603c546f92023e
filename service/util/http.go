package util

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func LogAndError(w http.ResponseWriter, logger *slog.Logger, message string, code int, err error, attrs ...any) {
	if err != nil {
		logger.Error(message, append([]any{"error", err}, attrs...)...)
	} else {
		logger.Error(message, attrs...)
	}
	http.Error(w, message, code)
}

func JSONError(w http.ResponseWriter, message string, code int) {
	WriteJSON(w, code, map[string]string{"error": message})
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck
}
