package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// RespondJSON writes the payload as JSON with the given status. A nil
// payload writes the status only.
func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondError writes an {"error": message} JSON body with the given status.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, map[string]string{"error": message})
}

// ParseID extracts a positive integer ID from the request path.
// Returns the ID and a boolean indicating success; on failure the 400
// response has already been written.
func ParseID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	pathValueID := r.PathValue("id")
	id, err := strconv.ParseInt(pathValueID, 10, 64)
	if err != nil || id < 1 {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid ID: %s", pathValueID))
		return 0, false
	}
	return id, true
}

// ParseQueryID parses an optional positive integer query parameter.
// Returns (0, true, false) when the parameter is absent.
func ParseQueryID(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string) (id int64, ok bool, present bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0, true, false
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed < 1 {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s: %s", key, value))
		return 0, false, true
	}
	return parsed, true, true
}
