package utils

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// ErrorWith sends an error response with extra fields (e.g. the missing
// questions of a rejected save)
func ErrorWith(w http.ResponseWriter, status int, message string, fields map[string]interface{}) {
	body := map[string]interface{}{"error": message}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, status, body)
}

// DecodeJSON reads a JSON request body capped at limit bytes
func DecodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(v)
}
