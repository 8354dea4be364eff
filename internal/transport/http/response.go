package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"downloader-api/internal/entity"
)

const maxBodyBytes = 1 << 20

type apiError struct {
	Message string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, apiError{Message: msg})
}

// decodeBody reads a JSON body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}

	var ve *entity.ValidationError
	switch {
	case errors.As(err, &ve):
		writeErr(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, io.EOF):
		writeErr(w, http.StatusBadRequest, "URL is required")
	default:
		writeErr(w, http.StatusBadRequest, "invalid json")
	}
	return false
}
