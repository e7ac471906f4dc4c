package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Togather-Foundation/eventreg/internal/api/problem"
	"github.com/Togather-Foundation/eventreg/internal/domain/errs"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}

// decodeJSON reads a single JSON document from the request body into dst.
// Malformed bodies are reported as validation errors on the "body" field.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errs.NewValidationError("body", "request body is required")
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return err
	case errors.Is(err, io.EOF):
		return errs.NewValidationError("body", "request body is required")
	default:
		return errs.NewValidationError("body", "malformed JSON: "+err.Error())
	}
}

// writeError writes the problem document for err.
func writeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeTooLarge, "Request body too large", err, env,
			problem.WithDetail("request body exceeds the size limit"))
		return
	}
	problem.FromError(w, r, err, env)
}
