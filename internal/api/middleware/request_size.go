package middleware

import (
	"fmt"
	"net/http"

	"github.com/Togather-Foundation/eventreg/internal/api/problem"
)

// DefaultMaxBodySize is the body limit applied to every endpoint.
const DefaultMaxBodySize int64 = 1 << 20 // 1MB

// RequestSize limits the size of incoming request bodies.
//
// The body is wrapped with http.MaxBytesReader. Requests that declare a
// larger Content-Length are rejected up front with 413; bodies that only
// turn out too large while reading surface as *http.MaxBytesError to the
// handler, which answers 413 itself.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeTooLarge(w, r, maxBytes)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			next.ServeHTTP(w, r)
		})
	}
}

func writeTooLarge(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeTooLarge, "Payload too large", nil, "",
		problem.WithDetail(fmt.Sprintf("request body exceeds %d bytes", maxBytes)))
}
