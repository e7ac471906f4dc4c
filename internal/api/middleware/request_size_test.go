package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestSize(t *testing.T) {
	tests := []struct {
		name         string
		maxBytes     int64
		bodySize     int
		expectStatus int
	}{
		{name: "small request accepted", maxBytes: 1024, bodySize: 512, expectStatus: http.StatusOK},
		{name: "exact limit accepted", maxBytes: 1024, bodySize: 1024, expectStatus: http.StatusOK},
		{name: "oversized request rejected", maxBytes: 1024, bodySize: 2048, expectStatus: http.StatusRequestEntityTooLarge},
		{name: "default limit", maxBytes: DefaultMaxBodySize, bodySize: int(DefaultMaxBodySize) + 1, expectStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			handler := RequestSize(tt.maxBytes)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				_, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(make([]byte, tt.bodySize)))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.expectStatus, rec.Code)
			require.Equal(t, tt.expectStatus == http.StatusOK, reached)
			if tt.expectStatus == http.StatusRequestEntityTooLarge {
				require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRequestSize_UnknownLengthSurfacesMaxBytesError(t *testing.T) {
	var readErr error
	handler := RequestSize(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	req := httptest.NewRequest(http.MethodPost, "/events", io.NopCloser(bytes.NewReader(make([]byte, 64))))
	req.ContentLength = -1
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var maxErr *http.MaxBytesError
	require.True(t, errors.As(readErr, &maxErr))
	require.EqualValues(t, 16, maxErr.Limit)
}

func TestRequestSize_NoBody(t *testing.T) {
	handler := RequestSize(DefaultMaxBodySize)(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
