package middleware

import (
	"net/http"
)

const (
	// PublicMaxBodySize covers JSON bodies on public endpoints.
	PublicMaxBodySize int64 = 1 << 20

	// AdminMaxBodySize leaves room for a multipart image upload.
	AdminMaxBodySize int64 = 5<<20 + 64<<10
)

// RequestSize wraps the body in http.MaxBytesReader. Handlers see a
// *http.MaxBytesError from their reads once the limit is crossed, and the
// connection is closed after the response.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Connection", "close")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func PublicRequestSize() func(http.Handler) http.Handler {
	return RequestSize(PublicMaxBodySize)
}

func AdminRequestSize() func(http.Handler) http.Handler {
	return RequestSize(AdminMaxBodySize)
}
