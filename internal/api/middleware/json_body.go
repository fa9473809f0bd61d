package middleware

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/cloo-solutions/podquery/internal/api"
)

const DefaultMaxBodyBytes int64 = 64 * 1024

// JSONBody guards request bodies on POST, PUT and PATCH. A declared
// Content-Type must be application/json and the body is capped at limit
// bytes; other methods pass through untouched.
func JSONBody(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !carriesBody(r.Method) || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}

			if ct := r.Header.Get("Content-Type"); ct != "" {
				mediaType, _, err := mime.ParseMediaType(ct)
				if err != nil || mediaType != "application/json" {
					api.Error(w, http.StatusUnsupportedMediaType, "content type must be application/json")
					return
				}
			}

			if r.ContentLength > limit {
				api.Error(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", limit))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

func carriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
