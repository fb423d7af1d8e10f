package middleware

import (
	"fmt"
	"net/http"

	"github.com/leslieo2/go-status-board/internal/constants"
)

// RequestSizeLimitMiddleware rejects bodies over maxRequestSize bytes. Every
// route of the board is a GET, so bodies are never read; the cap keeps a
// client from holding a connection open by streaming one.
func RequestSizeLimitMiddleware(maxRequestSize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxRequestSize <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxRequestSize {
				WriteError(w, http.StatusRequestEntityTooLarge, constants.ErrorCodeRequestTooLarge,
					fmt.Sprintf("Request body too large, max size: %d bytes", maxRequestSize))
				return
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
			}
			next.ServeHTTP(w, r)
		})
	}
}
