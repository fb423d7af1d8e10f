package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/leslieo2/go-status-board/internal/constants"
)

type requestIDKey struct{}

const maxRequestIDLength = 128

// RequestIDMiddleware tags each request with an ID, reusing a caller-supplied
// X-Request-ID when it is short enough.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(constants.HeaderXRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		w.Header().Set(constants.HeaderXRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestID returns the ID assigned by RequestIDMiddleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
