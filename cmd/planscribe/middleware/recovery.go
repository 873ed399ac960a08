package middleware

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// RecoveryMiddleware provides panic recovery middleware.
type RecoveryMiddleware struct {
	logger zerolog.Logger
}

// NewRecoveryMiddleware creates a new recovery middleware.
func NewRecoveryMiddleware(logger zerolog.Logger) *RecoveryMiddleware {
	return &RecoveryMiddleware{
		logger: logger,
	}
}

// Handler turns a panic in next into a 500 response.
func (m *RecoveryMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				if rv == http.ErrAbortHandler {
					panic(rv)
				}
				m.handlePanic(rv, r)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = fmt.Fprint(w, `{"code":"INTERNAL_ERROR","message":"internal server error"}`+"\n")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// handlePanic logs panic information.
func (m *RecoveryMiddleware) handlePanic(rv interface{}, r *http.Request) {
	stack := debug.Stack()

	m.logger.Error().
		Str("path", r.URL.Path).
		Str("request_id", GetRequestID(r.Context())).
		Interface("panic", rv).
		Str("stack", string(stack)).
		Msg("Panic recovered")

	fmt.Fprintf(stderr, "PANIC in %s: %v\n%s\n", r.URL.Path, rv, stack)
}

// stderr is used for panic output
var stderr io.Writer = os.Stderr
