package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/phrazzld/taskman-api/internal/api/shared"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
)

// Recoverer turns a panicking handler into a 500 response. http.ErrAbortHandler
// is re-raised so net/http can abort the connection.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}

			logger.FromContext(r.Context()).Error("handler panicked",
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()))
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Internal Server Error", fmt.Errorf("panic: %v", p))
		}()
		next.ServeHTTP(w, r)
	})
}
