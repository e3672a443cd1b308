package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/chainwage/payroll-api/internal/handler"
	"github.com/chainwage/payroll-api/internal/logging"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log := logging.FromContext(r.Context())
				log.Error("panic recovered", "error", err, "stack", string(debug.Stack()))
				handler.RespondError(w, errors.New("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
