package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/angelmondragon/pantrypal-backend/api/responses"
	pkgerrors "github.com/angelmondragon/pantrypal-backend/pkg/errors"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
)

// Recoverer turns a handler panic into an INTERNAL_ERROR envelope. When the
// handler already started the response only the log entry is written, since
// a second status line would corrupt the body the client is reading.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				ctx := r.Context()
				err := fmt.Errorf("panic in %s %s: %v", r.Method, routePattern(r), v)
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"panic":           fmt.Sprint(v),
						"route":           routePattern(r),
						"response_posted": rec.status != 0,
					})
					logg.Error(ctx, "panic.recovered", err)
				}
				if rec.status != 0 {
					return
				}
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
