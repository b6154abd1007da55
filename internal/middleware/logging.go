package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Logging wraps chi's request logger with mavbridge's own logger, so
// access lines share the same prefix/destination as the rest of the
// service's log output.
func Logging(logger *log.Logger) func(http.Handler) http.Handler {
	return chimw.RequestLogger(&chimw.DefaultLogFormatter{
		Logger:  logger,
		NoColor: true,
	})
}

// Timed wraps next, calling record with the route pattern, method and
// elapsed duration after the handler returns — used to feed the
// Prometheus request-duration histogram without chi knowing about it.
func Timed(record func(method, route string, status int, elapsed time.Duration)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			record(r.Method, route, ww.Status(), time.Since(start))
		})
	}
}
