package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
)

// Recovery creates a panic recovery middleware. panics may be nil, in
// which case recovered panics are logged but not counted.
func Recovery(logger *log.Logger, panics prometheus.Counter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					// Log the panic and stack trace
					logger.Printf("PANIC: %v\n%s", err, debug.Stack())
					if panics != nil {
						panics.Inc()
					}

					// Return 500 error
					w.WriteHeader(http.StatusInternalServerError)
					fmt.Fprintf(w, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
