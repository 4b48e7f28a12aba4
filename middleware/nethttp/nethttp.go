// Package nethttp adapts a gatekeep.Engine to standard net/http
// middleware. The returned wrapper is compatible with any router that
// takes func(http.Handler) http.Handler, such as chi.
package nethttp

import (
	"net/http"

	"github.com/dkotenko/gatekeep"
)

// ErrorHandler renders the denial response. err is always a
// *gatekeep.DeniedError (it satisfies errors.Is(err, gatekeep.ErrDenied));
// the rate-limit headers are already written when it runs.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error, res gatekeep.Result)

// Option configures the middleware.
type Option func(*config)

type config struct {
	handler ErrorHandler
}

// WithErrorHandler replaces the default 429 response. Nil is ignored.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *config) {
		if h != nil {
			c.handler = h
		}
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error, res gatekeep.Result) {
	http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
}

// Middleware wraps an http.Handler with admission control.
//
// Every response carries the rate-limit headers from the engine's
// configuration. Denied requests short-circuit the pipeline through the
// error handler; the engine fails open on store trouble, so the
// middleware never turns limiter state into a 5xx.
//
// Example:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/", handler)
//	http.ListenAndServe(":8080", nethttp.Middleware(eng)(mux))
func Middleware(eng *gatekeep.Engine, opts ...Option) func(http.Handler) http.Handler {
	cfg := config{handler: defaultErrorHandler}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := eng.Attempt(r)
			eng.HeaderNames().Apply(w.Header(), res)

			if !res.Allowed {
				cfg.handler(w, r, gatekeep.NewDeniedError(eng.Config(), res), res)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
