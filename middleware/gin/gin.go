// Package gin adapts a gatekeep.Engine to Gin middleware.
package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkotenko/gatekeep"
)

// ErrorHandler renders the denial response. err is always a
// *gatekeep.DeniedError; the rate-limit headers are already written when
// it runs, and the middleware aborts the context after it returns.
type ErrorHandler func(c *gin.Context, err error, res gatekeep.Result)

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

func defaultErrorHandler(c *gin.Context, err error, res gatekeep.Result) {
	c.String(http.StatusTooManyRequests, "Too Many Requests")
}

// RateLimiter returns a Gin handler enforcing the engine's admission
// policy. Apply it per route group or globally with router.Use.
//
// Example:
//
//	router := gin.Default()
//	router.Use(ginmw.RateLimiter(eng))
func RateLimiter(eng *gatekeep.Engine, opts ...Option) gin.HandlerFunc {
	cfg := config{handler: defaultErrorHandler}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(c *gin.Context) {
		res := eng.Attempt(c.Request)
		eng.HeaderNames().Apply(c.Writer.Header(), res)

		if !res.Allowed {
			cfg.handler(c, gatekeep.NewDeniedError(eng.Config(), res), res)
			c.Abort()
			return
		}
		c.Next()
	}
}
