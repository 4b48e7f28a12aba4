package gatekeep

import (
	"fmt"
	"net/http"

	"github.com/dkotenko/gatekeep/store"
)

// Engine is the sole entry point for the surrounding middleware: it
// resolves the caller's key, delegates to the configured strategy against
// the counter store, and returns the result unmodified.
//
// The engine never constructs HTTP responses and never raises on the
// request path. Configuration errors surface once, from NewEngine; store
// failures are absorbed by failing open (see Attempt).
type Engine struct {
	cfg      Config
	limiter  Limiter
	resolver KeyResolver
	headers  HeaderNames
	clock    Clock
	logger   Logger
	prefix   string
}

// NewEngine validates cfg and builds the strategy and resolver it names.
// Dispatch is a closed switch over the two enums; an unknown value is a
// configuration error, never a request-time failure.
func NewEngine(cfg Config, st store.Store, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := newEngineOptions(opts...)

	limiter, err := buildLimiter(cfg, st, o.clock)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:      cfg,
		limiter:  limiter,
		resolver: buildResolver(cfg.Identifier, cfg.CompositeOf, o),
		headers:  o.headers,
		clock:    o.clock,
		logger:   o.logger,
		prefix:   o.keyPrefix,
	}, nil
}

func buildLimiter(cfg Config, st store.Store, clk Clock) (Limiter, error) {
	switch cfg.Strategy {
	case StrategyFixedWindow:
		return NewFixedWindow(st, cfg.Limit, cfg.Window, clk)
	case StrategySlidingWindow:
		return NewSlidingWindow(st, cfg.Limit, cfg.Window, clk)
	case StrategyTokenBucket:
		return NewTokenBucket(st, cfg.Limit, cfg.Window, clk)
	default:
		// Unreachable after Validate; kept so the switch stays total.
		return nil, fmt.Errorf("gatekeep: unknown strategy %v", cfg.Strategy)
	}
}

func buildResolver(id Identifier, composite []Identifier, o engineOptions) KeyResolver {
	switch id {
	case IdentifierUser:
		return UserResolver{Lookup: o.userLookup, SessionCookie: o.sessionCookie}
	case IdentifierHeader:
		return HeaderResolver{Header: o.tokenHeader}
	case IdentifierComposite:
		children := make([]KeyResolver, len(composite))
		for i, child := range composite {
			children[i] = buildResolver(child, nil, o)
		}
		return CompositeResolver{Resolvers: children}
	default:
		return IPResolver{}
	}
}

// Attempt decides admission for one request.
//
// It never returns an error: denial is a normal Result, and a counter
// store failure makes the engine fail open. The request is admitted with
// Remaining reported as limit-1 and the Result flagged Approximate.
func (e *Engine) Attempt(r *http.Request) Result {
	key := e.resolver.Resolve(r)
	if e.prefix != "" {
		key = e.prefix + ":" + key
	}

	res, err := e.limiter.Attempt(r.Context(), key)
	if err != nil {
		e.logger.Errorf("gatekeep: counter store failed for key %q, failing open: %v", key, err)
		now := e.clock.Now()
		return Result{
			Allowed:     true,
			Limit:       e.cfg.Limit,
			Remaining:   e.cfg.Limit - 1,
			ResetTime:   now.Add(e.cfg.Window),
			Approximate: true,
		}
	}

	if res.Allowed {
		e.logger.Debugf("gatekeep: allowed key %q, remaining %d of %d", key, res.Remaining, res.Limit)
	} else {
		e.logger.Debugf("gatekeep: denied key %q, retry after %v", key, res.RetryAfter)
	}
	return res
}

// Config returns the engine's validated configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// HeaderNames returns the configured response header names.
func (e *Engine) HeaderNames() HeaderNames {
	return e.headers
}
