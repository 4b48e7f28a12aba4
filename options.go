package gatekeep

// Logger is the interface used for logging inside the engine.
//
// Implement it to plug in your own backend, or use one of the adapters
// under adapters/ (stdlib log, logrus, zap, zerolog). The default logger
// discards everything.
type Logger interface {
	Debugf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// noopLogger is the default Logger; it does nothing.
type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// engineOptions collects the engine's injectable collaborators.
type engineOptions struct {
	logger        Logger
	clock         Clock
	userLookup    UserLookup
	sessionCookie string
	tokenHeader   string
	headers       HeaderNames
	keyPrefix     string
}

// Option configures an Engine.
//
// Example:
//
//	eng, err := gatekeep.NewEngine(cfg, st,
//	    gatekeep.WithLogger(zapadapter.New(logger)),
//	    gatekeep.WithUserLookup(sessionUser),
//	)
type Option func(*engineOptions)

func newEngineOptions(opts ...Option) engineOptions {
	o := engineOptions{
		logger:  noopLogger{},
		clock:   SystemClock(),
		headers: DefaultHeaderNames(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the engine logger. Nil is ignored.
func WithLogger(l Logger) Option {
	return func(o *engineOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the time source, mainly for tests. Nil is ignored.
func WithClock(c Clock) Option {
	return func(o *engineOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithUserLookup injects the authenticated-identity lookup used by the
// user identifier.
func WithUserLookup(f UserLookup) Option {
	return func(o *engineOptions) {
		o.userLookup = f
	}
}

// WithSessionCookie sets the session cookie name for the user
// identifier's fallback chain. Default: "session_id".
func WithSessionCookie(name string) Option {
	return func(o *engineOptions) {
		o.sessionCookie = name
	}
}

// WithTokenHeader sets the header inspected by the header identifier.
// Default: "X-Api-Key" (with Authorization: Bearer as fallback).
func WithTokenHeader(name string) Option {
	return func(o *engineOptions) {
		o.tokenHeader = name
	}
}

// WithHeaderNames overrides the response header names. Empty fields keep
// their defaults.
func WithHeaderNames(h HeaderNames) Option {
	return func(o *engineOptions) {
		o.headers = h.withDefaults()
	}
}

// WithKeyPrefix prepends a prefix to every resolved key, partitioning the
// counter space per route when several engines share one store.
func WithKeyPrefix(prefix string) Option {
	return func(o *engineOptions) {
		o.keyPrefix = prefix
	}
}
