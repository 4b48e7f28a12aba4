package gatekeep

import (
	"fmt"
	"time"
)

// Strategy selects the admission algorithm. The set is closed: the engine
// dispatches over it with an exhaustive switch rather than a name-to-type
// registry.
type Strategy int

const (
	// StrategyFixedWindow counts requests in aligned windows. O(1) state,
	// but a caller can fit up to 2x the limit in a span straddling two
	// adjacent windows.
	StrategyFixedWindow Strategy = iota
	// StrategySlidingWindow keeps a log of request timestamps. O(limit)
	// state, exact: no window of the configured length ever observes more
	// than the limit.
	StrategySlidingWindow
	// StrategyTokenBucket refills tokens continuously and admits while at
	// least one token is available. Tolerates bursts up to the limit.
	StrategyTokenBucket
)

// String returns the configuration-grammar name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyFixedWindow:
		return "fixed"
	case StrategySlidingWindow:
		return "sliding"
	case StrategyTokenBucket:
		return "token_bucket"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps a configuration-grammar name to a Strategy.
// The empty string selects the default, StrategyFixedWindow.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "fixed":
		return StrategyFixedWindow, nil
	case "sliding":
		return StrategySlidingWindow, nil
	case "token_bucket":
		return StrategyTokenBucket, nil
	default:
		return 0, fmt.Errorf("gatekeep: unknown strategy %q", name)
	}
}

// Identifier selects the key resolver, i.e. how a request is mapped to
// the caller whose quota is checked.
type Identifier int

const (
	// IdentifierIP keys by client IP (forwarded headers, then peer address).
	IdentifierIP Identifier = iota
	// IdentifierUser keys by authenticated user, falling back to session
	// cookie and then to IP.
	IdentifierUser
	// IdentifierHeader keys by a one-way hash of a caller-supplied token.
	IdentifierHeader
	// IdentifierComposite joins two or more of the above; callers that
	// differ in any component get separate quotas.
	IdentifierComposite
)

// String returns the configuration-grammar name of the identifier.
func (i Identifier) String() string {
	switch i {
	case IdentifierIP:
		return "ip"
	case IdentifierUser:
		return "user"
	case IdentifierHeader:
		return "header"
	case IdentifierComposite:
		return "composite"
	default:
		return fmt.Sprintf("Identifier(%d)", int(i))
	}
}

// ParseIdentifier maps a configuration-grammar name to an Identifier.
// The empty string selects the default, IdentifierIP.
func ParseIdentifier(name string) (Identifier, error) {
	switch name {
	case "", "ip":
		return IdentifierIP, nil
	case "user":
		return IdentifierUser, nil
	case "header":
		return IdentifierHeader, nil
	case "composite":
		return IdentifierComposite, nil
	default:
		return 0, fmt.Errorf("gatekeep: unknown identifier %q", name)
	}
}

// Config describes one protected route: how many requests (Limit) per
// Window, decided by which Strategy, keyed by which Identifier.
//
// A Config is validated once, at engine construction. Misconfiguration is
// fatal to route setup and is never evaluated per request.
type Config struct {
	// Limit is the number of requests admitted per window. Must be > 0.
	Limit int
	// Window is the rate-limiting window. Must be a positive whole number
	// of seconds; all reset and retry arithmetic is second-based.
	Window time.Duration
	// Strategy selects the admission algorithm. Defaults to fixed window.
	Strategy Strategy
	// Identifier selects the key resolver. Defaults to IP.
	Identifier Identifier
	// CompositeOf lists the components of a composite identifier, in
	// order. Required (with at least two non-composite entries) when
	// Identifier is IdentifierComposite, and must be empty otherwise.
	CompositeOf []Identifier
}

// Validate reports whether the config is usable. All violations are
// configuration errors in the sense of the engine's error model: they
// surface at construction time only.
func (c Config) Validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("gatekeep: limit must be > 0, got %d", c.Limit)
	}
	if c.Window < time.Second || c.Window%time.Second != 0 {
		return fmt.Errorf("gatekeep: window must be a positive whole number of seconds, got %v", c.Window)
	}
	switch c.Strategy {
	case StrategyFixedWindow, StrategySlidingWindow, StrategyTokenBucket:
	default:
		return fmt.Errorf("gatekeep: unknown strategy %v", c.Strategy)
	}
	switch c.Identifier {
	case IdentifierIP, IdentifierUser, IdentifierHeader:
		if len(c.CompositeOf) != 0 {
			return fmt.Errorf("gatekeep: CompositeOf is only valid with the composite identifier")
		}
	case IdentifierComposite:
		if len(c.CompositeOf) < 2 {
			return fmt.Errorf("gatekeep: composite identifier needs at least 2 components, got %d", len(c.CompositeOf))
		}
		for _, id := range c.CompositeOf {
			switch id {
			case IdentifierIP, IdentifierUser, IdentifierHeader:
			default:
				return fmt.Errorf("gatekeep: invalid composite component %v", id)
			}
		}
	default:
		return fmt.Errorf("gatekeep: unknown identifier %v", c.Identifier)
	}
	return nil
}
