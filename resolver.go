package gatekeep

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// KeyResolver maps an inbound request to the identity string whose quota
// is checked. Resolvers are total: they never fail, falling back to a
// usable key instead.
//
// Keys are computed fresh per request and never persisted beyond it
// (counter records are keyed by them, but the key itself is not stored).
type KeyResolver interface {
	Resolve(r *http.Request) string
}

// UserLookup extracts an authenticated user identity from a request, if
// one is present. It is injected into the UserResolver so the engine
// never reaches into ambient auth state.
type UserLookup func(r *http.Request) (id string, ok bool)

const (
	defaultSessionCookie = "session_id"
	defaultTokenHeader   = "X-Api-Key"

	// unknownKey is the terminal fallback when no candidate validates.
	unknownKey = "unknown"
	// anonymousKey is the HeaderResolver fallback for requests that carry
	// no token at all.
	anonymousKey = "anonymous"

	// compositeSeparator joins composite sub-keys. The unit separator
	// cannot appear in any individual key: IP keys are canonical
	// addresses, user/session/token keys are prefixed header or hash
	// text with no control characters.
	compositeSeparator = "\x1f"
)

// forwardedHeaders are consulted in priority order after X-Forwarded-For.
var forwardedHeaders = []string{"X-Real-IP", "CF-Connecting-IP"}

// IPResolver keys requests by client IP.
//
// It inspects X-Forwarded-For (first element), X-Real-IP and
// CF-Connecting-IP in that order, accepting only syntactically valid
// public addresses so that callers cannot dodge their quota by injecting
// private or loopback addresses into forwarded headers. The raw transport
// peer address is accepted even when private, which local and development
// deployments need. If nothing validates the key is "unknown".
type IPResolver struct{}

// Resolve implements KeyResolver.
func (IPResolver) Resolve(r *http.Request) string {
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		first, _, _ := strings.Cut(v, ",")
		if ip, ok := parsePublicIP(strings.TrimSpace(first)); ok {
			return ip
		}
	}
	for _, name := range forwardedHeaders {
		if ip, ok := parsePublicIP(strings.TrimSpace(r.Header.Get(name))); ok {
			return ip
		}
	}

	host := strings.TrimSpace(r.RemoteAddr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.String()
	}
	return unknownKey
}

// parsePublicIP validates a forwarded-header candidate. Only globally
// routable addresses are accepted; private, loopback, link-local and
// unspecified addresses are treated as spoofing attempts.
func parsePublicIP(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return "", false
	}
	if addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() || addr.IsMulticast() || addr.IsUnspecified() {
		return "", false
	}
	return addr.String(), true
}

// UserResolver keys requests by authenticated user identity.
//
// The fallback chain is deterministic and side-effect-free: injected
// lookup ("user:{id}"), then session cookie ("session:{value}"), then the
// IP resolver's key. Two users behind one IP therefore never share a
// quota, while one user on two IPs does.
type UserResolver struct {
	// Lookup resolves the authenticated identity. Nil means no auth
	// integration; the resolver goes straight to the session fallback.
	Lookup UserLookup
	// SessionCookie is the session cookie name. Empty means "session_id".
	SessionCookie string
}

// Resolve implements KeyResolver.
func (u UserResolver) Resolve(r *http.Request) string {
	if u.Lookup != nil {
		if id, ok := u.Lookup(r); ok && id != "" {
			return "user:" + id
		}
	}
	name := u.SessionCookie
	if name == "" {
		name = defaultSessionCookie
	}
	if c, err := r.Cookie(name); err == nil && c.Value != "" {
		return "session:" + c.Value
	}
	return IPResolver{}.Resolve(r)
}

// HeaderResolver keys requests by a caller-supplied token: a custom
// header (default X-Api-Key) or, failing that, an Authorization Bearer
// value.
//
// The key is the SHA-256 of the token, so the raw token never reaches the
// counter store or the logs while the key stays stable per token.
type HeaderResolver struct {
	// Header is the token header name. Empty means "X-Api-Key".
	Header string
}

// Resolve implements KeyResolver.
func (h HeaderResolver) Resolve(r *http.Request) string {
	name := h.Header
	if name == "" {
		name = defaultTokenHeader
	}
	token := strings.TrimSpace(r.Header.Get(name))
	if token == "" {
		token = bearerToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		return anonymousKey
	}
	sum := sha256.Sum256([]byte(token))
	return "token:" + hex.EncodeToString(sum[:])
}

func bearerToken(auth string) string {
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}

// CompositeResolver joins the keys of two or more child resolvers, in
// order, so that callers differing in any component get separate quotas.
type CompositeResolver struct {
	Resolvers []KeyResolver
}

// Resolve implements KeyResolver.
func (c CompositeResolver) Resolve(r *http.Request) string {
	parts := make([]string, len(c.Resolvers))
	for i, res := range c.Resolvers {
		parts[i] = res.Resolve(r)
	}
	return strings.Join(parts, compositeSeparator)
}
