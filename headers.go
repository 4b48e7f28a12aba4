package gatekeep

import (
	"math"
	"net/http"
	"strconv"
)

// HeaderNames configures the response header names a Result maps to.
// Names are configurable; the presence rules are not: the limit and reset
// headers are always set, the remaining header is always set (0 when
// denied), and the retry-after header is set only on denial.
type HeaderNames struct {
	Limit      string
	Remaining  string
	Reset      string
	RetryAfter string
}

// DefaultHeaderNames returns the conventional names.
func DefaultHeaderNames() HeaderNames {
	return HeaderNames{
		Limit:      "X-RateLimit-Limit",
		Remaining:  "X-RateLimit-Remaining",
		Reset:      "X-RateLimit-Reset",
		RetryAfter: "Retry-After",
	}
}

// withDefaults fills empty names so a partially customized HeaderNames
// still satisfies the presence rules.
func (h HeaderNames) withDefaults() HeaderNames {
	def := DefaultHeaderNames()
	if h.Limit == "" {
		h.Limit = def.Limit
	}
	if h.Remaining == "" {
		h.Remaining = def.Remaining
	}
	if h.Reset == "" {
		h.Reset = def.Reset
	}
	if h.RetryAfter == "" {
		h.RetryAfter = def.RetryAfter
	}
	return h
}

// Apply writes the result to dst. The reset header carries a Unix
// timestamp; the retry-after header carries whole seconds, at least 1.
func (h HeaderNames) Apply(dst http.Header, res Result) {
	h = h.withDefaults()
	dst.Set(h.Limit, strconv.Itoa(res.Limit))
	dst.Set(h.Remaining, strconv.Itoa(res.Remaining))
	dst.Set(h.Reset, strconv.FormatInt(res.ResetTime.Unix(), 10))
	if !res.Allowed {
		secs := int(math.Ceil(res.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		dst.Set(h.RetryAfter, strconv.Itoa(secs))
	}
}
