// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file validates the Idempotency-Key header of the LIFF repair form.
// The key is stashed in the context for the handler; when a lookup reports
// that the (scope, subject, key) triple already completed, the request is
// flagged as a replay so the rate limiter lets it through. Serving the
// stored result stays with the service.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the canonical request header that clients use to
// convey an idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderLineUserID carries the LIFF user's LINE ID next to the key. The
// body remains authoritative; the header only scopes the replay lookup.
const HeaderLineUserID = "X-Line-User-ID"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the lookup found a completed request for the key.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// Scope namespaces the keys, e.g. "repair-form-submit".
	Scope string
	// Subject picks the owner of the key. Defaults to the authenticated
	// admin, then to the X-Line-User-ID header.
	Subject func(*gin.Context) string
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Defaults to ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a still-valid result exists for
// (scope, subject, key) at now. Lookup errors never block the request.
type IdempotencyLookup func(ctx context.Context, scope, subject, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header when present.
// A malformed key is rejected with 400; an absent key is a no-op.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}
	subject := opts.Subject
	if subject == nil {
		subject = defaultSubject
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			abortJSON(c, http.StatusBadRequest, "bad_idempotency_key", "invalid Idempotency-Key")
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if sub := subject(c); lookup != nil && sub != "" {
			if exists, _ := lookup(c.Request.Context(), opts.Scope, sub, key, time.Now().UTC()); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}

func defaultSubject(c *gin.Context) string {
	if u := Username(c); u != "" {
		return u
	}
	return c.GetHeader(HeaderLineUserID)
}
