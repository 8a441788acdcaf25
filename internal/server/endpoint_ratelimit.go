// endpoint_ratelimit.go - Per-endpoint rate limits layered on the global one.
//
// Ingest endpoints get stricter limits than reads: a misconfigured CI matrix
// can hammer the board with identical summaries.
package server

import (
	"net/http"
	"strings"
	"time"
)

type endpointRateLimiter struct {
	ingestLimiter *rateLimiter // summary + report ingestion
	badgeLimiter  *rateLimiter // badge.svg, fetched by README renders
	apiLimiter    *rateLimiter // JSON read API
}

func newEndpointRateLimiter() *endpointRateLimiter {
	return &endpointRateLimiter{
		// Ingest: 60 summaries per minute per IP covers even large CI matrices.
		ingestLimiter: newRateLimiter(60, time.Minute),

		// Badges: high ceiling, caches are bypassed on purpose.
		badgeLimiter: newRateLimiter(600, time.Minute),

		// Read API and history queries.
		apiLimiter: newRateLimiter(120, time.Minute),
	}
}

func (e *endpointRateLimiter) limiterFor(r *http.Request) *rateLimiter {
	path := r.URL.Path

	if r.Method == http.MethodPost {
		return e.ingestLimiter
	}
	if strings.HasSuffix(path, "/badge.svg") {
		return e.badgeLimiter
	}
	if strings.HasSuffix(path, "/summary") || strings.HasSuffix(path, "/history") ||
		strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/report") {
		return e.apiLimiter
	}
	return nil
}

func (e *endpointRateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl := e.limiterFor(r); rl != nil && !rl.allow(clientIP(r)) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
