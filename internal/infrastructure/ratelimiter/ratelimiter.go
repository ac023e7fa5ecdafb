package ratelimiter

import (
	"net/http"
	"time"
)

type Limiter interface {
	Allow(sourceKey string) (bool, time.Duration)
	Close()
}

// SourceKey picks the client identity a request is limited by.
func SourceKey(r *http.Request) string {
	if key := r.Header.Get("X-RateLimit-Key"); key != "" {
		return key
	}

	// Fall back to IP address (RealIP middleware rewrites RemoteAddr)
	return r.RemoteAddr
}
