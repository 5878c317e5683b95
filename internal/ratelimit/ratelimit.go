// Package ratelimit provides per-client token bucket limiting for HTTP requests.
package ratelimit

import (
	"net"
	"net/http"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

// idleTTL is how long a client's bucket is kept after its last request.
const idleTTL = 30 * time.Minute

// Limiter decides whether a request for key may proceed.
type Limiter interface {
	Allow(key string) bool
}

type tokenBucketLimiter struct {
	buckets *ttlcache.Cache[string, *rate.Limiter]
	limit   rate.Limit
	burst   int
}

// NewTokenBucket returns a limiter refilling perSecond tokens per key up to
// burst, and a stop function releasing the expiry goroutine.
func NewTokenBucket(perSecond float64, burst int) (Limiter, func()) {
	buckets := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](idleTTL),
	)
	go buckets.Start()

	return &tokenBucketLimiter{
		buckets: buckets,
		limit:   rate.Limit(perSecond),
		burst:   burst,
	}, buckets.Stop
}

func (l *tokenBucketLimiter) Allow(key string) bool {
	item, _ := l.buckets.GetOrSet(key, rate.NewLimiter(l.limit, l.burst))
	return item.Value().Allow()
}

// KeyFunc derives the limiting key from a request.
type KeyFunc func(r *http.Request) string

// IPKeyFunc keys requests by the remote IP, without the port.
func IPKeyFunc(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip: " + host
}

// Middleware rejects requests over the limit with onLimited, and passes the
// rest to next. Requests whose method is not in methods are never limited;
// an empty methods list limits every request.
func Middleware(limiter Limiter, key KeyFunc, onLimited http.HandlerFunc, methods ...string) func(http.Handler) http.Handler {
	limited := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		limited[m] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(limited) > 0 {
				if _, ok := limited[r.Method]; !ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			if !limiter.Allow(key(r)) {
				onLimited(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
