package mid

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimitOpts configures per-client token buckets.
type RateLimitOpts struct {
	// RPS is the sustained requests per second allowed per client.
	RPS float64
	// Burst is the bucket capacity.
	Burst int
	// IdleTTL evicts a client's bucket after this long without requests.
	IdleTTL time.Duration
	// OnReject is called for every rejected request (optional).
	OnReject func(*http.Request)
}

// RateLimit returns middleware that rejects clients exceeding their token
// bucket with 429. Clients are keyed by remote IP.
func RateLimit(opts RateLimitOpts) Middleware {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 10 * time.Minute
	}
	buckets := cache.New(opts.IdleTTL, 2*opts.IdleTTL)

	limiterFor := func(key string) *rate.Limiter {
		if v, ok := buckets.Get(key); ok {
			l := v.(*rate.Limiter)
			buckets.SetDefault(key, l)
			return l
		}
		l := rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst)
		// Add fails if a concurrent request stored a limiter first; use theirs.
		if err := buckets.Add(key, l, cache.DefaultExpiration); err != nil {
			if v, ok := buckets.Get(key); ok {
				return v.(*rate.Limiter)
			}
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.RPS <= 0 || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if !limiterFor(clientKey(r)).Allow() {
				if opts.OnReject != nil {
					opts.OnReject(r)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey prefers the first X-Forwarded-For hop, falling back to RemoteAddr.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
