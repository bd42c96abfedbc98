package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

type bucket struct {
	count int
	until time.Time
}

// RateLimit throttles requests per client IP within a fixed window. With a
// Redis client the window is shared across instances via INCR+EXPIRE; without
// one (or when Redis errors) it falls back to an in-process bucket map, which
// also keeps a Redis outage from taking the API down.
func RateLimit(rdb *redis.Client, limit int, per time.Duration, logger zerolog.Logger) func(http.Handler) http.Handler {
	var mu sync.Mutex
	buckets := make(map[string]*bucket)

	allowLocal := func(ip string) bool {
		mu.Lock()
		defer mu.Unlock()
		b, ok := buckets[ip]
		now := time.Now()
		if !ok || now.After(b.until) {
			b = &bucket{until: now.Add(per)}
			buckets[ip] = b
		}
		if b.count >= limit {
			return false
		}
		b.count++
		return true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			allowed := true
			if rdb != nil {
				key := fmt.Sprintf("ratelimit:ip:%s:%d", ip, time.Now().Unix()/int64(per.Seconds()))
				n, err := rdb.Incr(r.Context(), key).Result()
				if err != nil {
					logger.Warn().Err(err).Msg("redis rate limit unavailable, using local buckets")
					allowed = allowLocal(ip)
				} else {
					if n == 1 {
						rdb.Expire(r.Context(), key, per)
					}
					allowed = n <= int64(limit)
				}
			} else {
				allowed = allowLocal(ip)
			}
			if !allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(per.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip != "" && net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}
