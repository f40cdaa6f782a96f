package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dromero-dev/clubfunds-backend/api/responses"
	pkgerrors "github.com/dromero-dev/clubfunds-backend/pkg/errors"
	"github.com/dromero-dev/clubfunds-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy bounds request volume per caller IP over a fixed window.
type RateLimitPolicy struct {
	window  time.Duration
	ipLimit int
}

func NewRateLimitPolicy(window time.Duration, ipLimit int) RateLimitPolicy {
	return RateLimitPolicy{window: window, ipLimit: ipLimit}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.ipLimit > 0
}

// RateLimit throttles per caller IP. A limiter-store failure fails open:
// availability at the edge beats strict enforcement, and the occurrence is
// logged for operators.
func RateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			allowed, count, err := store.FixedWindowAllow(ctx, "ip:"+ip, int64(policy.ipLimit), policy.window)
			if err != nil {
				if logg != nil {
					logCtx := logg.WithField(ctx, "ip", ip)
					logg.Warn(logCtx, "rate_limit.store_unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"ip":             ip,
						"attempts":       count,
						"limit":          policy.ipLimit,
						"window_seconds": int(policy.window.Seconds()),
					})
					logg.Warn(logCtx, "rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
