package middleware

import (
	"net"
	"net/http"

	"github.com/RoyceAzure/lab/pizzabot/internal/infra/limiter"
	"github.com/RoyceAzure/rj/api"
	"github.com/rs/zerolog"
)

// RateLimitMiddleware 依來源 IP 限流, limiter 出錯時放行
func RateLimitMiddleware(l limiter.ILimiter, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := l.Allow(r.Context(), clientKey(r))
			if err != nil {
				logger.Warn().Err(err).Str("request_id", GetRequestID(r)).Msg("rate limiter unavailable")
				allowed = true
			}
			if !allowed {
				api.ErrorJSON(w, http.StatusTooManyRequests, nil, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
