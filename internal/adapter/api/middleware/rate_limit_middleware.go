package middleware

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"mimoly/internal/infrastructure/ratelimit"
	"mimoly/pkg/errors"
	"mimoly/pkg/logger"
	"mimoly/pkg/response"
)

// RateLimitByIP limits requests per client IP using the bucket policy of
// action.
func RateLimitByIP(limiter *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			allowed, wait := limiter.Allow(ip, action)
			if !allowed {
				logger.Warn("RATE LIMIT: Blocked %s request from IP %s (retry in %v)", action, ip, wait)
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded"))
			}
			return next(c)
		}
	}
}
