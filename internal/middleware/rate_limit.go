package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP in Echo's memory store.
// Idle buckets are dropped by the store once they have been unused for
// longer than it takes them to refill.
type RateLimiter struct {
	store *echomw.RateLimiterMemoryStore
}

// NewRateLimiter allows burst requests at once and one more every interval.
// A zero interval disables limiting.
func NewRateLimiter(every time.Duration, burst int) *RateLimiter {
	if every <= 0 {
		return &RateLimiter{}
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:      rate.Every(every),
			Burst:     burst,
			ExpiresIn: every * time.Duration(burst) * 2,
		}),
	}
}

// Allow reports whether key may make another request now.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.store == nil {
		return true
	}
	allowed, _ := rl.store.Allow(key)
	return allowed
}

// Middleware limits unsafe requests by client IP. Safe methods pass through.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return true
			}
			return rl.store == nil
		},
		Store: storeFunc(func(identifier string) (bool, error) {
			return rl.Allow(identifier), nil
		}),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many attempts, try again later")
		},
	})
}

// storeFunc adapts a function to echo's RateLimiterStore.
type storeFunc func(identifier string) (bool, error)

func (f storeFunc) Allow(identifier string) (bool, error) { return f(identifier) }
