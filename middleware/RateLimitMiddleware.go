package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"git.sr.ht/~aondrejcak/wellness-api/kernel"
)

const RateLimitMessage = "Too many requests from this IP, please try again later."

// RateLimiter allows RateLimitMax requests per client IP in each fixed
// RateLimitWindow. Requests over the limit are rejected, not queued.
func RateLimiter(cfg *kernel.Config) gin.HandlerFunc {
	rate := limiter.Rate{
		Period: cfg.RateLimitWindow,
		Limit:  cfg.RateLimitMax,
	}
	instance := limiter.New(memory.NewStore(), rate)

	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			kernel.Fail(c, http.StatusTooManyRequests, RateLimitMessage, nil)
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			log.Error().Err(err).Msg("rate limiter store failed")
			kernel.Fail(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), nil)
		}),
	)
}
