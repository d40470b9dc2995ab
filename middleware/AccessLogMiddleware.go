package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"git.sr.ht/~aondrejcak/wellness-api/kernel"
)

// AccessLog uses gin's colored logger in development and one zerolog line
// per request elsewhere.
func AccessLog(cfg *kernel.Config) gin.HandlerFunc {
	if cfg.IsDevelopment() {
		return gin.Logger()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			event = log.Info()
		}

		if rt := kernel.Runtime(c); rt != nil {
			event = event.Str("request_id", rt.RequestID)
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Int("bytes", c.Writer.Size()).
			Msg("request")
	}
}
