package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"git.sr.ht/~aondrejcak/wellness-api/kernel"
)

// ErrorHandler renders the last error attached to the context as the JSON
// error envelope, unless a handler already wrote a response.
func ErrorHandler(art *kernel.AppRuntime) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status := kernel.StatusOf(err)

		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		}
		art.Diagnostic.ErrorCounter.Add(c.Request.Context(), 1,
			metric.WithAttributes(attribute.Int("http.status_code", status)))

		if c.Writer.Written() {
			return
		}

		extra := envelopeIDs(c)
		if art.Config.IsDevelopment() {
			extra["error"] = err.Error()
		}
		kernel.Fail(c, status, kernel.MessageOf(err), extra)
	}
}

// NotFound is the NoRoute handler.
func NotFound(c *gin.Context) {
	_ = c.Error(kernel.NewHTTPError(http.StatusNotFound, "Not found - "+c.Request.URL.Path))
	c.Abort()
}

// Recovery turns a handler panic into a 500 envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Msg("recovered from panic")
		kernel.Fail(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), envelopeIDs(c))
	})
}

func envelopeIDs(c *gin.Context) gin.H {
	extra := gin.H{}
	if rt := kernel.Runtime(c); rt != nil {
		extra["requestId"] = rt.RequestID
		if id := rt.TraceID(); id != "" {
			extra["traceId"] = id
		}
	}
	return extra
}
