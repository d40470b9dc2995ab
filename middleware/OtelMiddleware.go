package middleware

import (
	"github.com/gin-gonic/gin"
	"go.nhat.io/otelsql/attribute"
	"go.opentelemetry.io/otel/metric"

	"git.sr.ht/~aondrejcak/wellness-api/kernel"
)

const RequestIDHeader = "X-Request-ID"

// TracerMiddleware opens the request runtime and its root span, assigns a
// request id and counts the request.
func TracerMiddleware(art *kernel.AppRuntime) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID, _ = kernel.UuidV7()
		}
		c.Header(RequestIDHeader, requestID)

		rt := kernel.InitRequest(art, c, requestID)
		rt.Span.SetAttributes(
			attribute.KeyValue("http.method", c.Request.Method),
			attribute.KeyValue("http.url", c.Request.URL.String()),
			attribute.KeyValue("http.host", c.Request.Host),
			attribute.KeyValue("http.request_id", requestID),
		)
		c.Request = c.Request.WithContext(rt.SpanContext)

		art.Diagnostic.RequestCounter.Add(rt.SpanContext, 1,
			metric.WithAttributes(attribute.KeyValue("http.method", c.Request.Method)),
		)

		defer func() {
			rt.Span.SetAttributes(attribute.KeyValue("http.status_code", c.Writer.Status()))
			rt.End()
		}()

		c.Next()
	}
}
