package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware starts a server span per request. Health checks are not traced.
func TracingMiddleware(service string) gin.HandlerFunc {
	return otelgin.Middleware(service, otelgin.WithFilter(func(r *http.Request) bool {
		return r.URL.Path != "/health"
	}))
}

// SpanAttributes tags the request span with the request ID and, once the
// handler returns, with how much was written. For streamed answers the size
// is the number of bytes relayed before the stream ended.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		span.SetAttributes(attribute.String("request.id", GetRequestID(c)))

		c.Next()

		span.SetAttributes(attribute.Int("http.response.size", c.Writer.Size()))
		if len(c.Errors) > 0 {
			span.SetAttributes(attribute.String("app.error", c.Errors.Last().Error()))
		}
	}
}
