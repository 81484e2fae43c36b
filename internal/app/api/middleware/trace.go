package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/nestfold/provisioning/pkg/logctx"
	"github.com/nestfold/provisioning/pkg/tool"
)

// Trace attaches a trace ID to the request context. It reads
// X-Request-ID if the client sent one, otherwise generates a UUIDv7.
// The acting user, taken from X-User-ID, rides along in the same
// context for downstream audit fields.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Request-ID")
		if traceID == "" {
			traceID = tool.GenerateTraceID()
		}

		ctx := logctx.WithTraceID(c.Request.Context(), traceID)
		if uid := c.GetHeader("X-User-ID"); uid != "" {
			ctx = logctx.WithUserID(ctx, uid)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Writer.Header().Set("X-Request-ID", traceID)
		c.Next()
	}
}
