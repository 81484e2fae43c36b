package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nestfold/provisioning/pkg/logctx"
)

// RequestLogger attaches a request-scoped logger enriched with trace_id
// and user_id to both gin.Context and the request context.
func RequestLogger(base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		reqLogger := base.With("trace_id", logctx.TraceID(ctx))
		if uid := logctx.UserID(ctx); uid != "" {
			reqLogger = reqLogger.With("user_id", uid)
		}

		c.Set(logctx.GinKeyLogger, reqLogger)
		c.Request = c.Request.WithContext(logctx.WithLogger(ctx, reqLogger))

		c.Next()
	}
}
