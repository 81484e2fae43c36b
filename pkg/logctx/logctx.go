package logctx

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ctxKey string

const (
	// KeyLogger stores a request-scoped *zap.SugaredLogger.
	KeyLogger ctxKey = "logger"
	// KeyTraceID stores the request trace ID.
	KeyTraceID ctxKey = "traceID"
	// KeyUserID stores the acting directory user ID.
	KeyUserID ctxKey = "userID"
)

// GinKeyLogger is the gin.Context key mirroring KeyLogger.
const GinKeyLogger = "logger"

// WithLogger attaches a request-scoped logger to ctx.
func WithLogger(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, KeyLogger, l)
}

// WithTraceID attaches a trace ID to ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, KeyTraceID, traceID)
}

// WithUserID attaches the acting user ID to ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, KeyUserID, userID)
}

// TraceID returns the trace ID from ctx, or "".
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(KeyTraceID).(string)
	return s
}

// UserID returns the acting user ID from ctx, or "".
func UserID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(KeyUserID).(string)
	return s
}

// FromGin returns a request-scoped logger from gin.Context if present,
// otherwise falls back to the request context.
func FromGin(c *gin.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return base
	}
	if l, ok := c.Get(GinKeyLogger); ok {
		if lg, ok := l.(*zap.SugaredLogger); ok && lg != nil {
			return lg
		}
	}
	return FromCtx(c.Request.Context(), base)
}

// FromCtx returns the logger stored in ctx, or base enriched with
// trace_id/user_id when only the primitives are present.
func FromCtx(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if ctx == nil {
		return base
	}
	if lg, ok := ctx.Value(KeyLogger).(*zap.SugaredLogger); ok && lg != nil {
		return lg
	}
	var fields []interface{}
	if tid := TraceID(ctx); tid != "" {
		fields = append(fields, "trace_id", tid)
	}
	if uid := UserID(ctx); uid != "" {
		fields = append(fields, "user_id", uid)
	}
	if len(fields) > 0 {
		return base.With(fields...)
	}
	return base
}
