package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/surveytab/internal/logging"
)

const (
	headerRequestID = "X-Request-ID"
	ctxLoggerKey    = "surveytab.logger"
	ctxRequestIDKey = "surveytab.request_id"
)

// requestLogger tags each request with an id (client supplied or a new uuid)
// and logs one line when it completes.
func requestLogger(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := getOrCreateRequestID(c)
		logger := base.With(zap.String(logging.FieldRequestID, requestID))
		c.Set(ctxLoggerKey, logger)

		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration(logging.FieldDuration, time.Since(start)))
	}
}

func getOrCreateRequestID(c *gin.Context) string {
	if id, ok := c.Get(ctxRequestIDKey); ok {
		return id.(string)
	}
	requestID := c.GetHeader(headerRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header(headerRequestID, requestID)
	c.Set(ctxRequestIDKey, requestID)
	return requestID
}

// requestLog returns the request-scoped logger, or base when the middleware
// did not run.
func requestLog(c *gin.Context, base *zap.Logger) *zap.Logger {
	if v, ok := c.Get(ctxLoggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return base.With(zap.String(logging.FieldRequestID, getOrCreateRequestID(c)))
}
