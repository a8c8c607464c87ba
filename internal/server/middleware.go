package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader          = "X-Request-ID"
	requestIDContextKey      = "request_id"
	logMessageRequestHandled = "request handled"
	logFieldRequestID        = "request_id"
	logFieldMethod           = "method"
	logFieldPath             = "path"
	logFieldStatus           = "status"
	logFieldLatency          = "latency"
	logFieldClientIP         = "client_ip"
)

// requestIDMiddleware propagates the caller's X-Request-ID or assigns a new one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(ginContext *gin.Context) {
		requestID := strings.TrimSpace(ginContext.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ginContext.Set(requestIDContextKey, requestID)
		ginContext.Header(requestIDHeader, requestID)
		ginContext.Next()
	}
}

func accessLogMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(ginContext *gin.Context) {
		startedAt := time.Now()
		ginContext.Next()
		logger.Info(logMessageRequestHandled,
			zap.String(logFieldRequestID, ginContext.GetString(requestIDContextKey)),
			zap.String(logFieldMethod, ginContext.Request.Method),
			zap.String(logFieldPath, ginContext.Request.URL.Path),
			zap.Int(logFieldStatus, ginContext.Writer.Status()),
			zap.Duration(logFieldLatency, time.Since(startedAt)),
			zap.String(logFieldClientIP, ginContext.ClientIP()),
		)
	}
}
