// Package middleware 提供 Gin 通用中间件（日志、recover、鉴权、限流）
package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mwangaza/sharewallet/pkg/logger"
	"github.com/mwangaza/sharewallet/pkg/metrics"
)

// Logging Gin 日志中间件，注入 request_id / trace_id 并记录请求耗时
func Logging(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.New().String()
		}

		ctx := context.WithValue(c.Request.Context(), logger.TraceIDKey, traceID)
		ctx = context.WithValue(ctx, logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		if m != nil {
			m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.Observe(duration.Seconds())
		}

		logger.Info(ctx, "HTTP request completed",
			"method", method,
			"path", path,
			"status_code", status,
			"duration", duration,
			"client_ip", c.ClientIP(),
		)
	}
}

// Recovery panic 恢复中间件
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(c.Request.Context(), "HTTP handler panicked",
					"panic", r,
					"path", c.Request.URL.Path,
				)
				c.AbortWithStatusJSON(500, gin.H{"success": false, "error": "internal server error"})
			}
		}()
		c.Next()
	}
}
