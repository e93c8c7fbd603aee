package middleware

import (
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader carries the id assigned by the gateway
	RequestIDHeader = "X-Request-ID"
	// CorrelationIDHeader is accepted from callers that do not set X-Request-ID
	CorrelationIDHeader = "X-Correlation-ID"
	// RequestIDKey is the gin context key for the id
	RequestIDKey = "request_id"

	requestLoggerKey   = "engine.request_logger"
	maxRequestIDLength = 128
)

// RequestID tags each request with an id and a logger carrying it. Incoming
// ids that are too long or contain non-printable bytes are replaced so they
// cannot forge log lines.
func RequestID(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Get()
	}
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = c.GetHeader(CorrelationIDHeader)
		}
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		c.Set(RequestIDKey, id)
		c.Set(requestLoggerKey, log.With(zap.String("request_id", id)))
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetRequestID returns the id set by RequestID, or ""
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// RequestLogger returns the request-scoped logger, or the global one when
// RequestID is not installed
func RequestLogger(c *gin.Context) *logger.Logger {
	if v, ok := c.Get(requestLoggerKey); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return logger.Get()
}
