package middleware

import (
	"net/http"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	// UserIDHeader is set by the auth gateway after verifying the caller
	UserIDHeader = "X-User-ID"
	// ContextKeyUserID is the gin context key for the caller id
	ContextKeyUserID = "user_id"
)

// UserID copies the gateway-provided caller id into the gin context.
// Requests without it are rejected.
func UserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorBody("UNAUTHORIZED", "X-User-ID header is required"))
			return
		}
		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID returns the caller id stored by UserID
func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
