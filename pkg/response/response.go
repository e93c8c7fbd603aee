// Package response writes the JSON envelope shared by every engine endpoint:
// {"success": bool, "data": ..., "error": {"code", "message", "details"}}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope for both success and failure
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorData  `json:"error,omitempty"`
}

// ErrorData carries a stable machine code plus a human message
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// ErrorBody builds an error envelope, for middlewares that abort with AbortWithStatusJSON
func ErrorBody(code, message string) Response {
	return Response{
		Error: &ErrorData{Code: code, Message: message},
	}
}

func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorBody(code, message))
}

func ErrorWithDetails(c *gin.Context, status int, code, message, details string) {
	body := ErrorBody(code, message)
	body.Error.Details = details
	c.JSON(status, body)
}

// InternalError hides the cause; callers log it first
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal Server Error")
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}
