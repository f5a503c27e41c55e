package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// apiError is the JSON body every handler error response carries.
type apiError struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// JSONError writes a structured error response and logs it at warn level.
func JSONError(c *gin.Context, status int, message, details string) {
	GetLogger().Warn(message,
		zap.Int("status", status),
		zap.String("details", details))
	c.JSON(status, apiError{Message: message, Details: details})
}

// ErrorHandler turns an unrecovered panic into a 500 response instead of
// letting it kill the connection.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				GetLogger().Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.FullPath()))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					apiError{Message: "internal server error"})
			}
		}()
		c.Next()
	}
}
