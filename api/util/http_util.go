// api/util/http_util.go
package util

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	logger "github.com/choiwab/patient-x/api/logging"
)

func RespondWithError(c *gin.Context, code int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.JSON(code, gin.H{"error": message})
}

// GetCallerIDFromContext returns the caller identity placed in the request
// context by the caller-id middleware.
func GetCallerIDFromContext(c *gin.Context) (string, error) {
	callerID, exists := c.Get("callerID")
	if !exists {
		return "", echo_errors.ErrUnauthorized
	}
	id, ok := callerID.(string)
	if !ok || id == "" {
		return "", echo_errors.ErrUnauthorized
	}
	return id, nil
}
