// api/middleware/caller_id.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	logger "github.com/choiwab/patient-x/api/logging"
)

// CallerIDHeader carries the authenticated caller identity. Authentication
// itself happens at the gateway in front of this service; requests arriving
// without the header are rejected.
const CallerIDHeader = "X-Caller-Id"

// CallerID extracts the caller identity header and places it in the request
// context for the controllers.
func CallerID() gin.HandlerFunc {
	return func(c *gin.Context) {
		callerID := c.GetHeader(CallerIDHeader)
		if callerID == "" {
			logger.Warn("Request missing caller identity header")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set("callerID", callerID)
		c.Next()
	}
}
