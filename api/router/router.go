// api/router/router.go

package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/choiwab/patient-x/api/controller"
	"github.com/choiwab/patient-x/api/middleware"
)

func SetupRouter(
	controllers *controller.Controllers,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))
	router.Use(middleware.CallerID())

	api := router.Group("/api/v1")

	controllers.Policy.RegisterRoutes(api)
	controllers.Attribute.RegisterRoutes(api)
	controllers.Access.RegisterRoutes(api)
	controllers.Record.RegisterRoutes(api)

	return router
}
