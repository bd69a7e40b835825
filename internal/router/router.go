package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-spot-exchange/internal/handler"
	"github.com/iliyamo/parking-spot-exchange/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check, used by load balancers and
// monitoring to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI wires the authenticated surface under /v1.  Every route
// runs JWTAuth; mutating routes additionally run the rate limiter so a
// single client cannot flood the map with pins or confirm attempts.
func RegisterAPI(
	e *echo.Echo,
	spots *handler.SpotHandler,
	nearby *handler.NearbyHandler,
	confirms *handler.ConfirmHandler,
	points *handler.PointsHandler,
	jwtSecret string,
	limiter echo.MiddlewareFunc,
) {
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))

	// Discovery. Reads stay unthrottled; the stream holds a connection
	// open so throttling it by request count would be meaningless.
	v1.GET("/spots/nearby", nearby.List)
	v1.GET("/spots/nearby/stream", nearby.Stream)
	v1.GET("/spots/:id", spots.Get)
	v1.GET("/points/me", points.Me)
	v1.GET("/points/me/claims", points.Claims)

	// Mutations behind the token bucket.
	v1.POST("/spots", spots.Create, limiter)
	v1.PATCH("/spots/:id", spots.Update, limiter)
	v1.DELETE("/spots/:id", spots.Delete, limiter)
	v1.POST("/spots/:id/confirm", confirms.Confirm, limiter)
}
