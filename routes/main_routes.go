package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/examsaathi/examsaathi_backend/controllers"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, authController *controllers.AuthController, systemController *controllers.SystemController) {
	e.Match([]string{"GET", "HEAD"}, "/", systemController.Root)
	e.GET("/api/hello", systemController.Hello)
	e.Match([]string{"GET", "HEAD"}, "/health", systemController.Health)
	e.GET("/test", systemController.TestDatabase)

	RegisterAuthRoutes(e, authController)
}
