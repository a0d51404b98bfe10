package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/examsaathi/examsaathi_backend/controllers"
	"github.com/examsaathi/examsaathi_backend/middleware"
)

// RegisterAuthRoutes sets up the OTP verification endpoints
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	// Public verification flow
	e.POST("/api/auth/start", authController.StartVerification)
	e.POST("/api/auth/verify", authController.VerifyCode)

	// Requires the token issued by a successful verify
	protected := e.Group("/api/auth")
	protected.Use(middleware.JWTMiddleware())
	protected.GET("/status", authController.Status)
}
