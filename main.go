package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/examsaathi/examsaathi_backend/config"
	"github.com/examsaathi/examsaathi_backend/controllers"
	"github.com/examsaathi/examsaathi_backend/middleware"
	"github.com/examsaathi/examsaathi_backend/repositories"
	"github.com/examsaathi/examsaathi_backend/routes"
	"github.com/examsaathi/examsaathi_backend/services"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis (attempt limiting degrades gracefully without it)
	redisClient := config.ConnectRedis()

	// Connect to database. A failure is not fatal: liveness endpoints keep
	// serving and the auth endpoints answer 500 until the store is back.
	client, err := config.ConnectDB()
	if err != nil {
		log.Printf("Warning: MongoDB not available: %v", err)
	}

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())

	// Wire the OTP flow; the store stays nil when Mongo is unavailable
	var store services.AuthStore
	if client != nil {
		store = repositories.NewAuthRepository(client)
	}
	otpService := services.NewOTPService(store)

	authController := controllers.NewAuthController(otpService, redisClient)
	systemController := controllers.NewSystemController(client)

	routes.SetupRoutes(e, authController, systemController)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
