package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/examsaathi/examsaathi_backend/config"
)

// SystemController serves liveness and diagnostic endpoints. It tolerates a
// nil Mongo client so the process stays useful without store configuration.
type SystemController struct {
	DB     *mongo.Client
	logger *log.Logger
}

func NewSystemController(db *mongo.Client) *SystemController {
	return &SystemController{
		DB:     db,
		logger: log.New(os.Stdout, "[SYSTEM] ", log.LstdFlags),
	}
}

// Root handles GET /
func (sc *SystemController) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Examsaathi Backend is running",
		"version": "1.0",
	})
}

// Hello handles GET /api/hello
func (sc *SystemController) Hello(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Hello from the backend API!",
	})
}

// Health handles GET /health
func (sc *SystemController) Health(c echo.Context) error {
	database := "not connected"
	if sc.DB != nil {
		database = "connected"
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": database,
	})
}

// TestDatabase handles GET /test. It reports store reachability and up to 10
// collection names. Best effort: every failure is stringified into the
// report instead of failing the request.
func (sc *SystemController) TestDatabase(c echo.Context) error {
	report := echo.Map{
		"backend":           "running",
		"database":          "not available",
		"database_url":      envFlag(config.DatabaseURL()),
		"database_name":     envFlag(firstNonEmpty(os.Getenv("DATABASE_NAME"), os.Getenv("DB_NAME"))),
		"connection_status": "not connected",
		"collections":       []string{},
	}

	if sc.DB == nil {
		return c.JSON(http.StatusOK, report)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := sc.DB.Ping(ctx, nil); err != nil {
		sc.logger.Printf("diagnostic ping failed: %v", err)
		report["database"] = "error: " + truncate(err.Error(), 50)
		return c.JSON(http.StatusOK, report)
	}

	report["database"] = "connected"
	report["connection_status"] = "connected"

	names, err := sc.DB.Database(config.DatabaseName()).ListCollectionNames(ctx, bson.M{})
	if err != nil {
		sc.logger.Printf("diagnostic collection listing failed: %v", err)
		report["database"] = "connected but error: " + truncate(err.Error(), 50)
		return c.JSON(http.StatusOK, report)
	}

	if len(names) > 10 {
		names = names[:10]
	}
	report["collections"] = names

	return c.JSON(http.StatusOK, report)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func envFlag(value string) string {
	if value == "" {
		return "not set"
	}
	return "set"
}

// truncate shortens s to at most n runes, never splitting a multi-byte
// character (store error strings can carry non-ASCII text).
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
