package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/examsaathi/examsaathi_backend/models"
	"github.com/examsaathi/examsaathi_backend/utils"
)

// JWTMiddleware guards routes that require a phone-verification token. The
// verified phone number is stored on the context under "phone".
func JWTMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Missing or malformed token",
				})
			}

			claims, err := utils.ParseVerificationToken(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Invalid or expired token",
				})
			}

			c.Set("phone", claims.Phone)
			return next(c)
		}
	}
}
