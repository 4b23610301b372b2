package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edumatrix/edumatrix-backend/internal/response"
	"github.com/edumatrix/edumatrix-backend/internal/service"
)

// CheckSingleDeviceSession rejects a student token whose JTI no longer
// matches the active session in Redis, which happens after the institution
// resets the session or the student logs in on another device. Non-student
// tokens pass through untouched.
func CheckSingleDeviceSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)

		switch {
		case claims == nil:
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)

		case claims.TokenType != service.TokenTypeStudent:
			c.Next()

		case authService.ValidateStudentSession(c.Request.Context(), claims.StudentID, claims.ID) != nil:
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)

		default:
			c.Next()
		}
	}
}
