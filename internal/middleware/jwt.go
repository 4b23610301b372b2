package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edumatrix/edumatrix-backend/internal/response"
	"github.com/edumatrix/edumatrix-backend/internal/service"
)

// ContextKeyClaims is the Gin context key for JWT claims.
const ContextKeyClaims = "claims"

// RequireStudentJWT admits only student tokens.
func RequireStudentJWT(authService *service.AuthService) gin.HandlerFunc {
	return requireToken(authService, response.ErrStudentAccessOnly, service.TokenTypeStudent)
}

// RequireAdminJWT admits only institution admin tokens.
func RequireAdminJWT(authService *service.AuthService) gin.HandlerFunc {
	return requireToken(authService, response.ErrAdminAccessOnly, service.TokenTypeAdmin)
}

// RequireReadOnlyJWT admits student and parent tokens. A parent token is
// scoped to one linked student; handlers resolve that student themselves.
func RequireReadOnlyJWT(authService *service.AuthService) gin.HandlerFunc {
	return requireToken(authService, response.ErrForbidden, service.TokenTypeStudent, service.TokenTypeParent)
}

// requireToken builds a middleware that validates the request token and
// checks its type against the allowed set.
func requireToken(authService *service.AuthService, denyCode response.ErrCode, allowed ...service.TokenType) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := claimsFromRequest(c, authService)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		ok := false
		for _, t := range allowed {
			if claims.TokenType == t {
				ok = true
				break
			}
		}
		if !ok {
			response.AbortFail(c, http.StatusForbidden, denyCode)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// RequireStudentWSAuth validates a student token from ?token=. Browsers
// cannot attach headers to a WebSocket upgrade request.
func RequireStudentWSAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := authService.ValidateToken(tokenStr)
		switch {
		case err != nil:
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		case claims.TokenType != service.TokenTypeStudent:
			response.AbortFail(c, http.StatusForbidden, response.ErrStudentAccessOnly)
		default:
			c.Set(ContextKeyClaims, claims)
			c.Next()
		}
	}
}

// GetClaims returns the validated claims set by one of the middlewares
// above, or nil when the route is unauthenticated.
func GetClaims(c *gin.Context) *service.Claims {
	if v, ok := c.Get(ContextKeyClaims); ok {
		if claims, ok := v.(*service.Claims); ok {
			return claims
		}
	}
	return nil
}

// claimsFromRequest pulls the token from the Authorization header, falling
// back to ?token= for EventSource clients, and validates it.
func claimsFromRequest(c *gin.Context, authService *service.AuthService) (*service.Claims, error) {
	var tokenStr string
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			tokenStr = parts[1]
		}
	}
	if tokenStr == "" {
		tokenStr = c.Query("token")
	}
	if tokenStr == "" {
		return nil, fmt.Errorf("missing bearer token")
	}
	return authService.ValidateToken(tokenStr)
}
