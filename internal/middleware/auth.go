package middleware

import (
	"net/http"
	"strings"
	"sync"

	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the JWT "role" claim.
const (
	RoleAdmin    = "admin"
	RoleQS       = "qs"
	RoleSeniorQS = "senior_qs"
	RoleSupplier = "supplier"
)

// Context keys set by RequireRole.
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

const devSecret = "default_super_secret_key"

var (
	secretMu  sync.RWMutex
	jwtSecret []byte
)

// SetJWTSecret installs the signing secret loaded from configuration.
func SetJWTSecret(secret string) {
	secretMu.Lock()
	defer secretMu.Unlock()
	jwtSecret = []byte(secret)
}

// GetJWTSecret returns the configured secret, or a development fallback when none was set.
func GetJWTSecret() []byte {
	secretMu.RLock()
	defer secretMu.RUnlock()
	if len(jwtSecret) == 0 {
		return []byte(devSecret)
	}
	return jwtSecret
}

// RequireRole Middleware validates the JWT token and checks if the user's role exists in the allowedRoles list
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try cookie first, fallback to Authorization header
		tokenString, cookieErr := c.Cookie("access_token")
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			tokenString = parts[1]
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return GetJWTSecret(), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		userRole, ok := claims["role"].(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		}

		roleAllowed := false
		for _, role := range allowedRoles {
			if userRole == role {
				roleAllowed = true
				break
			}
		}
		if !roleAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		subject, _ := claims["sub"].(string)
		c.Set(ContextUserID, subject)
		c.Set(ContextUserRole, userRole)

		c.Next()
	}
}

// Actor returns the authenticated user id and role set by RequireRole.
func Actor(c *gin.Context) (userID, role string) {
	return c.GetString(ContextUserID), c.GetString(ContextUserRole)
}

// SetTokenCookie stores the access token as an HttpOnly cookie.
// Release mode serves the dashboard cross-origin, so the cookie must be SameSite=None and Secure.
func SetTokenCookie(c *gin.Context, token string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if gin.Mode() == gin.ReleaseMode {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", token, maxAge, "/", "", secure, true)
}

// ClearTokenCookie removes the access token cookie.
func ClearTokenCookie(c *gin.Context) {
	SetTokenCookie(c, "", -1)
}
