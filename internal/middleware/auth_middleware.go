package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/services"
)

// Context keys set by the auth middlewares.
const (
	ContextUser      = "current_user"
	ContextFormID    = "form_id"
	ContextFormToken = "form_token"
)

type AuthMiddleware struct {
	tokens *services.JWTService
	auth   *services.AuthService
}

func NewAuthMiddleware(tokens *services.JWTService, auth *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		auth:   auth,
	}
}

// StaffRequired validates the staff JWT and loads the account. The account
// is re-read on every request so a deactivation or role change takes effect
// immediately, not at token expiry.
func (m *AuthMiddleware) StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token required",
				"code":  "MISSING_TOKEN",
			})
			return
		}

		claims, err := m.tokens.ValidateStaffToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
				"code":  "INVALID_TOKEN",
			})
			return
		}

		user, err := m.auth.GetUser(c.Request.Context(), claims.UserID)
		if err != nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Account not available",
				"code":  "ACCOUNT_UNAVAILABLE",
			})
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}

// RequireRole gates a route on the role hierarchy. Must run after
// StaffRequired.
func (m *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User context not found",
				"code":  "MISSING_USER_CONTEXT",
			})
			return
		}
		if !user.CanAccess(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient role",
				"code":  "FORBIDDEN",
			})
			return
		}
		c.Next()
	}
}

// FormSessionRequired validates the form-scoped JWT issued by the external
// gate. The session opens exactly one form; the claims are bound into the
// request context for the handlers.
func (m *AuthMiddleware) FormSessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Session token required",
				"code":  "MISSING_TOKEN",
			})
			return
		}

		claims, err := m.tokens.ValidateFormToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired session",
				"code":  "INVALID_SESSION",
			})
			return
		}

		c.Set(ContextFormID, claims.FormID)
		c.Set(ContextFormToken, claims.FormToken)
		c.Next()
	}
}

// CurrentUser returns the authenticated staff user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, exists := c.Get(ContextUser)
	if !exists {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
