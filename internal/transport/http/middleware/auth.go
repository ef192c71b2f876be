package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/security"
)

type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope{
		Status:  "error",
		Message: message,
	})
}

// RequireAuth validates the Authorization bearer header and stores the
// authenticated user ID on the context. Verification is purely
// cryptographic; handlers that need a live account re-resolve it.
func RequireAuth(tokens *security.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthorized(c, "invalid authorization format: expected 'Bearer <token>'")
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			unauthorized(c, "missing access token")
			return
		}

		claims, err := tokens.Verify(token, security.TokenKindAccess)
		if err != nil {
			unauthorized(c, "invalid or expired access token")
			return
		}

		c.Set(UserIDKey, claims.UserID)

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.UserID = claims.UserID
		}

		c.Next()
	}
}

// GetAuthenticatedUserID retrieves the user ID set by RequireAuth.
func GetAuthenticatedUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}

	if id, ok := userID.(string); ok && id != "" {
		return id, true
	}

	return "", false
}
