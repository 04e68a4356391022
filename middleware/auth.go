package middleware

import (
	"net/http"
	"os"
	"strings"

	"app-review-api/config"
	"app-review-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates JWT token
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get token from header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		// Check Bearer prefix
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		// Parse token
		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		// Re-read the user so capability flags are live, not whatever the
		// token was minted with.
		var user models.User
		if err := config.DB.Where("user_id = ? AND is_active = ? AND delete_at IS NULL", claims.UserID, true).
			First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found or inactive"})
			c.Abort()
			return
		}

		c.Set("userID", user.UserID)
		c.Set("username", user.Username)
		c.Set("isSupervisor", user.IsSupervisor)
		c.Set("isSuperuser", user.IsSuperuser)

		c.Next()
	}
}

// RequireSupervisor allows only supervisor (or superuser) actors through.
func RequireSupervisor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("isSupervisor") && !c.GetBool("isSuperuser") {
			c.JSON(http.StatusForbidden, gin.H{"error": "Supervisor privileges required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin allows only superuser actors through.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("isSuperuser") {
			c.JSON(http.StatusForbidden, gin.H{"error": "Superuser privileges required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
