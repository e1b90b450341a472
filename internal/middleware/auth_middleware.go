package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thebinarypenguin/scribblez-go/internal/auth"
	"github.com/thebinarypenguin/scribblez-go/internal/services"
)

// AuthMiddleware validates the bearer token and resolves the caller's role
// through the upstream user service.
func AuthMiddleware(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.Replace(authHeader, "Bearer ", "", 1)
		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			log.Printf("Token validation failed: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		userResponse, err := userService.GetUserByID(claims.UserID.String())
		if err != nil {
			log.Printf("Failed to fetch user data: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Fail to fetch user data"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", userResponse.User.Username)
		c.Set("role", userResponse.User.Role)
		c.Next()
	}
}
