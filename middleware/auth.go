package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/posko-pajak/api-go/services"
	"github.com/posko-pajak/api-go/utils"
)

func AuthMiddleware(issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "success": false})
			c.Abort()
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format", "success": false})
			c.Abort()
			return
		}

		claims, err := issuer.Parse(bearerToken[1], utils.AccessTokenType)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "success": false})
			c.Abort()
			return
		}

		utils.SetActor(c, services.NewActor(claims.UserID, claims.Roles...))

		c.Next()
	}
}

// RequireRole lets the request through when the actor holds any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := utils.GetActor(c)
		if actor.ID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated", "success": false})
			c.Abort()
			return
		}
		if !actor.HasAnyRole(roles...) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient role", "success": false})
			c.Abort()
			return
		}
		c.Next()
	}
}
