package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/posko-pajak/api-go/controllers"
)

func SetupAuthRoutes(r *gin.RouterGroup, authController *controllers.AuthController, auth gin.HandlerFunc) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authController.Register)
		authGroup.POST("/login", authController.Login)
		authGroup.POST("/refresh", authController.RefreshToken)

		authGroup.GET("/me", auth, authController.Me)
		authGroup.POST("/logout", auth, authController.Logout)
	}
}
