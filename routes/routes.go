package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/posko-pajak/api-go/controllers"
	"github.com/posko-pajak/api-go/middleware"
	"github.com/posko-pajak/api-go/services"
	"github.com/posko-pajak/api-go/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type Dependencies struct {
	DB      *gorm.DB
	Reports *services.ReportService
	Tokens  *utils.TokenIssuer

	// StorageDir is served at /storage when blobs live on local disk.
	StorageDir string
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	// Initialize controllers
	authController := controllers.NewAuthController(deps.DB, deps.Tokens)
	reportController := controllers.NewReportController(deps.Reports)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if deps.StorageDir != "" {
		r.Static("/storage", deps.StorageDir)
	}

	// Public routes
	public := r.Group("/api")
	{
		public.GET("/health", health)
		public.POST("/public/reports", reportController.CreatePublicReport)
	}

	SetupAuthRoutes(public, authController, middleware.AuthMiddleware(deps.Tokens))

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(deps.Tokens))
	{
		SetupReportRoutes(protected, reportController)
	}
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "API is running",
		"timestamp": time.Now().UTC(),
	})
}
