package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/posko-pajak/api-go/controllers"
	"github.com/posko-pajak/api-go/middleware"
	"github.com/posko-pajak/api-go/models"
)

func SetupReportRoutes(protected *gin.RouterGroup, reportController *controllers.ReportController) {
	reports := protected.Group("/reports")
	{
		reports.GET("", reportController.ListReports)
		reports.POST("", reportController.CreateReport)
		reports.GET("/:id", reportController.GetReport)
		reports.PUT("/:id", reportController.UpdateReport)
		reports.DELETE("/:id", reportController.DeleteReport)

		reports.PATCH("/:id/status",
			middleware.RequireRole(models.RoleAdmin, models.RoleModerator),
			reportController.UpdateStatus)

		// Bulk operations (admin only)
		bulk := reports.Group("/bulk", middleware.RequireRole(models.RoleAdmin))
		{
			bulk.POST("/status", reportController.BulkUpdateStatus)
			bulk.POST("/delete", reportController.BulkDelete)
		}
	}

	protected.GET("/dashboard/stats", reportController.DashboardStats)
}
