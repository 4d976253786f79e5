package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/posko-pajak/api-go/services"
	"github.com/posko-pajak/api-go/utils"
)

type ReportController struct {
	Reports *services.ReportService
}

func NewReportController(reports *services.ReportService) *ReportController {
	RegisterValidators()
	return &ReportController{Reports: reports}
}

type listReportsQuery struct {
	Status   string `form:"status" binding:"omitempty,report_status"`
	Category string `form:"category"`
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PerPage  int    `form:"per_page" binding:"omitempty,min=1,max=100"`
	Mine     bool   `form:"mine"`
}

type createReportRequest struct {
	Title       string   `form:"title" json:"title" binding:"required,max=255"`
	Description string   `form:"description" json:"description" binding:"required"`
	Category    string   `form:"category" json:"category" binding:"required,max=100"`
	Location    string   `form:"location" json:"location" binding:"required,max=255"`
	Latitude    *float64 `form:"latitude" json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude   *float64 `form:"longitude" json:"longitude" binding:"omitempty,min=-180,max=180"`

	ReporterName       *string `form:"reporter_name" json:"reporter_name" binding:"omitempty,max=255"`
	ReporterEmail      *string `form:"reporter_email" json:"reporter_email" binding:"omitempty,email,max=255"`
	ReporterPhone      *string `form:"reporter_phone" json:"reporter_phone" binding:"omitempty,max=50"`
	ReporterWhatsApp   *string `form:"reporter_whatsapp" json:"reporter_whatsapp" binding:"omitempty,max=50"`
	ReporterOccupation *string `form:"reporter_occupation" json:"reporter_occupation" binding:"omitempty,max=255"`
}

type updateReportRequest struct {
	Title       *string  `form:"title" json:"title" binding:"omitempty,max=255"`
	Description *string  `form:"description" json:"description"`
	Category    *string  `form:"category" json:"category" binding:"omitempty,max=100"`
	Location    *string  `form:"location" json:"location" binding:"omitempty,max=255"`
	Latitude    *float64 `form:"latitude" json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude   *float64 `form:"longitude" json:"longitude" binding:"omitempty,min=-180,max=180"`
}

type updateStatusRequest struct {
	Status     string  `json:"status" binding:"required,report_status"`
	AdminNotes *string `json:"admin_notes"`
}

type bulkStatusRequest struct {
	ReportIDs  []string `json:"report_ids" binding:"required,min=1"`
	Status     string   `json:"status" binding:"required,report_status"`
	AdminNotes *string  `json:"admin_notes"`
}

type bulkDeleteRequest struct {
	ReportIDs []string `json:"report_ids" binding:"required,min=1"`
}

func (rc *ReportController) ListReports(c *gin.Context) {
	var q listReportsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindingError(c, err)
		return
	}

	page, err := rc.Reports.ListReports(c.Request.Context(), utils.GetActor(c), services.ReportFilters{
		Status:   q.Status,
		Category: q.Category,
		Search:   q.Search,
		Page:     q.Page,
		PerPage:  q.PerPage,
		Mine:     q.Mine,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (rc *ReportController) GetReport(c *gin.Context) {
	report, err := rc.Reports.GetReport(c.Request.Context(), utils.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: report})
}

func (rc *ReportController) CreateReport(c *gin.Context) {
	in, files, ok := rc.bindCreate(c)
	if !ok {
		return
	}
	defer files.Close()

	report, err := rc.Reports.CreateReport(c.Request.Context(), utils.GetActor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    report,
		Message: "Report created successfully",
	})
}

// CreatePublicReport accepts submissions from anonymous citizens.
func (rc *ReportController) CreatePublicReport(c *gin.Context) {
	in, files, ok := rc.bindCreate(c)
	if !ok {
		return
	}
	defer files.Close()

	report, err := rc.Reports.CreatePublicReport(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Message: "Report submitted successfully",
		Data: gin.H{
			"id":          report.ID,
			"title":       report.Title,
			"status":      report.Status,
			"image_url":   report.ImageURL,
			"attachments": report.Attachments,
			"created_at":  report.CreatedAt,
		},
	})
}

func (rc *ReportController) bindCreate(c *gin.Context) (services.CreateReportInput, openedFiles, bool) {
	limitBody(c)
	dropEmptyFormValues(c, nullableFormFields...)

	var req createReportRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindingError(c, err)
		return services.CreateReportInput{}, nil, false
	}

	image, attachments, files, err := readUploads(c, true)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return services.CreateReportInput{}, nil, false
	}

	return services.CreateReportInput{
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		Location:           req.Location,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		ReporterName:       req.ReporterName,
		ReporterEmail:      req.ReporterEmail,
		ReporterPhone:      req.ReporterPhone,
		ReporterWhatsApp:   req.ReporterWhatsApp,
		ReporterOccupation: req.ReporterOccupation,
		Image:              image,
		Attachments:        attachments,
	}, files, true
}

func (rc *ReportController) UpdateReport(c *gin.Context) {
	limitBody(c)
	dropEmptyFormValues(c, "latitude", "longitude")

	var req updateReportRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	image, _, files, err := readUploads(c, false)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}
	defer files.Close()

	report, err := rc.Reports.UpdateReport(c.Request.Context(), utils.GetActor(c), c.Param("id"), services.UpdateReportInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Image:       image,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    report,
		Message: "Report updated successfully",
	})
}

func (rc *ReportController) DeleteReport(c *gin.Context) {
	if err := rc.Reports.DeleteReport(c.Request.Context(), utils.GetActor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Report deleted successfully"})
}

func (rc *ReportController) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	report, err := rc.Reports.UpdateReportStatus(c.Request.Context(), utils.GetActor(c), c.Param("id"), req.Status, req.AdminNotes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    report,
		Message: "Status updated successfully",
	})
}

func (rc *ReportController) BulkUpdateStatus(c *gin.Context) {
	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := rc.Reports.BulkUpdateStatus(c.Request.Context(), utils.GetActor(c), req.ReportIDs, req.Status, req.AdminNotes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    result,
		Message: fmt.Sprintf("Updated %d %s", result.Succeeded, plural(result.Succeeded, "report")),
	})
}

func (rc *ReportController) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := rc.Reports.BulkDelete(c.Request.Context(), utils.GetActor(c), req.ReportIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    result,
		Message: fmt.Sprintf("Deleted %d %s", result.Succeeded, plural(result.Succeeded, "report")),
	})
}

func (rc *ReportController) DashboardStats(c *gin.Context) {
	stats, err := rc.Reports.GetDashboardStats(c.Request.Context(), utils.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: stats})
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return strings.TrimSuffix(word, "s") + "s"
}
