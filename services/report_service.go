package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/posko-pajak/api-go/metrics"
	"github.com/posko-pajak/api-go/models"
)

const (
	imageDir      = "reports"
	attachmentDir = "reports/attachments"

	recentReportsLimit = 5
)

type Options struct {
	DefaultPerPage   int
	MaxPerPage       int
	MaxAttachments   int
	BulkConcurrency  int
	PublicReporterID string // owner of reports submitted without authentication
}

func (o Options) withDefaults() Options {
	if o.DefaultPerPage <= 0 {
		o.DefaultPerPage = 10
	}
	if o.MaxPerPage <= 0 {
		o.MaxPerPage = 100
	}
	if o.MaxAttachments <= 0 {
		o.MaxAttachments = 5
	}
	if o.BulkConcurrency <= 0 {
		o.BulkConcurrency = 4
	}
	return o
}

type ReportFilters struct {
	Status   string
	Category string
	Search   string
	Page     int
	PerPage  int
	Mine     bool // admins only: narrow the listing to the actor's own reports
}

type CreateReportInput struct {
	Title       string
	Description string
	Category    string
	Location    string
	Latitude    *float64
	Longitude   *float64

	ReporterName       *string
	ReporterEmail      *string
	ReporterPhone      *string
	ReporterWhatsApp   *string
	ReporterOccupation *string

	Image       *Upload
	Attachments []Upload
}

// UpdateReportInput carries owner-editable fields only. Status and admin notes
// go through UpdateReportStatus.
type UpdateReportInput struct {
	Title       *string
	Description *string
	Category    *string
	Location    *string
	Latitude    *float64
	Longitude   *float64
	Image       *Upload
}

type DashboardCounts struct {
	StatusCounts
	// MyReports duplicates Total for non-admin callers. Kept for older clients.
	MyReports *int64 `json:"my_reports,omitempty"`
}

type DashboardStats struct {
	Stats         DashboardCounts `json:"stats"`
	RecentReports []models.Report `json:"recent_reports"`
}

type ReportService struct {
	reports     ReportStore
	attachments AttachmentStore
	blobs       BlobStore
	bulk        *BulkRunner
	opts        Options
}

func NewReportService(reports ReportStore, attachments AttachmentStore, blobs BlobStore, opts Options) *ReportService {
	opts = opts.withDefaults()
	return &ReportService{
		reports:     reports,
		attachments: attachments,
		blobs:       blobs,
		bulk:        NewBulkRunner(opts.BulkConcurrency),
		opts:        opts,
	}
}

func (s *ReportService) ListReports(ctx context.Context, actor Actor, filters ReportFilters) (Page[models.Report], error) {
	if actor.ID == "" {
		return Page[models.Report]{}, fmt.Errorf("%w: unauthenticated actor", ErrForbidden)
	}
	if filters.Status != "" && !models.IsValidStatus(filters.Status) {
		return Page[models.Report]{}, validationError("invalid status %q", filters.Status)
	}

	perPage := filters.PerPage
	if perPage <= 0 {
		perPage = s.opts.DefaultPerPage
	}
	if perPage > s.opts.MaxPerPage {
		perPage = s.opts.MaxPerPage
	}
	page := filters.Page
	if page < 1 {
		page = 1
	}

	result, err := s.reports.List(ctx, ReportQuery{
		OwnerID:  VisibilityScope(actor, filters.Mine),
		Status:   filters.Status,
		Category: strings.TrimSpace(filters.Category),
		Search:   strings.TrimSpace(filters.Search),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return Page[models.Report]{}, storageError("list reports", err)
	}
	for i := range result.Data {
		s.decorate(&result.Data[i])
	}
	return result, nil
}

// GetReport is not owner scoped: any authenticated actor may read any live report.
func (s *ReportService) GetReport(ctx context.Context, actor Actor, id string) (*models.Report, error) {
	if actor.ID == "" {
		return nil, fmt.Errorf("%w: unauthenticated actor", ErrForbidden)
	}
	return s.load(ctx, id)
}

func (s *ReportService) CreateReport(ctx context.Context, actor Actor, in CreateReportInput) (*models.Report, error) {
	if actor.ID == "" {
		return nil, fmt.Errorf("%w: unauthenticated actor", ErrForbidden)
	}
	return s.create(ctx, actor.ID, in, "authenticated")
}

// CreatePublicReport files an anonymous report under the configured system reporter.
func (s *ReportService) CreatePublicReport(ctx context.Context, in CreateReportInput) (*models.Report, error) {
	if s.opts.PublicReporterID == "" {
		return nil, fmt.Errorf("%w: public reporter is not configured", ErrStorage)
	}
	return s.create(ctx, s.opts.PublicReporterID, in, "public")
}

func (s *ReportService) create(ctx context.Context, ownerID string, in CreateReportInput, channel string) (*models.Report, error) {
	if err := s.validateCreate(in); err != nil {
		return nil, err
	}

	var stored []string
	discard := func() {
		for _, p := range stored {
			s.deleteBlob(ctx, p)
		}
	}

	report := &models.Report{
		UserID:             ownerID,
		ReporterName:       in.ReporterName,
		ReporterEmail:      in.ReporterEmail,
		ReporterPhone:      in.ReporterPhone,
		ReporterWhatsApp:   in.ReporterWhatsApp,
		ReporterOccupation: in.ReporterOccupation,
		Title:              strings.TrimSpace(in.Title),
		Description:        strings.TrimSpace(in.Description),
		Category:           strings.TrimSpace(in.Category),
		Location:           strings.TrimSpace(in.Location),
		Latitude:           in.Latitude,
		Longitude:          in.Longitude,
		Status:             models.StatusPending,
	}

	// Blobs go first so a failed insert leaves at worst an orphaned file,
	// never a row pointing at nothing.
	if in.Image != nil {
		path, err := s.blobs.Put(ctx, imageDir, *in.Image)
		if err != nil {
			return nil, storageError("store image", err)
		}
		stored = append(stored, path)
		report.ImagePath = &path
	}

	attachments := make([]models.ReportAttachment, 0, len(in.Attachments))
	for _, upload := range in.Attachments {
		path, err := s.blobs.Put(ctx, attachmentDir, upload)
		if err != nil {
			discard()
			return nil, storageError(fmt.Sprintf("store attachment %q", upload.Name), err)
		}
		stored = append(stored, path)
		attachments = append(attachments, models.ReportAttachment{
			FilePath: path,
			FileName: upload.Name,
			FileType: upload.ContentType,
			FileSize: upload.Size,
		})
	}

	if err := s.reports.Create(ctx, report); err != nil {
		discard()
		return nil, storageError("create report", err)
	}

	for i := range attachments {
		attachments[i].ReportID = report.ID
		if err := s.attachments.Create(ctx, &attachments[i]); err != nil {
			if cerr := s.attachments.DeleteForReport(ctx, report.ID); cerr != nil {
				log.WithError(cerr).WithField("report_id", report.ID).Warn("failed to roll back attachments")
			}
			if cerr := s.reports.SoftDelete(ctx, report.ID); cerr != nil {
				log.WithError(cerr).WithField("report_id", report.ID).Warn("failed to roll back report")
			}
			discard()
			return nil, storageError("create attachment", err)
		}
	}

	metrics.ReportsCreatedTotal.WithLabelValues(channel).Inc()
	log.WithFields(log.Fields{
		"report_id":   report.ID,
		"owner":       ownerID,
		"channel":     channel,
		"attachments": len(attachments),
	}).Info("report created")

	return s.load(ctx, report.ID)
}

func (s *ReportService) UpdateReport(ctx context.Context, actor Actor, id string, in UpdateReportInput) (*models.Report, error) {
	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, storageError("get report", err)
	}
	if !CanMutate(actor, report) {
		return nil, fmt.Errorf("%w: unauthorized to update this report", ErrForbidden)
	}
	if err := validateUpdate(in); err != nil {
		return nil, err
	}

	changes := ReportChanges{
		Title:       trimmed(in.Title),
		Description: trimmed(in.Description),
		Category:    trimmed(in.Category),
		Location:    trimmed(in.Location),
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	}

	if in.Image != nil {
		if report.ImagePath != nil {
			s.deleteBlob(ctx, *report.ImagePath)
		}
		path, err := s.blobs.Put(ctx, imageDir, *in.Image)
		if err != nil {
			// the old blob is gone; drop the reference rather than leave it dangling
			if report.ImagePath != nil {
				if _, cerr := s.reports.Update(ctx, id, ReportChanges{ClearImage: true}); cerr != nil {
					log.WithError(cerr).WithField("report_id", id).Warn("failed to clear image path")
				}
			}
			return nil, storageError("store image", err)
		}
		changes.ImagePath = &path
	}

	if _, err := s.reports.Update(ctx, id, changes); err != nil {
		return nil, storageError("update report", err)
	}

	log.WithFields(log.Fields{"report_id": id, "actor": actor.ID}).Info("report updated")
	return s.load(ctx, id)
}

func (s *ReportService) DeleteReport(ctx context.Context, actor Actor, id string) error {
	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return storageError("get report", err)
	}
	if !CanMutate(actor, report) {
		return fmt.Errorf("%w: unauthorized to delete this report", ErrForbidden)
	}

	if report.ImagePath != nil {
		s.deleteBlob(ctx, *report.ImagePath)
	}
	if err := s.purgeAttachments(ctx, id); err != nil {
		return err
	}
	if err := s.reports.SoftDelete(ctx, id); err != nil {
		return storageError("delete report", err)
	}

	metrics.ReportsDeletedTotal.Inc()
	log.WithFields(log.Fields{"report_id": id, "actor": actor.ID}).Info("report deleted")
	return nil
}

// UpdateReportStatus sets the status and records the reviewer. A nil adminNotes
// keeps the stored note.
func (s *ReportService) UpdateReportStatus(ctx context.Context, actor Actor, id, status string, adminNotes *string) (*models.Report, error) {
	if !CanChangeStatus(actor) {
		return nil, fmt.Errorf("%w: admin or moderator role required", ErrForbidden)
	}
	if !models.IsValidStatus(status) {
		return nil, validationError("invalid status %q", status)
	}
	if err := s.applyStatus(ctx, actor, id, status, adminNotes); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *ReportService) applyStatus(ctx context.Context, actor Actor, id, status string, adminNotes *string) error {
	if _, err := s.reports.Get(ctx, id); err != nil {
		return storageError("get report", err)
	}
	updatedBy := actor.ID
	if _, err := s.reports.Update(ctx, id, ReportChanges{
		Status:     &status,
		AdminNotes: adminNotes,
		UpdatedBy:  &updatedBy,
	}); err != nil {
		return storageError("update status", err)
	}

	metrics.StatusChangesTotal.WithLabelValues(status).Inc()
	log.WithFields(log.Fields{"report_id": id, "actor": actor.ID, "status": status}).Info("report status changed")
	return nil
}

func (s *ReportService) GetDashboardStats(ctx context.Context, actor Actor) (*DashboardStats, error) {
	owner := ""
	if !CanViewGlobalStats(actor) {
		if actor.ID == "" {
			return nil, fmt.Errorf("%w: unauthenticated actor", ErrForbidden)
		}
		owner = actor.ID
	}

	counts, err := s.reports.CountsByStatus(ctx, owner)
	if err != nil {
		return nil, storageError("count reports", err)
	}
	stats := DashboardCounts{StatusCounts: counts}
	if owner != "" {
		mine := counts.Total
		stats.MyReports = &mine
	}

	recent, err := s.reports.Recent(ctx, recentReportsLimit)
	if err != nil {
		return nil, storageError("recent reports", err)
	}
	for i := range recent {
		s.decorate(&recent[i])
	}

	return &DashboardStats{Stats: stats, RecentReports: recent}, nil
}

func (s *ReportService) load(ctx context.Context, id string) (*models.Report, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, storageError("get report", err)
	}
	s.decorate(report)
	return report, nil
}

// purgeAttachments removes every attachment blob (best effort) and then the rows.
func (s *ReportService) purgeAttachments(ctx context.Context, reportID string) error {
	attachments, err := s.attachments.ListForReport(ctx, reportID)
	if err != nil {
		return storageError("list attachments", err)
	}
	for _, a := range attachments {
		s.deleteBlob(ctx, a.FilePath)
	}
	if err := s.attachments.DeleteForReport(ctx, reportID); err != nil {
		return storageError("delete attachments", err)
	}
	return nil
}

func (s *ReportService) deleteBlob(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.blobs.Delete(ctx, path); err != nil {
		metrics.BlobCleanupFailuresTotal.Inc()
		log.WithError(err).WithField("path", path).Warn("blob cleanup failed")
	}
}

func (s *ReportService) decorate(r *models.Report) {
	if r.ImagePath != nil {
		r.ImageURL = s.blobs.URLFor(*r.ImagePath)
	}
	for i := range r.Attachments {
		r.Attachments[i].FileURL = s.blobs.URLFor(r.Attachments[i].FilePath)
	}
}

func (s *ReportService) validateCreate(in CreateReportInput) error {
	required := []struct {
		name  string
		value string
	}{
		{"title", in.Title},
		{"description", in.Description},
		{"category", in.Category},
		{"location", in.Location},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return validationError("%s is required", f.name)
		}
	}
	if err := validateCoordinates(in.Latitude, in.Longitude); err != nil {
		return err
	}
	if len(in.Attachments) > s.opts.MaxAttachments {
		return validationError("at most %d attachments are allowed", s.opts.MaxAttachments)
	}
	if in.Image != nil && in.Image.Body == nil {
		return validationError("image has no content")
	}
	for _, a := range in.Attachments {
		if a.Body == nil {
			return validationError("attachment %q has no content", a.Name)
		}
	}
	return nil
}

func validateUpdate(in UpdateReportInput) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"title", in.Title},
		{"description", in.Description},
		{"category", in.Category},
		{"location", in.Location},
	}
	for _, f := range fields {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return validationError("%s cannot be empty", f.name)
		}
	}
	if in.Image != nil && in.Image.Body == nil {
		return validationError("image has no content")
	}
	return validateCoordinates(in.Latitude, in.Longitude)
}

func validateCoordinates(lat, lon *float64) error {
	if lat != nil && (*lat < -90 || *lat > 90) {
		return validationError("latitude must be between -90 and 90")
	}
	if lon != nil && (*lon < -180 || *lon > 180) {
		return validationError("longitude must be between -180 and 180")
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
