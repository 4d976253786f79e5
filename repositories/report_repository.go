package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/posko-pajak/api-go/models"
	"github.com/posko-pajak/api-go/services"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReportRepository struct {
	DB *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{DB: db}
}

var _ services.ReportStore = (*ReportRepository)(nil)

// canonicalID normalises a report id. Ids that are not UUIDs can never match
// a row, and postgres rejects them outright, so callers treat them as missing.
func canonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func (rr *ReportRepository) List(ctx context.Context, q services.ReportQuery) (services.Page[models.Report], error) {
	query := rr.DB.WithContext(ctx).Model(&models.Report{})

	if q.OwnerID != "" {
		query = query.Where("user_id = ?", q.OwnerID)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?)", like, like, like)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return services.Page[models.Report]{}, fmt.Errorf("count reports: %w", err)
	}

	reports := []models.Report{}
	result := query.
		Preload("User").
		Preload("Attachments").
		Order("created_at DESC").
		Offset((q.Page - 1) * q.PerPage).
		Limit(q.PerPage).
		Find(&reports)
	if result.Error != nil {
		return services.Page[models.Report]{}, fmt.Errorf("fetch reports: %w", result.Error)
	}

	lastPage := int((total + int64(q.PerPage) - 1) / int64(q.PerPage))
	if lastPage < 1 {
		lastPage = 1
	}

	return services.Page[models.Report]{
		Data:        reports,
		Total:       total,
		PerPage:     q.PerPage,
		CurrentPage: q.Page,
		LastPage:    lastPage,
	}, nil
}

func (rr *ReportRepository) Get(ctx context.Context, id string) (*models.Report, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, services.ErrNotFound
	}

	var report models.Report
	err := rr.DB.WithContext(ctx).
		Preload("User").
		Preload("UpdatedByUser").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find report %s: %w", id, err)
	}
	return &report, nil
}

func (rr *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if err := rr.DB.WithContext(ctx).Omit(clause.Associations).Create(report).Error; err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (rr *ReportRepository) Update(ctx context.Context, id string, ch services.ReportChanges) (*models.Report, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, services.ErrNotFound
	}

	updates := make(map[string]interface{})

	if ch.Title != nil {
		updates["title"] = *ch.Title
	}
	if ch.Description != nil {
		updates["description"] = *ch.Description
	}
	if ch.Category != nil {
		updates["category"] = *ch.Category
	}
	if ch.Location != nil {
		updates["location"] = *ch.Location
	}
	if ch.Latitude != nil {
		updates["latitude"] = *ch.Latitude
	}
	if ch.Longitude != nil {
		updates["longitude"] = *ch.Longitude
	}
	if ch.ImagePath != nil {
		updates["image_path"] = *ch.ImagePath
	} else if ch.ClearImage {
		updates["image_path"] = nil
	}
	if ch.Status != nil {
		updates["status"] = *ch.Status
	}
	if ch.AdminNotes != nil {
		updates["admin_notes"] = *ch.AdminNotes
	}
	if ch.UpdatedBy != nil {
		updates["updated_by"] = *ch.UpdatedBy
	}

	if len(updates) > 0 {
		result := rr.DB.WithContext(ctx).Model(&models.Report{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("update report %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, services.ErrNotFound
		}
	}

	return rr.Get(ctx, id)
}

func (rr *ReportRepository) SoftDelete(ctx context.Context, id string) error {
	id, ok := canonicalID(id)
	if !ok {
		return services.ErrNotFound
	}
	result := rr.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Report{})
	if result.Error != nil {
		return fmt.Errorf("delete report %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (rr *ReportRepository) CountsByStatus(ctx context.Context, ownerID string) (services.StatusCounts, error) {
	var rows []struct {
		Status string
		Count  int64
	}

	query := rr.DB.WithContext(ctx).Model(&models.Report{}).Select("status, COUNT(*) AS count").Group("status")
	if ownerID != "" {
		query = query.Where("user_id = ?", ownerID)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return services.StatusCounts{}, fmt.Errorf("count reports by status: %w", err)
	}

	var counts services.StatusCounts
	for _, row := range rows {
		counts.Total += row.Count
		switch row.Status {
		case models.StatusPending:
			counts.Pending = row.Count
		case models.StatusReviewed:
			counts.Reviewed = row.Count
		case models.StatusResolved:
			counts.Resolved = row.Count
		case models.StatusRejected:
			counts.Rejected = row.Count
		}
	}
	return counts, nil
}

func (rr *ReportRepository) Recent(ctx context.Context, limit int) ([]models.Report, error) {
	reports := []models.Report{}
	err := rr.DB.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("fetch recent reports: %w", err)
	}
	return reports, nil
}
