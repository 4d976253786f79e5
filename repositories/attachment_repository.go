package repositories

import (
	"context"
	"fmt"

	"github.com/posko-pajak/api-go/models"
	"github.com/posko-pajak/api-go/services"
	"gorm.io/gorm"
)

type AttachmentRepository struct {
	DB *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{DB: db}
}

var _ services.AttachmentStore = (*AttachmentRepository)(nil)

// Create requires the parent report to exist and be live.
func (ar *AttachmentRepository) Create(ctx context.Context, attachment *models.ReportAttachment) error {
	reportID, ok := canonicalID(attachment.ReportID)
	if !ok {
		return services.ErrNotFound
	}
	attachment.ReportID = reportID

	var count int64
	if err := ar.DB.WithContext(ctx).Model(&models.Report{}).Where("id = ?", attachment.ReportID).Count(&count).Error; err != nil {
		return fmt.Errorf("check report %s: %w", attachment.ReportID, err)
	}
	if count == 0 {
		return services.ErrNotFound
	}
	if err := ar.DB.WithContext(ctx).Create(attachment).Error; err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

func (ar *AttachmentRepository) ListForReport(ctx context.Context, reportID string) ([]models.ReportAttachment, error) {
	attachments := []models.ReportAttachment{}
	reportID, ok := canonicalID(reportID)
	if !ok {
		return attachments, nil
	}
	err := ar.DB.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("created_at ASC").
		Find(&attachments).Error
	if err != nil {
		return nil, fmt.Errorf("fetch attachments for %s: %w", reportID, err)
	}
	return attachments, nil
}

func (ar *AttachmentRepository) DeleteForReport(ctx context.Context, reportID string) error {
	reportID, ok := canonicalID(reportID)
	if !ok {
		return nil
	}
	err := ar.DB.WithContext(ctx).Where("report_id = ?", reportID).Delete(&models.ReportAttachment{}).Error
	if err != nil {
		return fmt.Errorf("delete attachments for %s: %w", reportID, err)
	}
	return nil
}
