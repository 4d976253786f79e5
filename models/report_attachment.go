package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportAttachment is a file uploaded alongside a report. It lives and dies with its report.
type ReportAttachment struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ReportID  string    `gorm:"type:uuid;not null;index" json:"report_id"`
	FilePath  string    `gorm:"size:255;not null" json:"file_path"`
	FileName  string    `gorm:"size:255;not null" json:"file_name"` // original client-side name
	FileType  string    `gorm:"size:100" json:"file_type"`          // MIME type
	FileSize  int64     `json:"file_size"`
	FileURL   string    `gorm:"-" json:"file_url"`
}

func (a *ReportAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
