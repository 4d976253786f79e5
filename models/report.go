package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusResolved = "resolved"
	StatusRejected = "rejected"
)

// ReportStatuses lists every status a report can hold, in dashboard order.
var ReportStatuses = []string{StatusPending, StatusReviewed, StatusResolved, StatusRejected}

func IsValidStatus(status string) bool {
	for _, s := range ReportStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Report struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	// Contact details, only filled for public submissions.
	ReporterName       *string `gorm:"size:255" json:"reporter_name"`
	ReporterEmail      *string `gorm:"size:255" json:"reporter_email"`
	ReporterPhone      *string `gorm:"size:50" json:"reporter_phone"`
	ReporterWhatsApp   *string `gorm:"column:reporter_whatsapp;size:50" json:"reporter_whatsapp"`
	ReporterOccupation *string `gorm:"size:255" json:"reporter_occupation"`

	Title       string   `gorm:"size:255;not null" json:"title"`
	Description string   `gorm:"type:text;not null" json:"description"`
	Category    string   `gorm:"size:100;not null;index" json:"category"`
	Location    string   `gorm:"size:255;not null" json:"location"`
	Latitude    *float64 `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude   *float64 `gorm:"type:decimal(11,8)" json:"longitude"`
	ImagePath   *string  `gorm:"size:255" json:"image_path"`
	ImageURL    string   `gorm:"-" json:"image_url"`

	Status        string  `gorm:"size:20;not null;default:'pending';index" json:"status"` // pending, reviewed, resolved, rejected
	AdminNotes    *string `gorm:"type:text" json:"admin_notes"`
	UpdatedBy     *string `gorm:"type:uuid" json:"updated_by"`
	UpdatedByUser *User   `gorm:"foreignKey:UpdatedBy" json:"updated_by_user,omitempty"`

	Attachments []ReportAttachment `gorm:"foreignKey:ReportID" json:"attachments"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	return nil
}
