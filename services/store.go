package services

import (
	"context"
	"io"

	"github.com/posko-pajak/api-go/models"
)

// ReportQuery is the store-level form of a listing request. OwnerID, when set,
// restricts results to that owner.
type ReportQuery struct {
	OwnerID  string
	Status   string
	Category string
	Search   string
	Page     int
	PerPage  int
}

type Page[T any] struct {
	Data        []T   `json:"data"`
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
}

// StatusCounts holds report totals per status.
type StatusCounts struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Reviewed int64 `json:"reviewed"`
	Resolved int64 `json:"resolved"`
	Rejected int64 `json:"rejected"`
}

// ReportChanges is a partial update; nil fields are left untouched.
type ReportChanges struct {
	Title       *string
	Description *string
	Category    *string
	Location    *string
	Latitude    *float64
	Longitude   *float64
	ImagePath   *string
	ClearImage  bool // sets image_path to null when ImagePath is nil
	Status      *string
	AdminNotes  *string
	UpdatedBy   *string
}

type ReportStore interface {
	List(ctx context.Context, q ReportQuery) (Page[models.Report], error)
	Get(ctx context.Context, id string) (*models.Report, error)
	Create(ctx context.Context, report *models.Report) error
	Update(ctx context.Context, id string, changes ReportChanges) (*models.Report, error)
	SoftDelete(ctx context.Context, id string) error
	CountsByStatus(ctx context.Context, ownerID string) (StatusCounts, error)
	Recent(ctx context.Context, limit int) ([]models.Report, error)
}

type AttachmentStore interface {
	Create(ctx context.Context, attachment *models.ReportAttachment) error
	ListForReport(ctx context.Context, reportID string) ([]models.ReportAttachment, error)
	DeleteForReport(ctx context.Context, reportID string) error
}

// Upload is a file received from a client, not yet stored.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// BlobStore stores binary files and derives public URLs from stored paths.
// Delete must succeed for paths that do not exist.
type BlobStore interface {
	Put(ctx context.Context, dir string, upload Upload) (string, error)
	Delete(ctx context.Context, path string) error
	URLFor(path string) string
}
