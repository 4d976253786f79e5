package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/posko-pajak/api-go/models"
)

var errBoom = errors.New("boom")

type memReports struct {
	mu          sync.Mutex
	rows        map[string]*models.Report
	deleted     map[string]bool
	attachments *memAttachments
	clock       time.Time
	failGet     map[string]error
	failDelete  map[string]error
}

func newMemReports(attachments *memAttachments) *memReports {
	return &memReports{
		rows:        map[string]*models.Report{},
		deleted:     map[string]bool{},
		attachments: attachments,
		clock:       time.Date(2025, 12, 24, 8, 0, 0, 0, time.UTC),
		failGet:     map[string]error{},
		failDelete:  map[string]error{},
	}
}

func (m *memReports) List(_ context.Context, q ReportQuery) (Page[models.Report], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []models.Report
	search := strings.ToLower(q.Search)
	for id, r := range m.rows {
		if m.deleted[id] {
			continue
		}
		if q.OwnerID != "" && r.UserID != q.OwnerID {
			continue
		}
		if q.Status != "" && r.Status != q.Status {
			continue
		}
		if q.Category != "" && r.Category != q.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Title), search) &&
			!strings.Contains(strings.ToLower(r.Description), search) &&
			!strings.Contains(strings.ToLower(r.Location), search) {
			continue
		}
		matched = append(matched, m.copyOf(r))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	start := (q.Page - 1) * q.PerPage
	if start > total {
		start = total
	}
	end := start + q.PerPage
	if end > total {
		end = total
	}
	lastPage := (total + q.PerPage - 1) / q.PerPage
	if lastPage == 0 {
		lastPage = 1
	}
	return Page[models.Report]{
		Data:        matched[start:end],
		Total:       int64(total),
		PerPage:     q.PerPage,
		CurrentPage: q.Page,
		LastPage:    lastPage,
	}, nil
}

func (m *memReports) Get(_ context.Context, id string) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failGet[id]; err != nil {
		return nil, err
	}
	r, ok := m.rows[id]
	if !ok || m.deleted[id] {
		return nil, ErrNotFound
	}
	c := m.copyOf(r)
	return &c, nil
}

func (m *memReports) Create(_ context.Context, report *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		m.clock = m.clock.Add(time.Minute)
		report.CreatedAt = m.clock
	}
	report.UpdatedAt = report.CreatedAt
	c := *report
	m.rows[report.ID] = &c
	return nil
}

func (m *memReports) Update(_ context.Context, id string, ch ReportChanges) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || m.deleted[id] {
		return nil, ErrNotFound
	}
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&r.Title, ch.Title)
	setString(&r.Description, ch.Description)
	setString(&r.Category, ch.Category)
	setString(&r.Location, ch.Location)
	setString(&r.Status, ch.Status)
	if ch.Latitude != nil {
		r.Latitude = ch.Latitude
	}
	if ch.Longitude != nil {
		r.Longitude = ch.Longitude
	}
	if ch.ImagePath != nil {
		r.ImagePath = ch.ImagePath
	} else if ch.ClearImage {
		r.ImagePath = nil
	}
	if ch.AdminNotes != nil {
		r.AdminNotes = ch.AdminNotes
	}
	if ch.UpdatedBy != nil {
		r.UpdatedBy = ch.UpdatedBy
	}
	c := m.copyOf(r)
	return &c, nil
}

func (m *memReports) SoftDelete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failDelete[id]; err != nil {
		return err
	}
	if _, ok := m.rows[id]; !ok || m.deleted[id] {
		return ErrNotFound
	}
	m.deleted[id] = true
	return nil
}

func (m *memReports) CountsByStatus(_ context.Context, ownerID string) (StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c StatusCounts
	for id, r := range m.rows {
		if m.deleted[id] || (ownerID != "" && r.UserID != ownerID) {
			continue
		}
		c.Total++
		switch r.Status {
		case models.StatusPending:
			c.Pending++
		case models.StatusReviewed:
			c.Reviewed++
		case models.StatusResolved:
			c.Resolved++
		case models.StatusRejected:
			c.Rejected++
		}
	}
	return c, nil
}

func (m *memReports) Recent(ctx context.Context, limit int) ([]models.Report, error) {
	page, err := m.List(ctx, ReportQuery{Page: 1, PerPage: limit})
	return page.Data, err
}

func (m *memReports) isDeleted(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleted[id]
}

// copyOf must be called with mu held.
func (m *memReports) copyOf(r *models.Report) models.Report {
	c := *r
	if m.attachments != nil {
		c.Attachments, _ = m.attachments.ListForReport(context.Background(), r.ID)
	}
	return c
}

type memAttachments struct {
	mu      sync.Mutex
	rows    map[string][]models.ReportAttachment
	failFor map[string]bool // file names whose row insert fails
}

func newMemAttachments() *memAttachments {
	return &memAttachments{rows: map[string][]models.ReportAttachment{}, failFor: map[string]bool{}}
}

func (m *memAttachments) Create(_ context.Context, a *models.ReportAttachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[a.FileName] {
		return errBoom
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	m.rows[a.ReportID] = append(m.rows[a.ReportID], *a)
	return nil
}

func (m *memAttachments) ListForReport(_ context.Context, reportID string) ([]models.ReportAttachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ReportAttachment(nil), m.rows[reportID]...), nil
}

func (m *memAttachments) DeleteForReport(_ context.Context, reportID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, reportID)
	return nil
}

func (m *memAttachments) count(reportID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows[reportID])
}

type memBlobs struct {
	mu        sync.Mutex
	files     map[string][]byte
	failPut   map[string]bool // upload names that fail
	failDel   bool
	seq       int
	deletions []string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{files: map[string][]byte{}, failPut: map[string]bool{}}
}

func (m *memBlobs) Put(_ context.Context, dir string, u Upload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut[u.Name] {
		return "", errBoom
	}
	body, err := io.ReadAll(u.Body)
	if err != nil {
		return "", err
	}
	m.seq++
	path := fmt.Sprintf("%s/%03d-%s", dir, m.seq, u.Name)
	m.files[path] = body
	return path, nil
}

func (m *memBlobs) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletions = append(m.deletions, path)
	if m.failDel {
		return errBoom
	}
	delete(m.files, path)
	return nil
}

func (m *memBlobs) URLFor(path string) string {
	if path == "" {
		return ""
	}
	return "http://localhost:8080/storage/" + path
}

func (m *memBlobs) has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

func (m *memBlobs) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

type fixture struct {
	reports     *memReports
	attachments *memAttachments
	blobs       *memBlobs
	svc         *ReportService
}

const publicReporterID = "00000000-0000-0000-0000-000000000001"

func newFixture() *fixture {
	attachments := newMemAttachments()
	reports := newMemReports(attachments)
	blobs := newMemBlobs()
	svc := NewReportService(reports, attachments, blobs, Options{PublicReporterID: publicReporterID})
	return &fixture{reports: reports, attachments: attachments, blobs: blobs, svc: svc}
}

func upload(name string) Upload {
	return Upload{Name: name, ContentType: "image/png", Size: 4, Body: strings.NewReader("data")}
}

func validInput(title string) CreateReportInput {
	return CreateReportInput{
		Title:       title,
		Description: "Needs attention from the city",
		Category:    "infrastructure",
		Location:    "Jl. Merdeka 10",
	}
}

func ptr[T any](v T) *T { return &v }
