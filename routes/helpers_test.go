package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/posko-pajak/api-go/config"
	"github.com/posko-pajak/api-go/models"
	"github.com/posko-pajak/api-go/repositories"
	"github.com/posko-pajak/api-go/services"
	"github.com/posko-pajak/api-go/storage"
	"github.com/posko-pajak/api-go/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	db       *gorm.DB
	tokens   *utils.TokenIssuer
	blobDir  string
	publicID string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := config.InitDB(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)

	publicID, err := config.Bootstrap(db, &config.Config{PublicReporterEmail: "public@reports.test"})
	require.NoError(t, err)

	blobDir := t.TempDir()
	blobs, err := storage.NewLocalStore(blobDir, "http://localhost:8080")
	require.NoError(t, err)

	svc := services.NewReportService(
		repositories.NewReportRepository(db),
		repositories.NewAttachmentRepository(db),
		blobs,
		services.Options{PublicReporterID: publicID, BulkConcurrency: 2},
	)
	tokens := utils.NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)

	r := gin.New()
	SetupRoutes(r, Dependencies{DB: db, Reports: svc, Tokens: tokens, StorageDir: blobDir})

	return &testServer{t: t, router: r, db: db, tokens: tokens, blobDir: blobDir, publicID: publicID}
}

// user creates an account with the given role and returns its id and bearer token.
func (ts *testServer) user(name, role string) (string, string) {
	ts.t.Helper()
	u, err := config.EnsureUser(ts.db, name, name+"@reports.test", "password123", role)
	require.NoError(ts.t, err)
	token, err := ts.tokens.AccessToken(u.ID, u.RoleNames())
	require.NoError(ts.t, err)
	return u.ID, token
}

func (ts *testServer) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	ts.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) doJSON(method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(ts.t, err)
		body = bytes.NewReader(raw)
	}
	return ts.do(method, path, token, body, "application/json")
}

type formFile struct {
	field   string
	name    string
	content []byte
}

func (ts *testServer) doMultipart(method, path, token string, fields map[string]string, files ...formFile) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(ts.t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(ts.t, err)
		_, err = part.Write(f.content)
		require.NoError(ts.t, err)
	}
	require.NoError(ts.t, mw.Close())
	return ts.do(method, path, token, &buf, mw.FormDataContentType())
}

// createReport files a report through the API and returns its id.
func (ts *testServer) createReport(token, title string, files ...formFile) string {
	ts.t.Helper()
	w := ts.doMultipart(http.MethodPost, "/api/reports", token, reportFields(title), files...)
	require.Equal(ts.t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Data models.Report `json:"data"`
	}
	require.NoError(ts.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.ID
}

func reportFields(title string) map[string]string {
	return map[string]string{
		"title":       title,
		"description": "Reported by a resident",
		"category":    "infrastructure",
		"location":    "Jl. Merdeka 10",
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
