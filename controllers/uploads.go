package controllers

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/posko-pajak/api-go/services"
)

const (
	maxImageSize      = 2 << 20
	maxAttachmentSize = 5 << 20
	maxAttachments    = 5
	maxMultipartSize  = 32 << 20
)

var (
	imageExtensions      = []string{".jpeg", ".jpg", ".png", ".gif"}
	attachmentExtensions = []string{".jpeg", ".jpg", ".png", ".gif", ".pdf"}
)

// openedFiles tracks multipart files so the handler can close them once the
// service has consumed the uploads.
type openedFiles []io.Closer

func (o openedFiles) Close() {
	for _, f := range o {
		f.Close()
	}
}

// readUploads pulls the optional "image" file and the "attachments" files
// from a multipart request and checks their type and size.
func readUploads(c *gin.Context, allowAttachments bool) (*services.Upload, []services.Upload, openedFiles, error) {
	var opened openedFiles
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil, opened, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, opened, fmt.Errorf("invalid multipart form: %w", err)
	}

	var image *services.Upload
	if files := form.File["image"]; len(files) > 0 {
		u, f, err := openUpload(files[0], imageExtensions, maxImageSize)
		if err != nil {
			return nil, nil, opened, fmt.Errorf("image: %w", err)
		}
		opened = append(opened, f)
		image = &u
	}

	if !allowAttachments {
		return image, nil, opened, nil
	}

	headers := append(form.File["attachments"], form.File["attachments[]"]...)
	if len(headers) > maxAttachments {
		opened.Close()
		return nil, nil, nil, fmt.Errorf("at most %d attachments are allowed", maxAttachments)
	}
	attachments := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		u, f, err := openUpload(fh, attachmentExtensions, maxAttachmentSize)
		if err != nil {
			opened.Close()
			return nil, nil, nil, fmt.Errorf("attachment %q: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		attachments = append(attachments, u)
	}
	return image, attachments, opened, nil
}

func openUpload(fh *multipart.FileHeader, allowed []string, maxSize int64) (services.Upload, multipart.File, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !contains(allowed, ext) {
		return services.Upload{}, nil, fmt.Errorf("file type %q is not allowed", ext)
	}
	if fh.Size > maxSize {
		return services.Upload{}, nil, fmt.Errorf("file exceeds %d KB", maxSize>>10)
	}

	f, err := fh.Open()
	if err != nil {
		return services.Upload{}, nil, err
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			contentType = byExt
		}
	}

	return services.Upload{
		Name:        filepath.Base(fh.Filename),
		ContentType: contentType,
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}

func limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMultipartSize)
}

// nullableFormFields are optional form fields where an empty value means null.
var nullableFormFields = []string{
	"latitude", "longitude",
	"reporter_name", "reporter_email", "reporter_phone", "reporter_whatsapp", "reporter_occupation",
}

// dropEmptyFormValues removes blank values of the named fields from a form
// request so binding leaves their pointers nil instead of zero.
func dropEmptyFormValues(c *gin.Context, fields ...string) {
	req := c.Request
	switch {
	case strings.HasPrefix(c.ContentType(), "multipart/"):
		if err := req.ParseMultipartForm(maxMultipartSize); err != nil {
			return
		}
	case c.ContentType() == "application/x-www-form-urlencoded":
		if err := req.ParseForm(); err != nil {
			return
		}
	default:
		return
	}

	for _, field := range fields {
		dropBlank(req.Form, field)
		dropBlank(req.PostForm, field)
		if req.MultipartForm != nil {
			dropBlank(req.MultipartForm.Value, field)
		}
	}
}

func dropBlank(values map[string][]string, key string) {
	if vs, ok := values[key]; ok && (len(vs) == 0 || strings.TrimSpace(vs[0]) == "") {
		delete(values, key)
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
