package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/posko-pajak/api-go/services"
)

// LocalStore keeps blobs on disk under Root. Files are served by the HTTP
// layer at /storage/<path>.
type LocalStore struct {
	Root    string
	BaseURL string
}

var _ services.BlobStore = (*LocalStore)(nil)

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (ls *LocalStore) Put(ctx context.Context, dir string, upload services.Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := path.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(upload.Name)))
	full, err := ls.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create dir for %s: %w", key, err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", key, err)
	}
	if _, err := io.Copy(f, upload.Body); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	return key, nil
}

// Delete removes the blob at key. A missing file is not an error.
func (ls *LocalStore) Delete(ctx context.Context, key string) error {
	full, err := ls.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (ls *LocalStore) URLFor(key string) string {
	if key == "" {
		return ""
	}
	return ls.BaseURL + "/storage/" + key
}

// resolve maps a storage key to a path inside Root.
func (ls *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(ls.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
