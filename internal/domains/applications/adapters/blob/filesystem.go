package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
)

var _ ports.BlobStore = (*FileSystemStore)(nil)

// FileSystemStore keeps document bytes under a local directory and exposes
// them below baseURL.
type FileSystemStore struct {
	dir     string
	baseURL string
}

// NewFileSystemStore prepares dir and returns a store serving files from baseURL.
func NewFileSystemStore(dir, baseURL string) (*FileSystemStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("blob directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &FileSystemStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the root directory, e.g. for serving it over HTTP.
func (s *FileSystemStore) Dir() string { return s.dir }

// Store writes data under a fresh key grouped by application.
func (s *FileSystemStore) Store(ctx context.Context, data []byte, meta ports.BlobMetadata) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := objectKey(meta)
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("create blob folder: %w", err)
	}
	if err := os.WriteFile(target, data, 0o640); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// Delete removes the object addressed by url.
func (s *FileSystemStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || key == "" || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %s", ports.ErrBlobNotFound, url)
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ports.ErrBlobNotFound, url)
	}
	return err
}

func objectKey(meta ports.BlobMetadata) string {
	ext := strings.ToLower(path.Ext(meta.Name))
	if ext == "" && meta.ContentType != "" {
		if exts, err := mime.ExtensionsByType(meta.ContentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return path.Join("applications", strconv.FormatInt(meta.ApplicationID, 10), uuid.NewString()+ext)
}
