package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ignatzorin/pokemarket-backend/internal/config"
)

// ErrTooLarge возвращается, когда файл превышает лимит загрузки.
var ErrTooLarge = errors.New("storage: file exceeds upload limit")

// Object сохранённый файл.
type Object struct {
	Path string
	URL  string
	Size int64
}

// FileStorage хранилище вложений чата.
type FileStorage interface {
	Save(ctx context.Context, prefix, originalName, contentType string, r io.Reader) (*Object, error)
	Delete(ctx context.Context, path string) error
}

// New выбирает хранилище по STORAGE_BACKEND.
func New(ctx context.Context, cfg config.StorageConfig) (FileStorage, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStorage(cfg.LocalPath, cfg.PublicURL, cfg.MaxUploadMB)
	case "gcs":
		return NewGCSStorage(ctx, cfg.GCSBucket, cfg.MaxUploadMB)
	default:
		return nil, fmt.Errorf("storage: неизвестный backend %q", cfg.Backend)
	}
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" || name == "." {
		name = "file"
	}
	return name
}
