package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// GCSStorage хранит вложения в бакете Firebase Storage.
// Ссылка на файл содержит download token, как у загрузок из Firebase SDK.
type GCSStorage struct {
	client         *gcs.Client
	bucket         string
	maxUploadBytes int64
}

func NewGCSStorage(ctx context.Context, bucket string, maxUploadMB int64) (*GCSStorage, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: init gcs client: %w", err)
	}
	return &GCSStorage{client: client, bucket: bucket, maxUploadBytes: maxUploadMB * 1024 * 1024}, nil
}

func (s *GCSStorage) Save(ctx context.Context, prefix, originalName, contentType string, r io.Reader) (*Object, error) {
	objectPath := path.Join("chat", sanitizeFilename(prefix),
		fmt.Sprintf("%d%s", time.Now().UnixNano(), filepath.Ext(sanitizeFilename(originalName))))
	token := uuid.NewString()

	// Отмена контекста прерывает загрузку и не создаёт объект.
	uploadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(uploadCtx)
	w.ContentType = contentType
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}

	limited := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}
	written, err := io.Copy(w, &limited)
	if err != nil {
		cancel()
		_ = w.Close()
		return nil, fmt.Errorf("storage: gcs write: %w", err)
	}
	if written > s.maxUploadBytes {
		cancel()
		_ = w.Close()
		return nil, ErrTooLarge
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("storage: gcs close: %w", err)
	}

	return &Object{Path: objectPath, URL: downloadURL(s.bucket, objectPath, token), Size: written}, nil
}

func (s *GCSStorage) Delete(ctx context.Context, objectPath string) error {
	err := s.client.Bucket(s.bucket).Object(objectPath).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("storage: gcs delete: %w", err)
	}
	return nil
}

// Close закрывает клиент.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func downloadURL(bucket, objectPath, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(objectPath), token)
}
