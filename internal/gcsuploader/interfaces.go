package gcsuploader

import (
	"context"

	"github.com/dvloznov/budgetwise/internal/gcs"
)

// StorageService is re-exported from the shared package so existing callers
// keep one import.
type StorageService = gcs.StorageService

// GCSStorageService is the concrete implementation of StorageService bound to
// a single bucket.
type GCSStorageService struct {
	bucket string
}

// NewGCSStorageService creates a storage service for the given bucket.
func NewGCSStorageService(bucket string) *GCSStorageService {
	return &GCSStorageService{bucket: bucket}
}

// UploadBytes uploads data under objectName in the configured bucket.
func (s *GCSStorageService) UploadBytes(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	return UploadBytes(ctx, s.bucket, objectName, data, contentType)
}

// Fetch delegates to the package-level FetchFromGCS function.
func (s *GCSStorageService) Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	return FetchFromGCS(ctx, gcsURI)
}

// ExtractFilename delegates to the package-level ExtractFilenameFromGCSURI function.
func (s *GCSStorageService) ExtractFilename(uri string) string {
	return ExtractFilenameFromGCSURI(uri)
}

var _ gcs.StorageService = (*GCSStorageService)(nil)
