package gcs

import (
	"context"
)

// StorageService provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// UploadBytes uploads data to the configured bucket under objectName and
	// returns the resulting gs:// URI.
	UploadBytes(ctx context.Context, objectName string, data []byte, contentType string) (string, error)

	// Fetch downloads file bytes from the given gs:// URI.
	Fetch(ctx context.Context, gcsURI string) ([]byte, error)

	// ExtractFilename extracts the filename from a gs:// URI.
	ExtractFilename(uri string) string
}
