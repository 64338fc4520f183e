package storage

import (
	"context"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// MediaStorage is the object-storage interface for program briefing assets
// (hero images, instruction documents). The engine never touches it; only
// the catalog surface does.
type MediaStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL allowing a direct
	// PUT of an object to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL allowing a direct
	// GET of an object from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}
