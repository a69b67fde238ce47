package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// UploadArchive keeps the raw bytes of every upload
type UploadArchive interface {
	// Archive stores data and returns its storage key
	Archive(ctx context.Context, uploadID, fileName string, data []byte) (string, error)

	// ArchiveURL generates a temporary download URL for an archived upload
	ArchiveURL(ctx context.Context, key string) (string, error)
}

var uploadContentTypes = map[string]string{
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// S3UploadArchive implements UploadArchive on top of S3
type S3UploadArchive struct {
	s3  S3Interface
	now func() time.Time
}

// NewS3UploadArchive creates an archive backed by the given S3 client
func NewS3UploadArchive(s3Service S3Interface) *S3UploadArchive {
	return &S3UploadArchive{s3: s3Service, now: time.Now}
}

// Archive stores data under uploads/{yyyy}/{mm}/{dd}/{uploadID}_{file name}
func (a *S3UploadArchive) Archive(ctx context.Context, uploadID, fileName string, data []byte) (string, error) {
	base := filepath.Base(fileName)
	key := fmt.Sprintf("uploads/%s/%s_%s", a.now().UTC().Format("2006/01/02"), uploadID, base)

	contentType, ok := uploadContentTypes[strings.ToLower(filepath.Ext(base))]
	if !ok {
		contentType = "application/octet-stream"
	}

	if err := a.s3.PutObject(ctx, key, contentType, data); err != nil {
		return "", fmt.Errorf("failed to archive upload: %w", err)
	}
	return key, nil
}

// ArchiveURL generates a presigned URL for an archived upload
func (a *S3UploadArchive) ArchiveURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	url, err := a.s3.GetPresignedURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate archive URL: %w", err)
	}
	return url, nil
}
