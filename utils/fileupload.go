package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// AllowedUploadFormats lists the accepted order file extensions
var AllowedUploadFormats = []string{".csv", ".xlsx"}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateOrderFile validates the uploaded file format and size
func ValidateOrderFile(fileHeader *multipart.FileHeader, maxSize int64) error {
	// Check file size
	if fileHeader.Size > maxSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %s", formatSize(maxSize)),
		}
	}

	if fileHeader.Size == 0 {
		return &FileUploadError{
			Code:    "EMPTY_FILE",
			Message: "Uploaded file is empty",
		}
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	for _, allowed := range AllowedUploadFormats {
		if ext == allowed {
			return nil
		}
	}

	return &FileUploadError{
		Code:    "INVALID_FILE_FORMAT",
		Message: fmt.Sprintf("Only %s files are allowed", strings.Join(AllowedUploadFormats, ", ")),
	}
}

// ReadUploadedFile reads the whole upload into memory, refusing anything
// larger than maxSize even if the multipart header under-reported it
func ReadUploadedFile(fileHeader *multipart.FileHeader, maxSize int64) (data []byte, err error) {
	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close uploaded file: %w", closeErr)
		}
	}()

	data, err = io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %s", formatSize(maxSize)),
		}
	}

	return data, nil
}

func formatSize(size int64) string {
	const mb = 1024 * 1024
	if size >= mb && size%mb == 0 {
		return fmt.Sprintf("%d MB", size/mb)
	}
	return fmt.Sprintf("%d bytes", size)
}
