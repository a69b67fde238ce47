package models

import "time"

// UploadStatus is the final state of one upload attempt
type UploadStatus string

const (
	UploadSucceeded UploadStatus = "succeeded"
	UploadFailed    UploadStatus = "failed"
)

// UploadRecord keeps the history of upload attempts. Unlike orders it is
// never cleared when a new dataset replaces the old one.
type UploadRecord struct {
	ID            string       `gorm:"primaryKey;size:36" json:"id"`
	FileName      string       `gorm:"not null" json:"file_name"`
	FileSize      int64        `json:"file_size"`
	UploadedBy    string       `json:"uploaded_by,omitempty"` // token subject, empty when auth is disabled
	Status        UploadStatus `gorm:"not null;index" json:"status"`
	RowsProcessed int          `json:"rows_processed"`
	RowsFailed    int          `json:"rows_failed"`
	ArchiveKey    *string      `json:"archive_key,omitempty"` // nullable, set when the raw file was archived
	ErrorSummary  string       `gorm:"type:text" json:"error_summary,omitempty"`
	StartedAt     time.Time    `gorm:"not null" json:"started_at"`
	FinishedAt    time.Time    `gorm:"not null;index" json:"finished_at"`
}

// TableName specifies the table name for the UploadRecord model
func (UploadRecord) TableName() string {
	return "uploads"
}
