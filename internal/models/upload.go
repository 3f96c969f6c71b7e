package models

import (
	"time"
)

type UploadStatus string

const (
	UploadProcessing UploadStatus = "processing"
	UploadCompleted  UploadStatus = "completed"
	UploadFailed     UploadStatus = "failed"
)

// ResumeUpload is one row of the upload ledger.
type ResumeUpload struct {
	ID               string       `gorm:"type:uuid;primaryKey" json:"id"`
	ClerkID          string       `gorm:"type:text;index;not null" json:"clerk_id"`
	OriginalFilename string       `gorm:"type:text" json:"original_filename"`
	ObjectKey        string       `gorm:"type:text" json:"object_key"`
	ResumeURL        string       `gorm:"type:text" json:"resume_url"`
	ContentType      string       `gorm:"type:text" json:"content_type"`
	SizeBytes        int64        `json:"size_bytes"`
	Status           UploadStatus `gorm:"type:text;not null" json:"status"`
	ErrorMessage     *string      `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (ResumeUpload) TableName() string {
	return "resume_uploads"
}
