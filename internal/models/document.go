package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

const (
	DocumentStatusPending    = "pending"
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
)

// Document is written by the external upload/extraction pipeline and consumed
// read-only here. Only rows with ProcessingStatus = completed and non-empty
// ExtractedText are eligible for aggregation.
type Document struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID   string `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	FileName string `gorm:"column:file_name;type:text" json:"file_name"`

	FileSize int    `gorm:"column:file_size;type:integer" json:"file_size"`
	MimeType string `gorm:"column:mime_type;type:text" json:"mime_type"`

	ExtractedText    string `gorm:"column:extracted_text;type:text" json:"-"`
	ProcessingStatus string `gorm:"column:processing_status;type:text" json:"processing_status"`

	// Populated by the extraction pipeline alongside the text.
	TextEmbedding pgvector.Vector `gorm:"column:text_embedding;type:vector(768)" json:"-"`

	UploadAt time.Time `gorm:"column:upload_at;type:timestamptz" json:"upload_at"`
}

func (Document) TableName() string { return "documents" }
