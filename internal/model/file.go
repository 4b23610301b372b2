package model

import (
	"time"

	"github.com/google/uuid"
)

// FileCategory classifies shared documents.
type FileCategory string

const (
	FileCategoryResult   FileCategory = "RESULT"
	FileCategorySchedule FileCategory = "SCHEDULE"
	FileCategoryCircular FileCategory = "CIRCULAR"
	FileCategoryOther    FileCategory = "OTHER"
)

// SharedFile is an uploaded document's metadata. Bytes live on disk under the
// configured upload directory; Path is the public URL path.
type SharedFile struct {
	ID              uuid.UUID    `json:"id"`
	InstitutionCode string       `json:"institution_code"`
	Name            string       `json:"name"`
	MimeType        string       `json:"mime_type"`
	SizeBytes       int64        `json:"size_bytes"`
	Path            string       `json:"path"`
	Category        FileCategory `json:"category"`
	TargetBatch     *string      `json:"target_batch,omitempty"` // nil = visible to all
	UploadedBy      string       `json:"uploaded_by"`
	UploadedAt      time.Time    `json:"uploaded_at"`
}
