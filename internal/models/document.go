package models

import "time"

// Document is an uploaded file's metadata. It may be attached to a policy, a
// procedure, an uploading user, or any combination; each attachment is an
// owning edge, so deleting any referenced row removes the document.
type Document struct {
	ID               int64     `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	FilePath         string    `json:"-"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type,omitempty"`
	UploadedBy       *int64    `json:"uploaded_by,omitempty"`
	UploadedAt       time.Time `json:"uploaded_at"`
	PolicyID         *int64    `json:"policy_id,omitempty"`
	ProcedureID      *int64    `json:"procedure_id,omitempty"`
}
