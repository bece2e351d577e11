package attachment

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type is the attachment_type enum
type Type string

const (
	TypeFile Type = "file"
	TypeLink Type = "link"
)

// Attachment represents attachments. FolderID is the parent entity the
// attachment belongs to.
type Attachment struct {
	ID        uuid.UUID `json:"id"`
	FolderID  uuid.UUID `json:"folder_id"`
	Title     string    `json:"title"`
	Type      Type      `json:"type"`
	Link      string    `json:"link,omitempty"`
	File      *File     `json:"file,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// File represents attachment_files
type File struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Extension returns the lowercase file extension without the leading dot.
func (f *File) Extension() string {
	if f == nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(f.Filename), "."))
}

// IsFile reports whether the attachment carries a stored file.
func (a *Attachment) IsFile() bool {
	return a != nil && a.Type == TypeFile && a.File != nil
}
