package models

import "time"

type Document struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	CourseID      string    `gorm:"size:36;not null;index" json:"course_id"`
	ContentNodeID *string   `gorm:"size:36" json:"content_node_id,omitempty"`
	Filename      string    `gorm:"size:255;not null" json:"filename"`
	Path          string    `gorm:"size:512;not null;index" json:"path"`
	MimeType      string    `gorm:"size:128" json:"mime_type,omitempty"`
	UploadedBy    string    `gorm:"size:36;not null" json:"uploaded_by"`
	UploadedAt    time.Time `json:"uploaded_at"`
}
