package models

import (
	"time"

	"gorm.io/datatypes"
)

type Assignment struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	ContentNodeID string     `gorm:"size:36;not null;index" json:"content_node_id"`
	ClassID       string     `gorm:"size:36;not null;index" json:"class_id"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	CreatedBy     string     `gorm:"size:36;not null" json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
}

const (
	SubmissionDraft     = "draft"
	SubmissionSubmitted = "submitted"
	SubmissionEvaluated = "evaluated"
)

type Submission struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	AssignmentID  *string        `gorm:"size:36;index" json:"assignment_id,omitempty"`
	ContentNodeID string         `gorm:"size:36;not null;index" json:"content_node_id"`
	StudentID     string         `gorm:"size:36;not null;index" json:"student_id"`
	AnswerJSON    datatypes.JSON `json:"answer_json,omitempty"`
	Score         *float64       `json:"score,omitempty"`
	Status        string         `gorm:"size:16;default:'submitted'" json:"status"`
	AttemptsCount int            `gorm:"default:1" json:"attempts_count"`
	FirstSeenAt   time.Time      `json:"first_seen_at"`
	SubmittedAt   time.Time      `json:"submitted_at"`
}
