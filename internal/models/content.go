package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NodeSection  = "section"
	NodeLesson   = "lesson"
	NodeExercise = "exercise"
	NodeMedia    = "media"
)

// ContentNode is one entry in a course's ordered content list. During a
// live session nodes are addressed by their position as slides.
type ContentNode struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	CourseID string `gorm:"size:36;not null;index:ix_nodes_course_order" json:"course_id"`
	ParentID *string `gorm:"size:36" json:"parent_id,omitempty"`

	Code       string         `gorm:"size:32" json:"code,omitempty"`
	Type       string         `gorm:"size:16;not null" json:"type"`
	Title      string         `gorm:"size:255;not null" json:"title"`
	BodyMD     string         `gorm:"type:text" json:"body_md,omitempty"`
	BodyHTML   string         `gorm:"type:text" json:"body_html,omitempty"`
	Media      datatypes.JSON `json:"media,omitempty"`
	OrderIndex int            `gorm:"default:0;index:ix_nodes_course_order" json:"order_index"`

	GeneratedBy string     `gorm:"size:16" json:"generated_by,omitempty"`
	Approved    bool       `gorm:"default:false" json:"approved"`
	ApprovedBy  *string    `gorm:"size:36" json:"approved_by,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`

	// nil = not yet released to students
	ReleasedAt   *time.Time `json:"released_at,omitempty"`
	ReleaseOrder int        `gorm:"default:0" json:"release_order"`

	CreatedAt time.Time `json:"created_at"`
}

const (
	ExerciseMC          = "mc"
	ExerciseShortAnswer = "short_answer"
)

type Exercise struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	ContentNodeID string         `gorm:"size:36;not null;index" json:"content_node_id"`
	Kind          string         `gorm:"size:16;not null" json:"kind"`
	PromptMD      string         `gorm:"type:text;not null" json:"prompt_md"`
	Options       datatypes.JSON `json:"options,omitempty"`
	AnswerSchema  datatypes.JSON `json:"answer_schema,omitempty"`
	Difficulty    int            `json:"difficulty,omitempty"`
	Tags          datatypes.JSON `json:"tags,omitempty"`
}
