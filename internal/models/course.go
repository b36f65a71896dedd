package models

import "time"

type Subject struct {
	ID   string `gorm:"primaryKey;size:36" json:"id"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

// Course binds a subject to a class for one school year ("2025/26").
type Course struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ClassID    string    `gorm:"size:36;not null;uniqueIndex:uq_course_class_subject_year;index" json:"class_id"`
	SubjectID  string    `gorm:"size:36;not null;uniqueIndex:uq_course_class_subject_year" json:"subject_id"`
	SchoolYear string    `gorm:"size:16;not null;uniqueIndex:uq_course_class_subject_year" json:"school_year"`
	CreatedAt  time.Time `json:"created_at"`
}
