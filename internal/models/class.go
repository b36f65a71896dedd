package models

import "time"

type Class struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	GradeLevel string    `gorm:"size:32" json:"grade_level,omitempty"`
	JoinCode   string    `gorm:"size:12;uniqueIndex;not null" json:"join_code"`
	CreatedBy  string    `gorm:"size:36;index" json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	EnrollStudent = "student"
	EnrollTeacher = "teacher"
)

type Enrollment struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ClassID     string    `gorm:"size:36;not null;uniqueIndex:uq_enrollment_user_class;index" json:"class_id"`
	UserID      string    `gorm:"size:36;not null;uniqueIndex:uq_enrollment_user_class" json:"user_id"`
	RoleInClass string    `gorm:"size:16;not null" json:"role_in_class"`
	CreatedAt   time.Time `json:"created_at"`
}
