package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// NewID returns a fresh string primary key. All entities use UUID keys.
func NewID() string {
	return uuid.NewString()
}

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        *string   `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	Username     string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:16;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
