package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// LiveSession is the authoritative record of one teacher-hosted live
// window over a course. At most one active session exists per course;
// the join code resolves only while Active is true.
type LiveSession struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	CourseID     string         `gorm:"size:36;not null;index" json:"course_id"`
	HostUserID   string         `gorm:"size:36;not null" json:"host_user_id"`
	JoinCode     string         `gorm:"size:6;index" json:"join_code"`
	Active       bool           `gorm:"not null;default:true" json:"active"`
	CurrentSlide int            `gorm:"not null;default:0" json:"current_slide"`
	RevealedIDs  datatypes.JSON `json:"revealed_ids"`
	StartedAt    time.Time      `json:"started_at"`
	EndedAt      *time.Time     `json:"ended_at,omitempty"`
}

// Revealed decodes the set of content-node ids whose solutions are
// currently visible. An empty or corrupt column reads as the empty set.
func (s *LiveSession) Revealed() map[string]bool {
	set := make(map[string]bool)
	if len(s.RevealedIDs) == 0 {
		return set
	}
	var ids []string
	if err := json.Unmarshal(s.RevealedIDs, &ids); err != nil {
		return set
	}
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (s *LiveSession) IsRevealed(nodeID string) bool {
	return s.Revealed()[nodeID]
}
