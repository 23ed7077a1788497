package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionAccepted  SessionStatus = "accepted"
	SessionRejected  SessionStatus = "rejected"
	SessionCompleted SessionStatus = "completed"
	SessionDisputed  SessionStatus = "disputed"
)

// Session is a learner's request to be taught a skill by a teacher. Pending
// sessions are unique per (learner, teacher, skill); see database.Migrate.
type Session struct {
	ID               uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	LearnerID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"learner_id"`
	TeacherID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"teacher_id"`
	Skill            string        `gorm:"size:255;not null" json:"skill"`
	Status           SessionStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	LearnerCompleted bool          `gorm:"not null;default:false" json:"learner_completed"`
	TeacherCompleted bool          `gorm:"not null;default:false" json:"teacher_completed"`

	DisputedBy    *uuid.UUID `gorm:"type:uuid" json:"disputed_by,omitempty"`
	DisputeReason *string    `gorm:"type:text" json:"dispute_reason,omitempty"`

	Learner *User `gorm:"foreignKey:LearnerID" json:"learner,omitempty"`
	Teacher *User `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsParticipant reports whether userID is the learner or the teacher.
func (s *Session) IsParticipant(userID uuid.UUID) bool {
	return s.LearnerID == userID || s.TeacherID == userID
}

// Counterpart returns the other participant's id.
func (s *Session) Counterpart(userID uuid.UUID) uuid.UUID {
	if s.LearnerID == userID {
		return s.TeacherID
	}
	return s.LearnerID
}

// HasCompleted reports whether userID is a participant whose completion
// flag is already set.
func (s *Session) HasCompleted(userID uuid.UUID) bool {
	switch userID {
	case s.LearnerID:
		return s.LearnerCompleted
	case s.TeacherID:
		return s.TeacherCompleted
	}
	return false
}
