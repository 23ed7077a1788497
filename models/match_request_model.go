package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MatchPending  = "pending"
	MatchAccepted = "accepted"
	MatchRejected = "rejected"
)

type MatchRequest struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	SenderName     string    `gorm:"size:255;not null" json:"sender_name"`
	RecipientID    uuid.UUID `gorm:"type:uuid;not null;index" json:"recipient_id"`
	RecipientName  string    `gorm:"size:255;not null" json:"recipient_name"`
	Status         string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	SkillOffered   string    `gorm:"size:255;not null" json:"skill_offered"`
	SkillRequested string    `gorm:"size:255;not null" json:"skill_requested"`
	CreatedAt      time.Time `json:"created_at"`
}

// Match is one direction of an accepted partnership; accepting a request
// writes one row per participant with the skills seen from their side.
type Match struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_matches_pair" json:"user_id"`
	PartnerID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_matches_pair" json:"partner_id"`
	SkillOffered   string    `gorm:"size:255" json:"skill_offered"`
	SkillRequested string    `gorm:"size:255" json:"skill_requested"`
	AcceptedAt     time.Time `json:"accepted_at"`

	Partner *User `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
}
