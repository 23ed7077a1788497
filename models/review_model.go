package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is written by one session participant about the other. The pair
// (SessionID, FromUserID) is unique: one review per party per session.
type Review struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	RevieweeID uuid.UUID `gorm:"type:uuid;not null;index" json:"reviewee_id"`
	FromUserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_session_author" json:"from_user_id"`
	SessionID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_session_author" json:"session_id"`
	Rating     int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment    string    `gorm:"type:text" json:"comment,omitempty"`

	FromUser *User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
