package models

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SenderID    uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_pair" json:"sender_id"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_pair" json:"recipient_id"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	Type        string    `gorm:"size:10;not null;default:'text'" json:"type"`
	FileURL     *string   `gorm:"size:512" json:"file_url"`
	IsRead      bool      `gorm:"not null;default:false" json:"is_read"`
	Timestamp   time.Time `gorm:"not null;index" json:"timestamp"`
}
