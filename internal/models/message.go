// internal/models/message.go
package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultConversationSubject = "General Inquiry"

type Conversation struct {
	BaseModel
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Subject  string    `json:"subject" gorm:"size:200;not null;default:'General Inquiry'"`
	IsActive bool      `json:"is_active" gorm:"default:true"`

	// Relationships
	User     User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:ConversationID"`
}

type Message struct {
	BaseModel
	ConversationID uuid.UUID  `json:"conversation_id" gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID  `json:"sender_id" gorm:"type:uuid;not null"`
	SenderType     SenderType `json:"sender_type" gorm:"type:varchar(10);not null"`
	Content        string     `json:"content" gorm:"type:text;not null"`
	IsRead         bool       `json:"is_read" gorm:"default:false"`
	DeliveredAt    *time.Time `json:"delivered_at"`
	ReadAt         *time.Time `json:"read_at"`

	// Relationships
	Sender User `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}

// Status is derived from the timestamps and never stored.
func (m *Message) Status() MessageStatus {
	switch {
	case m.ReadAt != nil:
		return MessageStatusSeen
	case m.DeliveredAt != nil:
		return MessageStatusDelivered
	default:
		return MessageStatusSent
	}
}
