// Package models contains data structures for the application's domain models.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Chat is the single conversation between exactly two users. Lookup is
// order-insensitive: the pair is stored canonically so the composite unique
// index admits at most one row per unordered pair.
type Chat struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserLoID      uint      `gorm:"not null;uniqueIndex:idx_chat_pair" json:"user_lo_id"`
	UserHiID      uint      `gorm:"not null;uniqueIndex:idx_chat_pair" json:"user_hi_id"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationships
	UserLo       User              `gorm:"foreignKey:UserLoID" json:"user_lo,omitempty"`
	UserHi       User              `gorm:"foreignKey:UserHiID" json:"user_hi,omitempty"`
	Participants []ChatParticipant `gorm:"foreignKey:ChatID" json:"participants,omitempty"`
	Messages     []Message         `gorm:"foreignKey:ChatID" json:"messages,omitempty"`

	// UnreadCount is the caller's unread counter, filled at query time.
	UnreadCount int `gorm:"-" json:"unread_count"`
}

// TableName specifies the table name for GORM
func (Chat) TableName() string {
	return "chats"
}

// BeforeCreate enforces the canonical (lo, hi) ordering for the pair index.
func (ch *Chat) BeforeCreate(_ *gorm.DB) error {
	ch.UserLoID, ch.UserHiID = CanonicalPair(ch.UserLoID, ch.UserHiID)
	return nil
}

// HasParticipant reports whether userID is one of the two chat members.
func (ch *Chat) HasParticipant(userID uint) bool {
	return ch.UserLoID == userID || ch.UserHiID == userID
}

// OtherUser returns the participant that is not userID.
func (ch *Chat) OtherUser(userID uint) uint {
	if ch.UserLoID == userID {
		return ch.UserHiID
	}
	return ch.UserLoID
}

// ChatParticipant carries the per-user unread counter for a chat. The counter
// is only ever moved by atomic SQL increments and conditional resets, never by
// read-modify-write in application code.
type ChatParticipant struct {
	ChatID      uint      `gorm:"primaryKey;autoIncrement:false" json:"chat_id"`
	UserID      uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	UnreadCount int       `gorm:"default:0" json:"unread_count"`
	LastReadAt  time.Time `json:"last_read_at"`
	JoinedAt    time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// TableName specifies the table name for GORM
func (ChatParticipant) TableName() string {
	return "chat_participants"
}

// AttachmentKind is the closed set of message attachment types.
type AttachmentKind string

const (
	AttachmentKindImage AttachmentKind = "image"
	AttachmentKindFile  AttachmentKind = "file"
	AttachmentKindLink  AttachmentKind = "link"
)

// Attachment is a typed reference carried by a message.
type Attachment struct {
	Kind AttachmentKind `json:"kind"`
	URL  string         `json:"url"`
	Name string         `json:"name"`
}

// Validate checks the attachment's kind and URL.
func (a Attachment) Validate() error {
	switch a.Kind {
	case AttachmentKindImage, AttachmentKindFile, AttachmentKindLink:
	default:
		return NewValidationError(fmt.Sprintf("Unknown attachment kind %q", a.Kind))
	}
	if a.URL == "" {
		return NewValidationError("Attachment URL is required")
	}
	return nil
}

// Attachments is stored as a JSON column.
type Attachments []Attachment

// Value implements driver.Valuer for JSON column storage.
func (as Attachments) Value() (driver.Value, error) {
	if len(as) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(as)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSON column storage.
func (as *Attachments) Scan(value interface{}) error {
	if value == nil {
		*as = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, as)
	case string:
		return json.Unmarshal([]byte(v), as)
	default:
		return fmt.Errorf("unsupported attachments column type %T", value)
	}
}

// Message is one entry in a chat's append-only log. Messages are never edited
// or deleted in normal operation.
type Message struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	ChatID      uint        `gorm:"not null;index" json:"chat_id"`
	SenderID    uint        `gorm:"not null;index" json:"sender_id"`
	Content     string      `gorm:"type:text" json:"content"`
	Attachments Attachments `gorm:"type:json" json:"attachments,omitempty"`
	Read        bool        `gorm:"default:false" json:"read"`
	CreatedAt   time.Time   `json:"created_at"`

	// Relationships
	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}
