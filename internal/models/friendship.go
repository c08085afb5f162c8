// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// FriendshipStatus represents the status of a confirmed friendship edge.
type FriendshipStatus string

const (
	// FriendshipStatusActive indicates a normal, confirmed friendship.
	FriendshipStatusActive FriendshipStatus = "active"
	// FriendshipStatusBlocked indicates the edge exists but interaction is blocked.
	FriendshipStatusBlocked FriendshipStatus = "blocked"
)

// CanonicalPair returns the unordered pair (a, b) in its canonical (lo, hi)
// representation. Every read and write against Friendship and Chat goes
// through this so the uniqueness constraint on (lo, hi) can hold.
func CanonicalPair(a, b uint) (lo, hi uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// Friendship represents a confirmed, symmetric relation between two users.
// Rows are only ever created as the side effect of accepting a FriendRequest;
// there is no direct create path.
type Friendship struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserLoID  uint             `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"user_lo_id"`
	UserHiID  uint             `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"user_hi_id"`
	Status    FriendshipStatus `gorm:"type:varchar(20);default:'active';index:idx_friendships_status" json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	// Relationships
	UserLo User `gorm:"foreignKey:UserLoID" json:"user_lo,omitempty"`
	UserHi User `gorm:"foreignKey:UserHiID" json:"user_hi,omitempty"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}

// BeforeCreate enforces the canonical (lo, hi) ordering so the composite
// unique index guarantees at most one row per unordered pair.
func (f *Friendship) BeforeCreate(_ *gorm.DB) error {
	f.UserLoID, f.UserHiID = CanonicalPair(f.UserLoID, f.UserHiID)
	return nil
}

// OtherUser returns the participant that is not userID.
func (f *Friendship) OtherUser(userID uint) uint {
	if f.UserLoID == userID {
		return f.UserHiID
	}
	return f.UserLoID
}

// Friend annotates a friend's identity with the friendship's creation time.
type Friend struct {
	User      User      `json:"user"`
	FriendsAt time.Time `json:"friends_at"`
}
