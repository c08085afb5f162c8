// Package models contains data structures for the application's domain models.
package models

import "time"

// FriendRequestStatus represents the lifecycle state of a friend request.
type FriendRequestStatus string

const (
	// FriendRequestStatusPending indicates an unresolved invitation.
	FriendRequestStatusPending FriendRequestStatus = "pending"
	// FriendRequestStatusAccepted indicates the invitee accepted (terminal).
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
	// FriendRequestStatusRejected indicates the invitee rejected (terminal).
	FriendRequestStatusRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directed, time-ordered invitation from one user to
// another. At most one pending request may exist per ordered (from, to) pair;
// the partial unique index idx_friend_requests_pending (created in the
// database package, since gorm tags cannot express WHERE clauses) enforces
// this against concurrent senders. Resolved rows accumulate as history.
type FriendRequest struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	FromID    uint                `gorm:"not null;index:idx_friend_requests_from" json:"from_id"`
	ToID      uint                `gorm:"not null;index:idx_friend_requests_to" json:"to_id"`
	Status    FriendRequestStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`

	// Relationships
	From User `gorm:"foreignKey:FromID" json:"from,omitempty"`
	To   User `gorm:"foreignKey:ToID" json:"to,omitempty"`
}

// TableName specifies the table name for GORM
func (FriendRequest) TableName() string {
	return "friend_requests"
}
