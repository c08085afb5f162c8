// Package models contains data structures for the application's domain models.
package models

import "time"

// User is the local identity directory entry for an account minted by the
// external auth service. Tokens are issued elsewhere; this row exists so
// friend search and event payloads can resolve an ID to something displayable.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string    `json:"display_name"`
	Avatar      string    `json:"avatar"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}
