// Package models contains data structures for the application's domain models.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ActivityType is the closed enum of activity kinds.
type ActivityType string

const (
	ActivityHabitCompleted      ActivityType = "habit_completed"
	ActivityStreakAchieved      ActivityType = "streak_achieved"
	ActivityChallengeCreated    ActivityType = "challenge_created"
	ActivityChallengeJoined     ActivityType = "challenge_joined"
	ActivityChallengeWon        ActivityType = "challenge_won"
	ActivityFriendAdded         ActivityType = "friend_added"
	ActivityAchievementUnlocked ActivityType = "achievement_unlocked"
	ActivityLevelUp             ActivityType = "level_up"
)

// ActivityVisibility controls who may read an activity record.
type ActivityVisibility string

const (
	VisibilityPublic  ActivityVisibility = "public"
	VisibilityFriends ActivityVisibility = "friends"
	VisibilityPrivate ActivityVisibility = "private"
)

// ValidVisibility reports whether v is one of the recognized scopes.
func ValidVisibility(v ActivityVisibility) bool {
	switch v {
	case VisibilityPublic, VisibilityFriends, VisibilityPrivate:
		return true
	}
	return false
}

// ActivityDetails is the type-dependent payload of an activity. Exactly the
// field mandated by the activity's type must be set; Validate enforces this
// at creation so an invalid record can never be persisted.
type ActivityDetails struct {
	HabitName       string `json:"habit_name,omitempty"`
	StreakCount     int    `json:"streak_count,omitempty"`
	ChallengeRef    string `json:"challenge_ref,omitempty"`
	FriendRef       string `json:"friend_ref,omitempty"`
	AchievementName string `json:"achievement_name,omitempty"`
	LevelNumber     int    `json:"level_number,omitempty"`
}

// Validate checks that the detail field required by typ is present.
func (d ActivityDetails) Validate(typ ActivityType) error {
	switch typ {
	case ActivityHabitCompleted:
		if d.HabitName == "" {
			return NewValidationError("habit_completed requires details.habit_name")
		}
	case ActivityStreakAchieved:
		if d.StreakCount <= 0 {
			return NewValidationError("streak_achieved requires details.streak_count")
		}
	case ActivityChallengeCreated, ActivityChallengeJoined, ActivityChallengeWon:
		if d.ChallengeRef == "" {
			return NewValidationError(fmt.Sprintf("%s requires details.challenge_ref", typ))
		}
	case ActivityFriendAdded:
		if d.FriendRef == "" {
			return NewValidationError("friend_added requires details.friend_ref")
		}
	case ActivityAchievementUnlocked:
		if d.AchievementName == "" {
			return NewValidationError("achievement_unlocked requires details.achievement_name")
		}
	case ActivityLevelUp:
		if d.LevelNumber <= 0 {
			return NewValidationError("level_up requires details.level_number")
		}
	default:
		return NewValidationError(fmt.Sprintf("Unknown activity type %q", typ))
	}
	return nil
}

// Value implements driver.Valuer for JSON column storage.
func (d ActivityDetails) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSON column storage.
func (d *ActivityDetails) Scan(value interface{}) error {
	if value == nil {
		*d = ActivityDetails{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported details column type %T", value)
	}
}

// Activity is an immutable event record created once by its actor. Only
// visibility may change afterwards, and only the actor may change or delete it.
type Activity struct {
	ID         uint               `gorm:"primaryKey" json:"id"`
	ActorID    uint               `gorm:"not null;index:idx_activities_actor" json:"actor_id"`
	Type       ActivityType       `gorm:"type:varchar(32);not null" json:"type"`
	Details    ActivityDetails    `gorm:"type:json" json:"details"`
	Points     int                `gorm:"default:0" json:"points"`
	Visibility ActivityVisibility `gorm:"type:varchar(16);default:'friends';index" json:"visibility"`
	CreatedAt  time.Time          `gorm:"index" json:"created_at"`

	// Relationships
	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

// TableName specifies the table name for GORM
func (Activity) TableName() string {
	return "activities"
}
