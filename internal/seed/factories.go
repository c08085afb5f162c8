// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"habitat/internal/models"
	"habitat/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

var habitNames = []string{
	"morning run", "meditation", "reading", "journaling", "cold shower",
	"stretching", "no sugar", "early wakeup", "language practice",
	"piano practice", "pushups", "walking 10k steps", "inbox zero",
	"drink water", "weekly review",
}

var achievementNames = []string{
	"Early Bird", "Iron Will", "Consistency King", "Week Warrior",
	"Comeback Kid", "Century Club", "Night Owl Tamer", "Habit Architect",
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db    *gorm.DB
	users repository.UserRepository
	rng   *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:    db,
		users: repository.NewUserRepository(db),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// pastTime returns a time up to maxDays in the past with minute jitter.
func (f *Factory) pastTime(maxDays int) time.Time {
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	minsBack := f.rng.Intn(24 * 60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(minsBack)*time.Minute)
}

// CreateUser persists a directory entry with fake identity data.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:    fmt.Sprintf("%s%d", gofakeit.Username(), f.rng.Intn(100000)),
		DisplayName: gofakeit.Name(),
		Avatar:      fmt.Sprintf("https://picsum.photos/seed/%s/200/200", gofakeit.UUID()),
		CreatedAt:   f.pastTime(365),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// CreatePendingRequest persists an unresolved invitation from one user to another.
func (f *Factory) CreatePendingRequest(from, to *models.User) (*models.FriendRequest, error) {
	req := &models.FriendRequest{
		FromID:    from.ID,
		ToID:      to.ID,
		Status:    models.FriendRequestStatusPending,
		CreatedAt: f.pastTime(14),
	}
	if err := f.db.Create(req).Error; err != nil {
		return nil, fmt.Errorf("create friend request: %w", err)
	}
	return req, nil
}

// CreateFriendship persists a resolved request plus the friendship edge,
// mirroring what an accepted invitation leaves behind.
func (f *Factory) CreateFriendship(a, b *models.User, status models.FriendshipStatus) error {
	createdAt := f.pastTime(180)
	req := &models.FriendRequest{
		FromID:    a.ID,
		ToID:      b.ID,
		Status:    models.FriendRequestStatusAccepted,
		CreatedAt: createdAt,
	}
	if err := f.db.Create(req).Error; err != nil {
		return fmt.Errorf("create request history: %w", err)
	}

	edge := &models.Friendship{
		UserLoID:  a.ID,
		UserHiID:  b.ID,
		Status:    status,
		CreatedAt: createdAt.Add(time.Hour),
	}
	if err := f.db.Create(edge).Error; err != nil {
		return fmt.Errorf("create friendship edge: %w", err)
	}
	return nil
}

// CreateRejectedRequest persists a resolved-as-rejected invitation so the
// pair is free to try again.
func (f *Factory) CreateRejectedRequest(from, to *models.User) error {
	req := &models.FriendRequest{
		FromID:    from.ID,
		ToID:      to.ID,
		Status:    models.FriendRequestStatusRejected,
		CreatedAt: f.pastTime(60),
	}
	if err := f.db.Create(req).Error; err != nil {
		return fmt.Errorf("create rejected request: %w", err)
	}
	return nil
}

// CreateChat persists a chat between two users with numMessages alternating
// messages. The recipient of the final stretch keeps a realistic unread
// counter; the sender's counter stays at zero.
func (f *Factory) CreateChat(a, b *models.User, numMessages int) (*models.Chat, error) {
	chat := &models.Chat{UserLoID: a.ID, UserHiID: b.ID}
	if err := f.db.Create(chat).Error; err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}

	unread := map[uint]int{a.ID: 0, b.ID: 0}
	lastMessageAt := chat.CreatedAt

	at := f.pastTime(30)
	unreadTail := f.rng.Intn(3)
	for i := 0; i < numMessages; i++ {
		sender, receiver := a, b
		if i%2 == 1 {
			sender, receiver = b, a
		}

		read := true
		// The tail of the conversation stays unread for its recipient.
		if i >= numMessages-unreadTail {
			read = false
			unread[receiver.ID]++
		}

		at = at.Add(time.Duration(1+f.rng.Intn(120)) * time.Minute)
		msg := &models.Message{
			ChatID:    chat.ID,
			SenderID:  sender.ID,
			Content:   gofakeit.Sentence(3 + f.rng.Intn(10)),
			Read:      read,
			CreatedAt: at,
		}
		if err := f.db.Create(msg).Error; err != nil {
			return nil, fmt.Errorf("create message: %w", err)
		}
		lastMessageAt = at
	}

	for _, u := range []*models.User{a, b} {
		participant := &models.ChatParticipant{
			ChatID:      chat.ID,
			UserID:      u.ID,
			UnreadCount: unread[u.ID],
			LastReadAt:  lastMessageAt,
		}
		if err := f.db.Create(participant).Error; err != nil {
			return nil, fmt.Errorf("create chat participant: %w", err)
		}
	}

	if err := f.db.Model(chat).Update("last_message_at", lastMessageAt).Error; err != nil {
		return nil, fmt.Errorf("update last_message_at: %w", err)
	}
	return chat, nil
}

// CreateActivity persists a feed entry of the given type with details that
// satisfy the type's validation rules.
func (f *Factory) CreateActivity(actor *models.User, typ models.ActivityType, visibility models.ActivityVisibility) (*models.Activity, error) {
	details := f.detailsFor(typ)
	if err := details.Validate(typ); err != nil {
		return nil, err
	}

	activity := &models.Activity{
		ActorID:    actor.ID,
		Type:       typ,
		Details:    details,
		Points:     f.rng.Intn(100),
		Visibility: visibility,
		CreatedAt:  f.pastTime(30),
	}
	if err := f.db.Create(activity).Error; err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}
	return activity, nil
}

func (f *Factory) detailsFor(typ models.ActivityType) models.ActivityDetails {
	switch typ {
	case models.ActivityHabitCompleted:
		return models.ActivityDetails{HabitName: habitNames[f.rng.Intn(len(habitNames))]}
	case models.ActivityStreakAchieved:
		return models.ActivityDetails{
			HabitName:   habitNames[f.rng.Intn(len(habitNames))],
			StreakCount: []int{7, 14, 30, 60, 100}[f.rng.Intn(5)],
		}
	case models.ActivityChallengeCreated, models.ActivityChallengeJoined, models.ActivityChallengeWon:
		return models.ActivityDetails{ChallengeRef: gofakeit.UUID()}
	case models.ActivityFriendAdded:
		return models.ActivityDetails{FriendRef: gofakeit.Username()}
	case models.ActivityAchievementUnlocked:
		return models.ActivityDetails{AchievementName: achievementNames[f.rng.Intn(len(achievementNames))]}
	case models.ActivityLevelUp:
		return models.ActivityDetails{LevelNumber: 1 + f.rng.Intn(50)}
	default:
		return models.ActivityDetails{}
	}
}
