package seed

import (
	"fmt"
	"log"

	"habitat/internal/models"

	"gorm.io/gorm"
)

var activityTypes = []models.ActivityType{
	models.ActivityHabitCompleted,
	models.ActivityStreakAchieved,
	models.ActivityChallengeCreated,
	models.ActivityChallengeJoined,
	models.ActivityChallengeWon,
	models.ActivityFriendAdded,
	models.ActivityAchievementUnlocked,
	models.ActivityLevelUp,
}

var visibilities = []models.ActivityVisibility{
	models.VisibilityPublic,
	models.VisibilityFriends,
	models.VisibilityFriends, // friends-heavy distribution matches real usage
	models.VisibilityPrivate,
}

// Seeder populates the database with a believable social mesh.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db)}
}

// ClearAll deletes all seeded data in dependency order.
func (s *Seeder) ClearAll() error {
	tables := []string{
		"messages",
		"chat_participants",
		"chats",
		"activities",
		"friend_requests",
		"friendships",
		"users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	log.Println("Database cleared")
	return nil
}

// SeedSocialMesh creates numUsers users joined by a mesh of friendships,
// pending and rejected requests, chats with unread tails, and a spread of
// feed activities. It returns the created users.
func (s *Seeder) SeedSocialMesh(numUsers int) ([]*models.User, error) {
	if numUsers < 4 {
		numUsers = 4
	}

	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	log.Printf("Created %d users", len(users))

	// Friendship mesh: each user links forward to a few neighbors so every
	// pair appears at most once.
	friendPairs := 0
	for i, user := range users {
		degree := 2 + s.factory.rng.Intn(3)
		for d := 1; d <= degree && i+d < len(users); d++ {
			status := models.FriendshipStatusActive
			if s.factory.rng.Intn(20) == 0 {
				status = models.FriendshipStatusBlocked
			}
			if err := s.factory.CreateFriendship(user, users[i+d], status); err != nil {
				return nil, err
			}
			friendPairs++

			// Most friend pairs have an ongoing chat.
			if status == models.FriendshipStatusActive && s.factory.rng.Intn(4) > 0 {
				if _, err := s.factory.CreateChat(user, users[i+d], 3+s.factory.rng.Intn(12)); err != nil {
					return nil, err
				}
			}
		}
	}
	log.Printf("Created %d friendships", friendPairs)

	// A few unresolved and rejected requests between distant users.
	for i := 0; i+7 < len(users); i += 7 {
		if _, err := s.factory.CreatePendingRequest(users[i], users[i+7]); err != nil {
			return nil, err
		}
	}
	for i := 3; i+9 < len(users); i += 9 {
		if err := s.factory.CreateRejectedRequest(users[i], users[i+9]); err != nil {
			return nil, err
		}
	}

	// Feed activities across all types and visibilities.
	activityCount := 0
	for _, user := range users {
		n := 3 + s.factory.rng.Intn(6)
		for j := 0; j < n; j++ {
			typ := activityTypes[s.factory.rng.Intn(len(activityTypes))]
			vis := visibilities[s.factory.rng.Intn(len(visibilities))]
			if _, err := s.factory.CreateActivity(user, typ, vis); err != nil {
				return nil, err
			}
			activityCount++
		}
	}
	log.Printf("Created %d activities", activityCount)

	return users, nil
}
