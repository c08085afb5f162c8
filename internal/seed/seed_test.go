package seed

import (
	"testing"

	"habitat/internal/database"
	"habitat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestSeedSocialMesh(t *testing.T) {
	db := newTestDB(t)
	s := NewSeeder(db)

	users, err := s.SeedSocialMesh(20)
	require.NoError(t, err)
	require.Len(t, users, 20)

	// Every friendship edge is canonical and unique.
	var edges []models.Friendship
	require.NoError(t, db.Find(&edges).Error)
	require.NotEmpty(t, edges)
	seen := make(map[[2]uint]bool)
	for _, e := range edges {
		assert.Less(t, e.UserLoID, e.UserHiID)
		key := [2]uint{e.UserLoID, e.UserHiID}
		assert.False(t, seen[key], "duplicate edge %v", key)
		seen[key] = true
	}

	// Every chat has exactly two participant rows.
	var chats []models.Chat
	require.NoError(t, db.Find(&chats).Error)
	for _, ch := range chats {
		var count int64
		require.NoError(t, db.Model(&models.ChatParticipant{}).
			Where("chat_id = ?", ch.ID).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	}

	// Every activity passes its own type validation.
	var activities []models.Activity
	require.NoError(t, db.Find(&activities).Error)
	require.NotEmpty(t, activities)
	for _, a := range activities {
		assert.NoError(t, a.Details.Validate(a.Type))
		assert.True(t, models.ValidVisibility(a.Visibility))
	}
}

func TestClearAll(t *testing.T) {
	db := newTestDB(t)
	s := NewSeeder(db)

	_, err := s.SeedSocialMesh(8)
	require.NoError(t, err)
	require.NoError(t, s.ClearAll())

	var userCount, activityCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Activity{}).Count(&activityCount).Error)
	assert.Zero(t, userCount)
	assert.Zero(t, activityCount)
}

func TestFactoryRespectsSinglePendingInvariant(t *testing.T) {
	db := newTestDB(t)
	f := NewFactory(db)

	a, err := f.CreateUser()
	require.NoError(t, err)
	b, err := f.CreateUser()
	require.NoError(t, err)

	_, err = f.CreatePendingRequest(a, b)
	require.NoError(t, err)
	_, err = f.CreatePendingRequest(a, b)
	assert.Error(t, err, "partial unique index rejects a second pending request")
}
