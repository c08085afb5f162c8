package repository

import (
	"fmt"
	"sync/atomic"
	"testing"

	"habitat/internal/database"
	"habitat/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var userSeq uint64

// newTestDB opens a fresh in-memory database with the full schema, including
// the partial pending-request index. TranslateError matches the production
// connection so duplicate-key paths behave identically.
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

// seedUser inserts a directory entry with a unique username and returns it.
func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	n := atomic.AddUint64(&userSeq, 1)
	u := &models.User{
		Username:    fmt.Sprintf("user_%d", n),
		DisplayName: fmt.Sprintf("User %d", n),
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
