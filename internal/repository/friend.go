package repository

import (
	"context"

	"habitat/internal/models"

	"gorm.io/gorm"
)

// FriendRepository defines the interface for friendship edge operations
type FriendRepository interface {
	GetBetween(ctx context.Context, userID1, userID2 uint) (*models.Friendship, error)
	GetFriends(ctx context.Context, userID uint) ([]models.Friend, error)
	GetFriendIDs(ctx context.Context, userID uint) ([]uint, error)
	AreFriends(ctx context.Context, userID1, userID2 uint) (bool, error)
	UpdateStatus(ctx context.Context, userID1, userID2 uint, status models.FriendshipStatus) error
	RemoveBetween(ctx context.Context, userID1, userID2 uint) error
}

// friendRepository implements FriendRepository
type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

// GetBetween returns the edge for the unordered pair, or nil when none exists.
func (r *friendRepository) GetBetween(ctx context.Context, userID1, userID2 uint) (*models.Friendship, error) {
	lo, hi := models.CanonicalPair(userID1, userID2)
	var friendship models.Friendship
	err := r.db.WithContext(ctx).
		Where("user_lo_id = ? AND user_hi_id = ?", lo, hi).
		First(&friendship).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &friendship, nil
}

func (r *friendRepository) GetFriends(ctx context.Context, userID uint) ([]models.Friend, error) {
	var friendships []models.Friendship
	err := r.db.WithContext(ctx).
		Where("(user_lo_id = ? OR user_hi_id = ?) AND status = ?",
			userID, userID, models.FriendshipStatusActive).
		Preload("UserLo").
		Preload("UserHi").
		Order("created_at DESC").
		Find(&friendships).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	friends := make([]models.Friend, 0, len(friendships))
	for _, f := range friendships {
		other := f.UserLo
		if f.UserLoID == userID {
			other = f.UserHi
		}
		friends = append(friends, models.Friend{User: other, FriendsAt: f.CreatedAt})
	}
	return friends, nil
}

func (r *friendRepository) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var friendships []models.Friendship
	err := r.db.WithContext(ctx).
		Select("user_lo_id", "user_hi_id").
		Where("(user_lo_id = ? OR user_hi_id = ?) AND status = ?",
			userID, userID, models.FriendshipStatusActive).
		Find(&friendships).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	ids := make([]uint, 0, len(friendships))
	for _, f := range friendships {
		ids = append(ids, f.OtherUser(userID))
	}
	return ids, nil
}

func (r *friendRepository) AreFriends(ctx context.Context, userID1, userID2 uint) (bool, error) {
	friendship, err := r.GetBetween(ctx, userID1, userID2)
	if err != nil {
		return false, err
	}
	return friendship != nil && friendship.Status == models.FriendshipStatusActive, nil
}

func (r *friendRepository) UpdateStatus(ctx context.Context, userID1, userID2 uint, status models.FriendshipStatus) error {
	lo, hi := models.CanonicalPair(userID1, userID2)
	res := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_lo_id = ? AND user_hi_id = ?", lo, hi).
		Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Friendship", hi)
	}
	return nil
}

func (r *friendRepository) RemoveBetween(ctx context.Context, userID1, userID2 uint) error {
	lo, hi := models.CanonicalPair(userID1, userID2)
	res := r.db.WithContext(ctx).
		Where("user_lo_id = ? AND user_hi_id = ?", lo, hi).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Friendship", hi)
	}
	return nil
}
