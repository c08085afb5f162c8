package repository

import (
	"context"

	"habitat/internal/models"
	"habitat/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendRequestRepository defines the interface for friend request ledger operations
type FriendRequestRepository interface {
	Create(ctx context.Context, req *models.FriendRequest) error
	GetByID(ctx context.Context, id uint) (*models.FriendRequest, error)
	GetPendingBetween(ctx context.Context, fromID, toID uint) (*models.FriendRequest, error)
	GetPendingFor(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	GetSentBy(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	Accept(ctx context.Context, id uint) (*models.Friendship, error)
	Reject(ctx context.Context, id uint) error
}

// friendRequestRepository implements FriendRequestRepository
type friendRequestRepository struct {
	db *gorm.DB
}

// NewFriendRequestRepository creates a new friend request repository
func NewFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &friendRequestRepository{db: db}
}

// Create inserts a pending request. The partial unique index on
// (from_id, to_id) WHERE status='pending' is the arbiter under concurrency:
// the loser of a double-send race comes back as a Conflict.
func (r *friendRequestRepository) Create(ctx context.Context, req *models.FriendRequest) error {
	defer observability.TrackQuery("insert", "friend_requests")()

	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		if isDuplicate(err) {
			return models.NewConflictError("A pending friend request already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *friendRequestRepository) GetByID(ctx context.Context, id uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := r.db.WithContext(ctx).Preload("From").Preload("To").First(&req, id).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Friend request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *friendRequestRepository) GetPendingBetween(ctx context.Context, fromID, toID uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("from_id = ? AND to_id = ? AND status = ?", fromID, toID, models.FriendRequestStatusPending).
		First(&req).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *friendRequestRepository) GetPendingFor(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("to_id = ? AND status = ?", userID, models.FriendRequestStatusPending).
		Preload("From").
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

func (r *friendRequestRepository) GetSentBy(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("from_id = ? AND status = ?", userID, models.FriendRequestStatusPending).
		Preload("To").
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

// Accept resolves the request and materializes the friendship edge in one
// transaction. The status flip is conditional on the row still being pending;
// zero rows affected means another resolution won, which surfaces as a
// Conflict rather than a second friendship.
func (r *friendRequestRepository) Accept(ctx context.Context, id uint) (*models.Friendship, error) {
	defer observability.TrackQuery("update", "friend_requests")()

	var friendship *models.Friendship
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.FriendRequest
		if err := tx.First(&req, id).Error; err != nil {
			if isNotFound(err) {
				return models.NewNotFoundError("Friend request", id)
			}
			return models.NewInternalError(err)
		}

		res := tx.Model(&models.FriendRequest{}).
			Where("id = ? AND status = ?", id, models.FriendRequestStatusPending).
			Update("status", models.FriendRequestStatusAccepted)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewConflictError("Friend request is no longer pending")
		}

		lo, hi := models.CanonicalPair(req.FromID, req.ToID)
		friendship = &models.Friendship{UserLoID: lo, UserHiID: hi}
		// Two requests between the same pair can race to accept; the edge is
		// idempotent so the second insert is a no-op.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(friendship).Error; err != nil {
			return models.NewInternalError(err)
		}
		if friendship.ID == 0 {
			if err := tx.Where("user_lo_id = ? AND user_hi_id = ?", lo, hi).First(friendship).Error; err != nil {
				return models.NewInternalError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return friendship, nil
}

func (r *friendRequestRepository) Reject(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", id, models.FriendRequestStatusPending).
		Update("status", models.FriendRequestStatusRejected)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("Friend request is no longer pending")
	}
	return nil
}
