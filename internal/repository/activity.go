package repository

import (
	"context"

	"habitat/internal/models"
	"habitat/internal/observability"

	"gorm.io/gorm"
)

const feedLimit = 50

// ActivityRepository defines the interface for activity feed operations
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, id uint) (*models.Activity, error)
	GetFeed(ctx context.Context, viewerID uint, friendIDs []uint, limit int) ([]models.Activity, error)
	GetUserFeed(ctx context.Context, actorID uint, visibilities []models.ActivityVisibility, limit int) ([]models.Activity, error)
	UpdateVisibility(ctx context.Context, id, actorID uint, visibility models.ActivityVisibility) error
	Delete(ctx context.Context, id, actorID uint) error
}

// activityRepository implements ActivityRepository
type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	defer observability.TrackQuery("insert", "activities")()

	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (*models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).Preload("Actor").First(&activity, id).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Activity", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &activity, nil
}

// GetFeed assembles the viewer's home feed: everything of their own plus
// friends' entries that are not private, newest first.
func (r *activityRepository) GetFeed(ctx context.Context, viewerID uint, friendIDs []uint, limit int) ([]models.Activity, error) {
	defer observability.TrackQuery("select", "activities")()

	if limit <= 0 || limit > feedLimit {
		limit = feedLimit
	}

	q := r.db.WithContext(ctx).Preload("Actor").Order("created_at DESC").Limit(limit)
	if len(friendIDs) > 0 {
		q = q.Where("actor_id = ? OR (actor_id IN ? AND visibility IN ?)",
			viewerID, friendIDs,
			[]models.ActivityVisibility{models.VisibilityPublic, models.VisibilityFriends})
	} else {
		q = q.Where("actor_id = ?", viewerID)
	}

	var activities []models.Activity
	if err := q.Find(&activities).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return activities, nil
}

// GetUserFeed lists one actor's activities filtered to the visibility scopes
// the viewer is entitled to.
func (r *activityRepository) GetUserFeed(ctx context.Context, actorID uint, visibilities []models.ActivityVisibility, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > feedLimit {
		limit = feedLimit
	}
	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("actor_id = ? AND visibility IN ?", actorID, visibilities).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return activities, nil
}

// UpdateVisibility is conditional on actor ownership. A zero-row update means
// the record is missing or owned by someone else; ownerGateError tells the two
// apart so a non-actor gets Forbidden rather than NotFound.
func (r *activityRepository) UpdateVisibility(ctx context.Context, id, actorID uint, visibility models.ActivityVisibility) error {
	res := r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("id = ? AND actor_id = ?", id, actorID).
		Update("visibility", visibility)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return r.ownerGateError(ctx, id)
	}
	return nil
}

func (r *activityRepository) Delete(ctx context.Context, id, actorID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND actor_id = ?", id, actorID).
		Delete(&models.Activity{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return r.ownerGateError(ctx, id)
	}
	return nil
}

// ownerGateError resolves a zero-row conditional write against the record's
// existence: Forbidden when the record belongs to another actor, NotFound
// when there is no record at all.
func (r *activityRepository) ownerGateError(ctx context.Context, id uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("id = ?", id).Count(&count).Error; err != nil {
		return models.NewInternalError(err)
	}
	if count > 0 {
		return models.NewForbiddenError("Only the actor may modify this activity")
	}
	return models.NewNotFoundError("Activity", id)
}
