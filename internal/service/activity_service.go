package service

import (
	"context"

	"habitat/internal/middleware"
	"habitat/internal/models"
	"habitat/internal/repository"
)

// ActivityService provides activity record and feed business logic.
type ActivityService struct {
	activityRepo repository.ActivityRepository
	friendRepo   repository.FriendRepository
	userRepo     repository.UserRepository
}

// RecordActivityInput is the input for recording an activity.
type RecordActivityInput struct {
	ActorID    uint
	Type       models.ActivityType
	Details    models.ActivityDetails
	Points     int
	Visibility models.ActivityVisibility
}

// NewActivityService returns a new ActivityService.
func NewActivityService(
	activityRepo repository.ActivityRepository,
	friendRepo repository.FriendRepository,
	userRepo repository.UserRepository,
) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		friendRepo:   friendRepo,
		userRepo:     userRepo,
	}
}

// RecordActivity validates and persists a new activity record. It returns the
// stored record and the friend IDs it should fan out to; private records fan
// out to nobody.
func (s *ActivityService) RecordActivity(ctx context.Context, input RecordActivityInput) (*models.Activity, []uint, error) {
	if err := input.Details.Validate(input.Type); err != nil {
		return nil, nil, err
	}
	if input.Points < 0 {
		return nil, nil, models.NewValidationError("Points must not be negative")
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = models.VisibilityFriends
	}
	if !models.ValidVisibility(visibility) {
		return nil, nil, models.NewValidationError("Unknown visibility scope")
	}

	activity := &models.Activity{
		ActorID:    input.ActorID,
		Type:       input.Type,
		Details:    input.Details,
		Points:     input.Points,
		Visibility: visibility,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, nil, err
	}

	// Fan-out recipients are best-effort; the record itself is durable.
	var recipients []uint
	if visibility != models.VisibilityPrivate {
		ids, err := s.friendRepo.GetFriendIDs(ctx, input.ActorID)
		if err != nil {
			middleware.Logger.Warn("activity fan-out recipients unavailable",
				"actor_id", input.ActorID, "error", err)
		} else {
			recipients = ids
		}
	}
	return activity, recipients, nil
}

// GetFeed assembles the viewer's home feed.
func (s *ActivityService) GetFeed(ctx context.Context, viewerID uint, limit int) ([]models.Activity, error) {
	friendIDs, err := s.friendRepo.GetFriendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return s.activityRepo.GetFeed(ctx, viewerID, friendIDs, limit)
}

// GetUserFeed lists actorID's activities at the visibility the viewer is
// entitled to: everything for the actor themselves, public+friends for
// friends, public only for everyone else.
func (s *ActivityService) GetUserFeed(ctx context.Context, viewerID, actorID uint, limit int) ([]models.Activity, error) {
	if _, err := s.userRepo.GetByID(ctx, actorID); err != nil {
		return nil, err
	}

	scopes := []models.ActivityVisibility{models.VisibilityPublic}
	if viewerID == actorID {
		scopes = append(scopes, models.VisibilityFriends, models.VisibilityPrivate)
	} else {
		ok, err := s.friendRepo.AreFriends(ctx, viewerID, actorID)
		if err != nil {
			return nil, err
		}
		if ok {
			scopes = append(scopes, models.VisibilityFriends)
		}
	}
	return s.activityRepo.GetUserFeed(ctx, actorID, scopes, limit)
}

// SetVisibility changes the scope of one of the caller's own records.
func (s *ActivityService) SetVisibility(ctx context.Context, userID, activityID uint, visibility models.ActivityVisibility) (*models.Activity, error) {
	if !models.ValidVisibility(visibility) {
		return nil, models.NewValidationError("Unknown visibility scope")
	}
	if err := s.activityRepo.UpdateVisibility(ctx, activityID, userID, visibility); err != nil {
		return nil, err
	}
	return s.activityRepo.GetByID(ctx, activityID)
}

// DeleteActivity removes one of the caller's own records.
func (s *ActivityService) DeleteActivity(ctx context.Context, userID, activityID uint) error {
	return s.activityRepo.Delete(ctx, activityID, userID)
}
