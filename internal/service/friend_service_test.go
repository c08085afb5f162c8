package service

import (
	"context"
	"errors"
	"testing"

	"habitat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != code {
		t.Fatalf("expected %s app error, got %#v", code, err)
	}
}

func TestFriendServiceSendRequestSelf(t *testing.T) {
	svc := NewFriendService(noopFriendRequestRepo(), noopFriendRepo(), noopUserRepo())
	_, err := svc.SendRequest(context.Background(), 3, 3)
	assertAppError(t, err, models.CodeValidation)
}

func TestFriendServiceSendRequestUnknownTarget(t *testing.T) {
	users := noopUserRepo()
	users.getByIDFn = func(ctx context.Context, id uint) (*models.User, error) {
		return nil, models.NewNotFoundError("User", id)
	}
	svc := NewFriendService(noopFriendRequestRepo(), noopFriendRepo(), users)
	_, err := svc.SendRequest(context.Background(), 1, 99)
	assertAppError(t, err, models.CodeNotFound)
}

func TestFriendServiceSendRequestAlreadyFriends(t *testing.T) {
	friends := noopFriendRepo()
	friends.getBetweenFn = func(context.Context, uint, uint) (*models.Friendship, error) {
		return &models.Friendship{ID: 7, Status: models.FriendshipStatusActive}, nil
	}
	svc := NewFriendService(noopFriendRequestRepo(), friends, noopUserRepo())
	_, err := svc.SendRequest(context.Background(), 1, 2)
	assertAppError(t, err, models.CodeConflict)
}

func TestFriendServiceSendRequestBlocked(t *testing.T) {
	friends := noopFriendRepo()
	friends.getBetweenFn = func(context.Context, uint, uint) (*models.Friendship, error) {
		return &models.Friendship{ID: 7, Status: models.FriendshipStatusBlocked}, nil
	}
	svc := NewFriendService(noopFriendRequestRepo(), friends, noopUserRepo())
	_, err := svc.SendRequest(context.Background(), 1, 2)
	assertAppError(t, err, models.CodeConflict)
}

func TestFriendServiceSendRequestReversePending(t *testing.T) {
	requests := noopFriendRequestRepo()
	requests.getPendingBetweenFn = func(ctx context.Context, fromID, toID uint) (*models.FriendRequest, error) {
		if fromID == 2 && toID == 1 {
			return &models.FriendRequest{ID: 4, FromID: 2, ToID: 1}, nil
		}
		return nil, nil
	}
	svc := NewFriendService(requests, noopFriendRepo(), noopUserRepo())
	_, err := svc.SendRequest(context.Background(), 1, 2)
	assertAppError(t, err, models.CodeConflict)
}

func TestFriendServiceSendRequestDuplicateConflict(t *testing.T) {
	requests := noopFriendRequestRepo()
	requests.createFn = func(context.Context, *models.FriendRequest) error {
		return models.NewConflictError("A pending friend request already exists")
	}
	svc := NewFriendService(requests, noopFriendRepo(), noopUserRepo())
	_, err := svc.SendRequest(context.Background(), 1, 2)
	assertAppError(t, err, models.CodeConflict)
}

func TestFriendServiceAcceptForeignRequestReadsAsMissing(t *testing.T) {
	requests := noopFriendRequestRepo()
	requests.getByIDFn = func(context.Context, uint) (*models.FriendRequest, error) {
		return &models.FriendRequest{ID: 5, FromID: 10, ToID: 11, Status: models.FriendRequestStatusPending}, nil
	}

	svc := NewFriendService(requests, noopFriendRepo(), noopUserRepo())

	// Neither a bystander nor the sender may resolve.
	_, _, err := svc.AcceptRequest(context.Background(), 12, 5)
	assertAppError(t, err, models.CodeNotFound)

	_, _, err = svc.AcceptRequest(context.Background(), 10, 5)
	assertAppError(t, err, models.CodeNotFound)

	_, err = svc.RejectRequest(context.Background(), 10, 5)
	assertAppError(t, err, models.CodeNotFound)
}

func TestFriendServiceAcceptLostRaceConflict(t *testing.T) {
	requests := noopFriendRequestRepo()
	requests.getByIDFn = func(context.Context, uint) (*models.FriendRequest, error) {
		return &models.FriendRequest{ID: 5, FromID: 10, ToID: 11, Status: models.FriendRequestStatusPending}, nil
	}
	requests.acceptFn = func(context.Context, uint) (*models.Friendship, error) {
		return nil, models.NewConflictError("Friend request is no longer pending")
	}

	svc := NewFriendService(requests, noopFriendRepo(), noopUserRepo())
	_, _, err := svc.AcceptRequest(context.Background(), 11, 5)
	assertAppError(t, err, models.CodeConflict)
}

func TestFriendServiceBlockSelf(t *testing.T) {
	svc := NewFriendService(noopFriendRequestRepo(), noopFriendRepo(), noopUserRepo())
	assertAppError(t, svc.Block(context.Background(), 4, 4), models.CodeValidation)
	assertAppError(t, svc.Unfriend(context.Background(), 4, 4), models.CodeValidation)
}

func TestFriendServiceSearchQueryTooShort(t *testing.T) {
	svc := NewFriendService(noopFriendRequestRepo(), noopFriendRepo(), noopUserRepo())
	_, err := svc.SearchUsers(context.Background(), 1, " a ", 10)
	assertAppError(t, err, models.CodeValidation)
}

func TestFriendServiceSearchAnnotatesRelationship(t *testing.T) {
	const viewerID = uint(1)

	users := noopUserRepo()
	users.searchFn = func(context.Context, string, int) ([]models.User, error) {
		return []models.User{
			{ID: viewerID, Username: "me"},
			{ID: 2, Username: "buddy"},
			{ID: 3, Username: "invited"},
			{ID: 4, Username: "inviter"},
			{ID: 5, Username: "nobody"},
		}, nil
	}

	friends := noopFriendRepo()
	friends.getFriendIDsFn = func(context.Context, uint) ([]uint, error) {
		return []uint{2}, nil
	}

	requests := noopFriendRequestRepo()
	requests.getSentByFn = func(context.Context, uint) ([]models.FriendRequest, error) {
		return []models.FriendRequest{{ID: 31, FromID: viewerID, ToID: 3}}, nil
	}
	requests.getPendingForFn = func(context.Context, uint) ([]models.FriendRequest, error) {
		return []models.FriendRequest{{ID: 41, FromID: 4, ToID: viewerID}}, nil
	}

	svc := NewFriendService(requests, friends, users)
	results, err := svc.SearchUsers(context.Background(), viewerID, "bu", 10)
	require.NoError(t, err)
	require.Len(t, results, 4)

	byID := make(map[uint]UserSearchResult, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}
	assert.NotContains(t, byID, viewerID)
	assert.Equal(t, SearchStatusFriends, byID[2].FriendshipStatus)
	assert.Equal(t, SearchStatusPendingSent, byID[3].FriendshipStatus)
	assert.Equal(t, uint(31), byID[3].RequestID)
	assert.Equal(t, SearchStatusPendingReceived, byID[4].FriendshipStatus)
	assert.Equal(t, uint(41), byID[4].RequestID)
	assert.Equal(t, SearchStatusNone, byID[5].FriendshipStatus)
	assert.Zero(t, byID[5].RequestID)
}
