package service

import (
	"context"

	"habitat/internal/models"
)

type friendRequestRepoStub struct {
	createFn            func(context.Context, *models.FriendRequest) error
	getByIDFn           func(context.Context, uint) (*models.FriendRequest, error)
	getPendingBetweenFn func(context.Context, uint, uint) (*models.FriendRequest, error)
	getPendingForFn     func(context.Context, uint) ([]models.FriendRequest, error)
	getSentByFn         func(context.Context, uint) ([]models.FriendRequest, error)
	acceptFn            func(context.Context, uint) (*models.Friendship, error)
	rejectFn            func(context.Context, uint) error
}

func (s *friendRequestRepoStub) Create(ctx context.Context, req *models.FriendRequest) error {
	return s.createFn(ctx, req)
}
func (s *friendRequestRepoStub) GetByID(ctx context.Context, id uint) (*models.FriendRequest, error) {
	return s.getByIDFn(ctx, id)
}
func (s *friendRequestRepoStub) GetPendingBetween(ctx context.Context, fromID, toID uint) (*models.FriendRequest, error) {
	return s.getPendingBetweenFn(ctx, fromID, toID)
}
func (s *friendRequestRepoStub) GetPendingFor(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.getPendingForFn(ctx, userID)
}
func (s *friendRequestRepoStub) GetSentBy(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.getSentByFn(ctx, userID)
}
func (s *friendRequestRepoStub) Accept(ctx context.Context, id uint) (*models.Friendship, error) {
	return s.acceptFn(ctx, id)
}
func (s *friendRequestRepoStub) Reject(ctx context.Context, id uint) error {
	return s.rejectFn(ctx, id)
}

type friendRepoStub struct {
	getBetweenFn   func(context.Context, uint, uint) (*models.Friendship, error)
	getFriendsFn   func(context.Context, uint) ([]models.Friend, error)
	getFriendIDsFn func(context.Context, uint) ([]uint, error)
	areFriendsFn   func(context.Context, uint, uint) (bool, error)
	updateStatusFn func(context.Context, uint, uint, models.FriendshipStatus) error
	removeFn       func(context.Context, uint, uint) error
}

func (s *friendRepoStub) GetBetween(ctx context.Context, userID1, userID2 uint) (*models.Friendship, error) {
	return s.getBetweenFn(ctx, userID1, userID2)
}
func (s *friendRepoStub) GetFriends(ctx context.Context, userID uint) ([]models.Friend, error) {
	return s.getFriendsFn(ctx, userID)
}
func (s *friendRepoStub) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.getFriendIDsFn(ctx, userID)
}
func (s *friendRepoStub) AreFriends(ctx context.Context, userID1, userID2 uint) (bool, error) {
	return s.areFriendsFn(ctx, userID1, userID2)
}
func (s *friendRepoStub) UpdateStatus(ctx context.Context, userID1, userID2 uint, status models.FriendshipStatus) error {
	return s.updateStatusFn(ctx, userID1, userID2, status)
}
func (s *friendRepoStub) RemoveBetween(ctx context.Context, userID1, userID2 uint) error {
	return s.removeFn(ctx, userID1, userID2)
}

type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	upsertFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	searchFn        func(context.Context, string, int) ([]models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Upsert(ctx context.Context, user *models.User) error {
	return s.upsertFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	return s.searchFn(ctx, query, limit)
}

type chatRepoStub struct {
	getOrCreateFn  func(context.Context, uint, uint) (*models.Chat, error)
	getByIDFn      func(context.Context, uint) (*models.Chat, error)
	getUserChatsFn func(context.Context, uint) ([]*models.Chat, error)
	appendFn       func(context.Context, *models.Message) error
	getMessagesFn  func(context.Context, uint, int, int) ([]*models.Message, error)
	markReadFn     func(context.Context, uint, uint) error
	unreadCountFn  func(context.Context, uint, uint) (int, error)
	unreadTotalFn  func(context.Context, uint) (int, error)
}

func (s *chatRepoStub) GetOrCreate(ctx context.Context, userID1, userID2 uint) (*models.Chat, error) {
	return s.getOrCreateFn(ctx, userID1, userID2)
}
func (s *chatRepoStub) GetByID(ctx context.Context, id uint) (*models.Chat, error) {
	return s.getByIDFn(ctx, id)
}
func (s *chatRepoStub) GetUserChats(ctx context.Context, userID uint) ([]*models.Chat, error) {
	return s.getUserChatsFn(ctx, userID)
}
func (s *chatRepoStub) AppendMessage(ctx context.Context, msg *models.Message) error {
	return s.appendFn(ctx, msg)
}
func (s *chatRepoStub) GetMessages(ctx context.Context, chatID uint, limit, offset int) ([]*models.Message, error) {
	return s.getMessagesFn(ctx, chatID, limit, offset)
}
func (s *chatRepoStub) MarkRead(ctx context.Context, chatID, userID uint) error {
	return s.markReadFn(ctx, chatID, userID)
}
func (s *chatRepoStub) UnreadCount(ctx context.Context, chatID, userID uint) (int, error) {
	return s.unreadCountFn(ctx, chatID, userID)
}
func (s *chatRepoStub) UnreadTotal(ctx context.Context, userID uint) (int, error) {
	return s.unreadTotalFn(ctx, userID)
}

type activityRepoStub struct {
	createFn           func(context.Context, *models.Activity) error
	getByIDFn          func(context.Context, uint) (*models.Activity, error)
	getFeedFn          func(context.Context, uint, []uint, int) ([]models.Activity, error)
	getUserFeedFn      func(context.Context, uint, []models.ActivityVisibility, int) ([]models.Activity, error)
	updateVisibilityFn func(context.Context, uint, uint, models.ActivityVisibility) error
	deleteFn           func(context.Context, uint, uint) error
}

func (s *activityRepoStub) Create(ctx context.Context, activity *models.Activity) error {
	return s.createFn(ctx, activity)
}
func (s *activityRepoStub) GetByID(ctx context.Context, id uint) (*models.Activity, error) {
	return s.getByIDFn(ctx, id)
}
func (s *activityRepoStub) GetFeed(ctx context.Context, viewerID uint, friendIDs []uint, limit int) ([]models.Activity, error) {
	return s.getFeedFn(ctx, viewerID, friendIDs, limit)
}
func (s *activityRepoStub) GetUserFeed(ctx context.Context, actorID uint, visibilities []models.ActivityVisibility, limit int) ([]models.Activity, error) {
	return s.getUserFeedFn(ctx, actorID, visibilities, limit)
}
func (s *activityRepoStub) UpdateVisibility(ctx context.Context, id, actorID uint, visibility models.ActivityVisibility) error {
	return s.updateVisibilityFn(ctx, id, actorID, visibility)
}
func (s *activityRepoStub) Delete(ctx context.Context, id, actorID uint) error {
	return s.deleteFn(ctx, id, actorID)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:        func(context.Context, *models.User) error { return nil },
		upsertFn:        func(context.Context, *models.User) error { return nil },
		getByIDFn:       func(context.Context, uint) (*models.User, error) { return &models.User{}, nil },
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return &models.User{}, nil },
		searchFn:        func(context.Context, string, int) ([]models.User, error) { return nil, nil },
	}
}

func noopFriendRepo() *friendRepoStub {
	return &friendRepoStub{
		getBetweenFn:   func(context.Context, uint, uint) (*models.Friendship, error) { return nil, nil },
		getFriendsFn:   func(context.Context, uint) ([]models.Friend, error) { return nil, nil },
		getFriendIDsFn: func(context.Context, uint) ([]uint, error) { return nil, nil },
		areFriendsFn:   func(context.Context, uint, uint) (bool, error) { return true, nil },
		updateStatusFn: func(context.Context, uint, uint, models.FriendshipStatus) error { return nil },
		removeFn:       func(context.Context, uint, uint) error { return nil },
	}
}

func noopFriendRequestRepo() *friendRequestRepoStub {
	return &friendRequestRepoStub{
		createFn:            func(context.Context, *models.FriendRequest) error { return nil },
		getByIDFn:           func(context.Context, uint) (*models.FriendRequest, error) { return &models.FriendRequest{}, nil },
		getPendingBetweenFn: func(context.Context, uint, uint) (*models.FriendRequest, error) { return nil, nil },
		getPendingForFn:     func(context.Context, uint) ([]models.FriendRequest, error) { return nil, nil },
		getSentByFn:         func(context.Context, uint) ([]models.FriendRequest, error) { return nil, nil },
		acceptFn:            func(context.Context, uint) (*models.Friendship, error) { return &models.Friendship{}, nil },
		rejectFn:            func(context.Context, uint) error { return nil },
	}
}

func noopChatRepo() *chatRepoStub {
	return &chatRepoStub{
		getOrCreateFn:  func(ctx context.Context, a, b uint) (*models.Chat, error) { return &models.Chat{ID: 1}, nil },
		getByIDFn:      func(context.Context, uint) (*models.Chat, error) { return &models.Chat{ID: 1}, nil },
		getUserChatsFn: func(context.Context, uint) ([]*models.Chat, error) { return nil, nil },
		appendFn:       func(context.Context, *models.Message) error { return nil },
		getMessagesFn:  func(context.Context, uint, int, int) ([]*models.Message, error) { return nil, nil },
		markReadFn:     func(context.Context, uint, uint) error { return nil },
		unreadCountFn:  func(context.Context, uint, uint) (int, error) { return 0, nil },
		unreadTotalFn:  func(context.Context, uint) (int, error) { return 0, nil },
	}
}

func noopActivityRepo() *activityRepoStub {
	return &activityRepoStub{
		createFn:  func(context.Context, *models.Activity) error { return nil },
		getByIDFn: func(context.Context, uint) (*models.Activity, error) { return &models.Activity{}, nil },
		getFeedFn: func(context.Context, uint, []uint, int) ([]models.Activity, error) { return nil, nil },
		getUserFeedFn: func(context.Context, uint, []models.ActivityVisibility, int) ([]models.Activity, error) {
			return nil, nil
		},
		updateVisibilityFn: func(context.Context, uint, uint, models.ActivityVisibility) error { return nil },
		deleteFn:           func(context.Context, uint, uint) error { return nil },
	}
}
