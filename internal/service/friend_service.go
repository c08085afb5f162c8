// Package service provides application business logic (friends, chats, activities).
package service

import (
	"context"
	"strings"

	"habitat/internal/models"
	"habitat/internal/repository"
)

// FriendService provides friend-request and friendship business logic.
type FriendService struct {
	requestRepo repository.FriendRequestRepository
	friendRepo  repository.FriendRepository
	userRepo    repository.UserRepository
}

// NewFriendService returns a new FriendService.
func NewFriendService(
	requestRepo repository.FriendRequestRepository,
	friendRepo repository.FriendRepository,
	userRepo repository.UserRepository,
) *FriendService {
	return &FriendService{
		requestRepo: requestRepo,
		friendRepo:  friendRepo,
		userRepo:    userRepo,
	}
}

// SendRequest records a pending friend request from userID to targetID.
func (s *FriendService) SendRequest(ctx context.Context, userID, targetID uint) (*models.FriendRequest, error) {
	if userID == targetID {
		return nil, models.NewValidationError("Cannot send a friend request to yourself")
	}

	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	edge, err := s.friendRepo.GetBetween(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}
	if edge != nil {
		if edge.Status == models.FriendshipStatusBlocked {
			return nil, models.NewConflictError("Unable to send a friend request to this user")
		}
		return nil, models.NewConflictError("You are already friends with this user")
	}

	// A pending request in the opposite direction resolves the cross-request
	// case here instead of creating a second edge path.
	reverse, err := s.requestRepo.GetPendingBetween(ctx, targetID, userID)
	if err != nil {
		return nil, err
	}
	if reverse != nil {
		return nil, models.NewConflictError("This user has already sent you a friend request")
	}

	req := &models.FriendRequest{FromID: userID, ToID: targetID}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}
	return s.requestRepo.GetByID(ctx, req.ID)
}

// AcceptRequest resolves a pending request addressed to userID and returns the
// resolved request together with the new friendship edge.
func (s *FriendService) AcceptRequest(ctx context.Context, userID, requestID uint) (*models.FriendRequest, *models.Friendship, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	// A request addressed to someone else reads as missing so request
	// existence leaks nothing.
	if req.ToID != userID {
		return nil, nil, models.NewNotFoundError("Friend request", requestID)
	}

	friendship, err := s.requestRepo.Accept(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}

	req, err = s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	return req, friendship, nil
}

// RejectRequest resolves a pending request addressed to userID as rejected.
func (s *FriendService) RejectRequest(ctx context.Context, userID, requestID uint) (*models.FriendRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ToID != userID {
		return nil, models.NewNotFoundError("Friend request", requestID)
	}

	if err := s.requestRepo.Reject(ctx, requestID); err != nil {
		return nil, err
	}
	return s.requestRepo.GetByID(ctx, requestID)
}

// GetPendingRequests returns unresolved requests addressed to userID.
func (s *FriendService) GetPendingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.requestRepo.GetPendingFor(ctx, userID)
}

// GetSentRequests returns unresolved requests sent by userID.
func (s *FriendService) GetSentRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.requestRepo.GetSentBy(ctx, userID)
}

// GetFriends returns userID's active friendships annotated with the edge time.
func (s *FriendService) GetFriends(ctx context.Context, userID uint) ([]models.Friend, error) {
	return s.friendRepo.GetFriends(ctx, userID)
}

// GetFriendIDs returns the IDs of userID's active friends.
func (s *FriendService) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.friendRepo.GetFriendIDs(ctx, userID)
}

// IsFriend reports whether the two users share an active friendship edge.
func (s *FriendService) IsFriend(ctx context.Context, userID, otherID uint) (bool, error) {
	return s.friendRepo.AreFriends(ctx, userID, otherID)
}

// Unfriend removes the friendship edge between userID and otherID.
func (s *FriendService) Unfriend(ctx context.Context, userID, otherID uint) error {
	if userID == otherID {
		return models.NewValidationError("Cannot unfriend yourself")
	}
	return s.friendRepo.RemoveBetween(ctx, userID, otherID)
}

// Block flips the existing edge with otherID to blocked.
func (s *FriendService) Block(ctx context.Context, userID, otherID uint) error {
	if userID == otherID {
		return models.NewValidationError("Cannot block yourself")
	}
	return s.friendRepo.UpdateStatus(ctx, userID, otherID, models.FriendshipStatusBlocked)
}

// Unblock restores a blocked edge with otherID to active.
func (s *FriendService) Unblock(ctx context.Context, userID, otherID uint) error {
	if userID == otherID {
		return models.NewValidationError("Cannot unblock yourself")
	}
	return s.friendRepo.UpdateStatus(ctx, userID, otherID, models.FriendshipStatusActive)
}

// Relationship annotations carried by search results.
const (
	SearchStatusNone            = "none"
	SearchStatusFriends         = "friends"
	SearchStatusPendingSent     = "pending_sent"
	SearchStatusPendingReceived = "pending_received"
)

// UserSearchResult is a directory entry annotated with the viewer's
// relationship to it, so the client can render the right call to action.
type UserSearchResult struct {
	models.User
	FriendshipStatus string `json:"friendship_status"`
	RequestID        uint   `json:"request_id,omitempty"`
}

// SearchUsers finds directory entries by username or display name prefix and
// annotates each with the viewer's friendship status. The viewer's own row is
// excluded.
func (s *FriendService) SearchUsers(ctx context.Context, viewerID uint, query string, limit int) ([]UserSearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, models.NewValidationError("Search query must be at least 2 characters")
	}

	users, err := s.userRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	friendIDs, err := s.friendRepo.GetFriendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	incoming, err := s.requestRepo.GetPendingFor(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	outgoing, err := s.requestRepo.GetSentBy(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	friends := make(map[uint]struct{}, len(friendIDs))
	for _, id := range friendIDs {
		friends[id] = struct{}{}
	}
	received := make(map[uint]uint, len(incoming))
	for _, req := range incoming {
		received[req.FromID] = req.ID
	}
	sent := make(map[uint]uint, len(outgoing))
	for _, req := range outgoing {
		sent[req.ToID] = req.ID
	}

	results := make([]UserSearchResult, 0, len(users))
	for _, u := range users {
		if u.ID == viewerID {
			continue
		}
		res := UserSearchResult{User: u, FriendshipStatus: SearchStatusNone}
		if _, ok := friends[u.ID]; ok {
			res.FriendshipStatus = SearchStatusFriends
		} else if reqID, ok := sent[u.ID]; ok {
			res.FriendshipStatus = SearchStatusPendingSent
			res.RequestID = reqID
		} else if reqID, ok := received[u.ID]; ok {
			res.FriendshipStatus = SearchStatusPendingReceived
			res.RequestID = reqID
		}
		results = append(results, res)
	}
	return results, nil
}
