package api

import (
	"context"
	"fmt"

	"github.com/LinkNexus/instachat/internal/store"
	"go.uber.org/zap"
)

// FriendService orchestrates friend-request actions against the store.
// Store mutations happen only after the server confirmed the action.
type FriendService struct {
	client *Client
	store  *store.Store
	logger *zap.Logger
}

// NewFriendService creates the service.
func NewFriendService(client *Client, st *store.Store, logger *zap.Logger) *FriendService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FriendService{client: client, store: st, logger: logger}
}

// Send creates a friend request towards a user and files it in the
// sent bucket. A duplicate request surfaces as a *Error with the
// server's validation message attached; it never reaches the store.
func (s *FriendService) Send(ctx context.Context, targetUserID int) (store.FriendRequest, error) {
	req, err := s.client.CreateFriendRequest(ctx, targetUserID)
	if err != nil {
		return store.FriendRequest{}, err
	}
	s.store.AddRequest(store.CategorySent, req)
	s.store.AlterRequestsCount(store.CategorySent, 1)
	return req, nil
}

// Accept accepts a pending request addressed to the current user and
// moves it to the accepted bucket.
func (s *FriendService) Accept(ctx context.Context, requestID int) error {
	accepted, err := s.client.AcceptFriendRequest(ctx, requestID)
	if err != nil {
		return err
	}
	s.store.MoveRequest(accepted, store.CategoryAccepted)
	s.store.AlterRequestsCount(store.CategoryPending, -1)
	s.store.AlterRequestsCount(store.CategoryAccepted, 1)
	return nil
}

// Cancel withdraws a sent request or rejects a pending one, removing it
// from every bucket. category names the bucket the caller acted from,
// so the matching count is decremented.
func (s *FriendService) Cancel(ctx context.Context, requestID int, category store.Category) error {
	if err := s.client.CancelFriendRequest(ctx, requestID); err != nil {
		return err
	}
	s.store.DeleteRequest(requestID)
	s.store.AlterRequestsCount(category, -1)
	return nil
}

// LoadRequests fetches one category bucket into the store and marks it
// loaded.
func (s *FriendService) LoadRequests(ctx context.Context, category store.Category, offset int) error {
	reqs, err := s.client.ListFriendRequests(ctx, category, offset)
	if err != nil {
		return fmt.Errorf("load %s requests: %w", category, err)
	}
	for _, r := range reqs {
		s.store.AddRequest(category, r)
	}
	s.store.SwitchRequestsLoaded(category)
	return nil
}

// RefreshCounts fetches the per-category totals. This is also the
// baseline that unlocks relative count adjustments.
func (s *FriendService) RefreshCounts(ctx context.Context) error {
	counts, err := s.client.FriendRequestCounts(ctx)
	if err != nil {
		return fmt.Errorf("refresh request counts: %w", err)
	}
	for category, n := range counts {
		s.store.SetRequestsCount(category, n)
	}
	return nil
}
