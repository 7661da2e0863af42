package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/LinkNexus/instachat/internal/store"
)

// ListConversations fetches the conversation list ordered by most
// recent activity, paginated by offset.
func (c *Client) ListConversations(ctx context.Context, offset int) ([]store.Conversation, error) {
	var out []store.Conversation
	q := url.Values{"offset": {strconv.Itoa(offset)}}
	if err := c.do(ctx, http.MethodGet, "/api/conversations", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetConversation bootstraps a single conversation with its partner,
// latest messages and unread count.
func (c *Client) GetConversation(ctx context.Context, partnerID int) (store.Conversation, error) {
	var out store.Conversation
	path := fmt.Sprintf("/api/conversations/friends/%d", partnerID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return store.Conversation{}, err
	}
	return out, nil
}

// ListContacts fetches the friends available for new conversations.
func (c *Client) ListContacts(ctx context.Context) ([]store.User, error) {
	var out struct {
		Friends []store.User `json:"friends"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/conversations/contacts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Friends, nil
}

// ListMessages fetches an older page of a conversation, newest-first.
func (c *Client) ListMessages(ctx context.Context, partnerID, offset int) ([]store.Message, error) {
	var out []store.Message
	q := url.Values{
		"partnerId": {strconv.Itoa(partnerID)},
		"offset":    {strconv.Itoa(offset)},
	}
	if err := c.do(ctx, http.MethodGet, "/api/messages", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage creates a message addressed to the partner. clientID is
// the correlation id echoed back on the confirmation and the push echo;
// repliedMessageID is zero when the message is not a reply.
func (c *Client) SendMessage(ctx context.Context, partnerID, repliedMessageID int, content, clientID string) (store.Message, error) {
	var out store.Message
	q := url.Values{
		"partnerId":        {strconv.Itoa(partnerID)},
		"repliedMessageId": {strconv.Itoa(repliedMessageID)},
	}
	body := map[string]string{
		"content":  content,
		"clientId": clientID,
	}
	if err := c.do(ctx, http.MethodPost, "/api/messages", q, body, &out); err != nil {
		return store.Message{}, err
	}
	return out, nil
}

// UpdateMessage edits a message's content; the server sets editedAt and
// modifiedAt.
func (c *Client) UpdateMessage(ctx context.Context, messageID int, content string) (store.Message, error) {
	var out store.Message
	path := fmt.Sprintf("/api/messages/%d", messageID)
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPut, path, nil, body, &out); err != nil {
		return store.Message{}, err
	}
	return out, nil
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, messageID int) error {
	path := fmt.Sprintf("/api/messages/%d", messageID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// MarkRead marks all unread messages from the partner as read and
// triggers the partner's read-receipt push.
func (c *Client) MarkRead(ctx context.Context, partnerID int) error {
	q := url.Values{"partnerId": {strconv.Itoa(partnerID)}}
	return c.do(ctx, http.MethodGet, "/api/messages/read", q, nil, nil)
}

// CreateFriendRequest sends (or reactivates) a friend request.
func (c *Client) CreateFriendRequest(ctx context.Context, targetUserID int) (store.FriendRequest, error) {
	var out store.FriendRequest
	q := url.Values{"targetUserId": {strconv.Itoa(targetUserID)}}
	if err := c.do(ctx, http.MethodPost, "/api/friend-requests", q, nil, &out); err != nil {
		return store.FriendRequest{}, err
	}
	return out, nil
}

// AcceptFriendRequest accepts a pending request addressed to the
// current user.
func (c *Client) AcceptFriendRequest(ctx context.Context, requestID int) (store.FriendRequest, error) {
	var out store.FriendRequest
	path := fmt.Sprintf("/api/friend-requests/%d/accept", requestID)
	if err := c.do(ctx, http.MethodPut, path, nil, nil, &out); err != nil {
		return store.FriendRequest{}, err
	}
	return out, nil
}

// CancelFriendRequest cancels a sent request or rejects a pending one.
func (c *Client) CancelFriendRequest(ctx context.Context, requestID int) error {
	path := fmt.Sprintf("/api/friend-requests/%d", requestID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// ListFriendRequests fetches one category bucket, paginated by offset.
func (c *Client) ListFriendRequests(ctx context.Context, category store.Category, offset int) ([]store.FriendRequest, error) {
	var out []store.FriendRequest
	q := url.Values{
		"category": {string(category)},
		"offset":   {strconv.Itoa(offset)},
	}
	if err := c.do(ctx, http.MethodGet, "/api/friend-requests", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FriendRequestCounts fetches the per-category totals.
func (c *Client) FriendRequestCounts(ctx context.Context) (map[store.Category]int, error) {
	var out map[store.Category]int
	if err := c.do(ctx, http.MethodGet, "/api/friend-requests/count", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
