// Package events is the decode boundary for server-pushed payloads.
// Wire events are untyped JSON; everything entering the sync engine
// passes through a parser here that validates the event kind and the
// required fields, so malformed payloads are rejected at the edge
// instead of taking a shape by in-code assumption deeper in.
package events

import "github.com/LinkNexus/instachat/internal/store"

// Message channel event kinds.
const (
	MessageCreated = "message.created"
	MessageUpdated = "message.updated"
	MessageDeleted = "message.deleted"
)

// Friend-request channel event kinds.
const (
	FriendRequestCreated  = "friend_request.created"
	FriendRequestAccepted = "friend_request.accepted"
	FriendRequestRejected = "friend_request.rejected"
)

// MessageEvent is a decoded message-channel event.
type MessageEvent struct {
	Event   string        `json:"event"`
	Message store.Message `json:"message"`
}

// FriendRequestEvent is a decoded friend-request-channel event.
type FriendRequestEvent struct {
	Event   string              `json:"event"`
	Request store.FriendRequest `json:"request"`
}

// ReadReceipt tells a sender that the partner has read their messages.
type ReadReceipt struct {
	PartnerID int `json:"partnerId"`
}
