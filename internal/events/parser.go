package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEvent marks a payload whose event field names no known
// kind. Sync drops and logs these rather than guessing.
var ErrUnknownEvent = errors.New("unknown event kind")

// ParseMessageEvent decodes and validates a message-channel payload.
func ParseMessageEvent(data []byte) (MessageEvent, error) {
	var evt MessageEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return MessageEvent{}, fmt.Errorf("decode message event: %w", err)
	}
	switch evt.Event {
	case MessageCreated, MessageUpdated, MessageDeleted:
	default:
		return MessageEvent{}, fmt.Errorf("%w: %q", ErrUnknownEvent, evt.Event)
	}
	if evt.Message.ID == 0 {
		return MessageEvent{}, fmt.Errorf("message event %s: missing message id", evt.Event)
	}
	if evt.Message.Sender.ID == 0 {
		return MessageEvent{}, fmt.Errorf("message event %s: missing sender", evt.Event)
	}
	return evt, nil
}

// ParseFriendRequestEvent decodes and validates a friend-request
// payload.
func ParseFriendRequestEvent(data []byte) (FriendRequestEvent, error) {
	var evt FriendRequestEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return FriendRequestEvent{}, fmt.Errorf("decode friend request event: %w", err)
	}
	switch evt.Event {
	case FriendRequestCreated, FriendRequestAccepted, FriendRequestRejected:
	default:
		return FriendRequestEvent{}, fmt.Errorf("%w: %q", ErrUnknownEvent, evt.Event)
	}
	if evt.Request.ID == 0 {
		return FriendRequestEvent{}, fmt.Errorf("friend request event %s: missing request id", evt.Event)
	}
	if evt.Request.Requester.ID == 0 {
		return FriendRequestEvent{}, fmt.Errorf("friend request event %s: missing requester", evt.Event)
	}
	return evt, nil
}

// ParseReadReceipt decodes a read-receipt payload.
func ParseReadReceipt(data []byte) (ReadReceipt, error) {
	var r ReadReceipt
	if err := json.Unmarshal(data, &r); err != nil {
		return ReadReceipt{}, fmt.Errorf("decode read receipt: %w", err)
	}
	if r.PartnerID == 0 {
		return ReadReceipt{}, errors.New("read receipt: missing partnerId")
	}
	return r, nil
}
