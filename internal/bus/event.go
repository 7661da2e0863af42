package bus

import "time"

// Event kinds published by the client core. Subscribers filter by
// namespace prefix, e.g. "chat." receives every chat event.
const (
	KindMessageAdded      = "chat.message_added"
	KindConversationAdded = "chat.conversation_added"
	KindMessagesRead      = "chat.messages_read"
	KindChannelStatus     = "sync.channel_status"
	KindOutboxSent        = "outbox.sent"
	KindOutboxFailed      = "outbox.failed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// MessageAdded is the payload of KindMessageAdded. It is emitted once
// per first insertion of a message authored by someone other than the
// current user, never on a duplicate delivery.
type MessageAdded struct {
	PartnerID int
	MessageID int
}
