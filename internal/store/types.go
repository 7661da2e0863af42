package store

import "time"

// User is the partner-facing projection of an account. Email and
// verification flags never appear here.
type User struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// Message is a direct message between two users. ClientID is the
// client-generated correlation id carried through the server
// confirmation and the push echo; it is empty on messages that were
// never sent from this client.
type Message struct {
	ID             int        `json:"id"`
	ClientID       string     `json:"clientId,omitempty"`
	Content        string     `json:"content"`
	Sender         User       `json:"sender"`
	Receiver       User       `json:"receiver"`
	CreatedAt      time.Time  `json:"createdAt"`
	ModifiedAt     time.Time  `json:"modifiedAt"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	EditedAt       *time.Time `json:"editedAt,omitempty"`
	RepliedMessage *Message   `json:"repliedMessage,omitempty"`
}

// Conversation holds the message history with a single partner.
// Messages are ordered oldest-first. Count is the total message count
// on the server, which may exceed len(Messages) while older pages
// remain unfetched. Loaded flips to true once the initial full fetch
// for the conversation has completed.
type Conversation struct {
	Partner     User      `json:"partner"`
	Messages    []Message `json:"messages"`
	UnreadCount int       `json:"unreadCount"`
	Count       int       `json:"count"`
	Loaded      bool      `json:"loaded"`
}

// Contacts is the friends list used to start new conversations.
type Contacts struct {
	Friends []User `json:"friends"`
	Loaded  bool   `json:"loaded"`
}

// RequestStatus is the lifecycle state of a friend request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
	RequestCanceled RequestStatus = "canceled"
)

// Category is the logical bucket a friend request belongs to for the
// current user: accepted (either party), pending (user is target),
// sent (user is requester).
type Category string

const (
	CategoryAccepted Category = "accepted"
	CategoryPending  Category = "pending"
	CategorySent     Category = "sent"
)

// Categories lists all buckets in a stable order.
var Categories = []Category{CategoryAccepted, CategoryPending, CategorySent}

// FriendRequest is a friendship request between two users.
type FriendRequest struct {
	ID         int           `json:"id"`
	Requester  User          `json:"requester"`
	TargetUser User          `json:"targetUser"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// RequestBucket holds the requests of one category. Count is nil until
// the server-side count has been fetched; Loaded flips to true once the
// request list itself has been fetched.
type RequestBucket struct {
	Requests []FriendRequest `json:"requests"`
	Count    *int            `json:"count"`
	Loaded   bool            `json:"loaded"`
}
