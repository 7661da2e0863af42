package store

import (
	"sync"

	"github.com/LinkNexus/instachat/internal/bus"
	"go.uber.org/zap"
)

// Store is the single source of truth for conversation and
// friend-request state during a session. It is explicitly constructed
// at session start and torn down at logout; nothing in this package
// holds ambient global state.
//
// All operations are atomic and tolerate races between the send path
// and the push path: duplicate deliveries are absorbed by id-based
// deduplication and lookup misses are silent no-ops, never errors.
type Store struct {
	mu sync.Mutex

	currentUserID int
	conversations []*Conversation
	contacts      Contacts
	requests      map[Category]*RequestBucket

	// pageLoads guards per-conversation backward pagination: at most
	// one older-page fetch may be outstanding per partner.
	pageLoads map[int]bool

	bus    *bus.Bus
	logger *zap.Logger
}

// New creates an empty store for the given current user. The bus
// receives side-channel emissions (first insertion of a partner
// message, read state changes); it may be nil in tests that do not
// observe them.
func New(currentUserID int, b *bus.Bus, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	buckets := make(map[Category]*RequestBucket, len(Categories))
	for _, c := range Categories {
		buckets[c] = &RequestBucket{}
	}
	return &Store{
		currentUserID: currentUserID,
		requests:      buckets,
		pageLoads:     make(map[int]bool),
		bus:           b,
		logger:        logger,
	}
}

// CurrentUserID returns the id of the session owner.
func (s *Store) CurrentUserID() int {
	return s.currentUserID
}

func (s *Store) publish(kind string, payload any) {
	if s.bus != nil {
		s.bus.Publish(bus.Event{Kind: kind, Timestamp: now(), Payload: payload})
	}
}

// find returns the conversation for a partner id, or nil. Caller must
// hold s.mu.
func (s *Store) find(partnerID int) *Conversation {
	for _, c := range s.conversations {
		if c.Partner.ID == partnerID {
			return c
		}
	}
	return nil
}

// snapshot returns a copy of a conversation safe to hand out without
// the lock held. The message slice is copied; nested RepliedMessage
// pointers are shared but never mutated in place by this package.
func snapshot(c *Conversation) Conversation {
	out := *c
	out.Messages = append([]Message(nil), c.Messages...)
	return out
}
