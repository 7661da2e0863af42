// Package outbox is the optimistic send path. Every locally-created
// message gets a client-generated correlation id before it leaves; the
// server confirmation and the push echo carry the same id, so the
// store can reconcile all three sightings of one logical message into
// a single entry.
package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/LinkNexus/instachat/internal/bus"
	"github.com/LinkNexus/instachat/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Entry statuses.
const (
	StatusQueued  = "queued"
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// MessageSender is the slice of the API client the outbox needs.
type MessageSender interface {
	SendMessage(ctx context.Context, partnerID, repliedMessageID int, content, clientID string) (store.Message, error)
}

// Entry is a pending outgoing message.
type Entry struct {
	ClientID         string
	PartnerID        int
	RepliedMessageID int
	Content          string
	Status           string
	Err              string
}

// Sender drains queued entries and sends them through the API. An
// optimistic message appears in the store on enqueue; the confirmation
// replaces it via correlation id, and a failure withdraws it and
// publishes a retryable outbox.failed event carrying the content.
type Sender struct {
	mu      sync.Mutex
	entries []*Entry

	client MessageSender
	store  *store.Store
	self   store.User
	bus    *bus.Bus
	logger *zap.Logger

	wake   chan struct{}
	cancel context.CancelFunc
}

// NewSender creates an outbox sender for the current user.
func NewSender(client MessageSender, st *store.Store, self store.User, b *bus.Bus, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		client: client,
		store:  st,
		self:   self,
		bus:    b,
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// Enqueue queues a message for sending and applies the optimistic
// entry to the conversation. Returns the correlation id.
func (s *Sender) Enqueue(partnerID int, content string, repliedMessageID int) string {
	clientID := uuid.NewString()
	ts := time.Now()

	s.store.AddMessage(partnerID, store.Message{
		ClientID:   clientID,
		Content:    content,
		Sender:     s.self,
		CreatedAt:  ts,
		ModifiedAt: ts,
	})

	s.mu.Lock()
	s.entries = append(s.entries, &Entry{
		ClientID:         clientID,
		PartnerID:        partnerID,
		RepliedMessageID: repliedMessageID,
		Content:          content,
		Status:           StatusQueued,
	})
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return clientID
}

// Start begins draining the queue.
func (s *Sender) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop stops the drain loop. Queued entries stay queued.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Sender) loop(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.wake:
			s.processQueued(ctx)
		case <-ticker.C:
			s.processQueued(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sender) processQueued(ctx context.Context) {
	for {
		entry := s.nextQueued()
		if entry == nil {
			return
		}
		s.send(ctx, entry)
	}
}

func (s *Sender) nextQueued() *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.Status == StatusQueued {
			e.Status = StatusSending
			return e
		}
	}
	return nil
}

func (s *Sender) send(ctx context.Context, entry *Entry) {
	confirmed, err := s.client.SendMessage(ctx, entry.PartnerID, entry.RepliedMessageID, entry.Content, entry.ClientID)
	if err != nil {
		s.logger.Error("send failed",
			zap.String("client_id", entry.ClientID),
			zap.Int("partner_id", entry.PartnerID),
			zap.Error(err),
		)
		s.setStatus(entry, StatusFailed, err.Error())
		s.store.DropUnconfirmed(entry.PartnerID, entry.ClientID)
		s.publish(bus.KindOutboxFailed, Failure{
			ClientID:  entry.ClientID,
			PartnerID: entry.PartnerID,
			Content:   entry.Content,
			Err:       err.Error(),
		})
		return
	}

	s.setStatus(entry, StatusSent, "")
	s.store.AddMessage(entry.PartnerID, confirmed)
	s.logger.Info("message sent",
		zap.String("client_id", entry.ClientID),
		zap.Int("message_id", confirmed.ID),
	)
	s.publish(bus.KindOutboxSent, Ack{
		ClientID:  entry.ClientID,
		MessageID: confirmed.ID,
	})
}

// Retry re-queues a failed entry by correlation id and reapplies its
// optimistic message.
func (s *Sender) Retry(clientID string) bool {
	s.mu.Lock()
	var entry *Entry
	for _, e := range s.entries {
		if e.ClientID == clientID && e.Status == StatusFailed {
			entry = e
			break
		}
	}
	if entry == nil {
		s.mu.Unlock()
		return false
	}
	entry.Status = StatusQueued
	entry.Err = ""
	s.mu.Unlock()

	ts := time.Now()
	s.store.AddMessage(entry.PartnerID, store.Message{
		ClientID:   entry.ClientID,
		Content:    entry.Content,
		Sender:     s.self,
		CreatedAt:  ts,
		ModifiedAt: ts,
	})
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// Pending returns a copy of entries not yet sent.
func (s *Sender) Pending() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for _, e := range s.entries {
		if e.Status != StatusSent {
			out = append(out, *e)
		}
	}
	return out
}

func (s *Sender) setStatus(entry *Entry, status, errMsg string) {
	s.mu.Lock()
	entry.Status = status
	entry.Err = errMsg
	s.mu.Unlock()
}

func (s *Sender) publish(kind string, payload any) {
	if s.bus != nil {
		s.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
	}
}

// Ack is the payload of outbox.sent events.
type Ack struct {
	ClientID  string
	MessageID int
}

// Failure is the payload of outbox.failed events. Content rides along
// so the compose surface can offer a retry without re-asking the user.
type Failure struct {
	ClientID  string
	PartnerID int
	Content   string
	Err       string
}
