// Package realtime applies server-pushed events to the store. The
// transport may deliver an event more than once; the store's dedup
// rules make application effectively at-most-once, so the send path
// and the push path can both see the same logical message without
// disagreeing.
package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LinkNexus/instachat/internal/bus"
	"github.com/LinkNexus/instachat/internal/notify"
	"github.com/LinkNexus/instachat/internal/push"
	"github.com/LinkNexus/instachat/internal/status"
	"github.com/LinkNexus/instachat/internal/store"
	"go.uber.org/zap"
)

// ReadMarker is the slice of the conversation service the sync needs
// for the mark-as-read side effect.
type ReadMarker interface {
	MarkRead(ctx context.Context, partnerID int) error
}

// Sync owns exactly one subscription per push channel for the session.
// It opens them on Start with a present user and closes all of them,
// including the visibility listener, on Stop, so repeated
// start/stop cycles leak nothing.
type Sync struct {
	store      *store.Store
	transport  push.Transport
	reader     ReadMarker
	bus        *bus.Bus
	sink       notify.Sink
	visibility notify.Visibility
	user       store.User
	logger     *zap.Logger

	messages *status.Machine
	requests *status.Machine

	mu          sync.Mutex
	unsubs      []func()
	openPartner int
	visible     bool
	cancel      context.CancelFunc
}

// New creates a sync engine for the given session user.
func New(
	st *store.Store,
	transport push.Transport,
	reader ReadMarker,
	b *bus.Bus,
	sink notify.Sink,
	visibility notify.Visibility,
	user store.User,
	logger *zap.Logger,
) *Sync {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = notify.NopSink{}
	}
	if visibility == nil {
		visibility = notify.StaticVisibility(true)
	}
	return &Sync{
		store:      st,
		transport:  transport,
		reader:     reader,
		bus:        b,
		sink:       sink,
		visibility: visibility,
		user:       user,
		logger:     logger,
		messages:   status.NewMachine("messages", b),
		requests:   status.NewMachine("friend-requests", b),
	}
}

// Start opens the per-user channel subscriptions and the visibility
// listener. Calling Start on a running sync is an error.
func (s *Sync) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return fmt.Errorf("realtime sync already started")
	}
	ctx, s.cancel = context.WithCancel(ctx)

	_ = s.messages.Transition(status.Connecting)
	_ = s.requests.Transition(status.Connecting)

	s.visible = s.visibility.Visible()
	cancelVis := s.visibility.OnChange(func(visible bool) {
		s.mu.Lock()
		s.visible = visible
		s.mu.Unlock()
	})
	s.unsubs = append(s.unsubs, cancelVis)

	subs := []struct {
		subject string
		handler func([]byte)
	}{
		{push.MessagesTopic(s.user.ID), s.handleMessageEvent},
		{push.FriendRequestsTopic(s.user.ID), s.handleFriendRequestEvent},
		{push.ReadReceiptsTopic(s.user.ID), s.handleReadReceipt},
	}
	for _, sub := range subs {
		unsub, err := s.transport.Subscribe(sub.subject, sub.handler)
		if err != nil {
			s.teardownLocked()
			return fmt.Errorf("subscribe %s: %w", sub.subject, err)
		}
		s.unsubs = append(s.unsubs, unsub)
	}

	// The store announces first insertions of partner messages on the
	// bus; when one lands in the conversation that is open and visible,
	// confirm the read with the server immediately instead of waiting
	// for the user to act.
	ch, unsubBus := s.bus.Subscribe("chat.", 64)
	s.unsubs = append(s.unsubs, unsubBus)
	go s.readLoop(ctx, ch)

	_ = s.messages.Transition(status.Open)
	_ = s.requests.Transition(status.Open)
	s.logger.Info("realtime sync started", zap.Int("user_id", s.user.ID))
	return nil
}

// Stop closes every subscription and listener. Safe to call once after
// Start; subsequent calls are no-ops.
func (s *Sync) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
}

func (s *Sync) teardownLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	if s.messages.Current() != status.Closed {
		_ = s.messages.Transition(status.Closed)
	}
	if s.requests.Current() != status.Closed {
		_ = s.requests.Transition(status.Closed)
	}
	s.logger.Info("realtime sync stopped")
}

// SetOpenConversation records which partner's conversation is on
// screen; zero means none. Notifications are suppressed and reads
// auto-confirmed for the open, visible conversation.
func (s *Sync) SetOpenConversation(partnerID int) {
	s.mu.Lock()
	s.openPartner = partnerID
	s.mu.Unlock()
}

// ChannelState exposes the state of the named channel ("messages" or
// "friend-requests").
func (s *Sync) ChannelState(channel string) status.State {
	if channel == "friend-requests" {
		return s.requests.Current()
	}
	return s.messages.Current()
}

func (s *Sync) readLoop(ctx context.Context, ch <-chan bus.Event) {
	for {
		select {
		case evt := <-ch:
			added, ok := evt.Payload.(bus.MessageAdded)
			if !ok || evt.Kind != bus.KindMessageAdded {
				continue
			}
			s.mu.Lock()
			confirm := added.PartnerID == s.openPartner && s.openPartner != 0 && s.visible
			s.mu.Unlock()
			if !confirm {
				continue
			}
			rctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := s.reader.MarkRead(rctx, added.PartnerID); err != nil {
				s.logger.Warn("auto mark read failed",
					zap.Int("partner_id", added.PartnerID), zap.Error(err))
			}
			cancel()
		case <-ctx.Done():
			return
		}
	}
}
