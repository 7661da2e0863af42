package api

import (
	"context"
	"fmt"

	"github.com/LinkNexus/instachat/internal/store"
	"go.uber.org/zap"
)

// ConversationService orchestrates conversation fetches against the
// store. Fetch results are applied with the store's first-writer-wins
// and dedup rules, so a slow response racing live push events cannot
// clobber fresher state.
type ConversationService struct {
	client *Client
	store  *store.Store
	logger *zap.Logger
}

// NewConversationService creates the service.
func NewConversationService(client *Client, st *store.Store, logger *zap.Logger) *ConversationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationService{client: client, store: st, logger: logger}
}

// Bootstrap loads the conversation list page at the given offset into
// the store.
func (s *ConversationService) Bootstrap(ctx context.Context, offset int) error {
	convs, err := s.client.ListConversations(ctx, offset)
	if err != nil {
		return fmt.Errorf("bootstrap conversations: %w", err)
	}
	for _, c := range convs {
		s.store.AddConversation(c)
	}
	return nil
}

// Open performs the initial full fetch for one conversation: store it,
// mark it loaded and, when it carries unread messages, mark them read
// on the server before applying the read locally. ErrNotFound
// propagates untouched so the caller can render the not-found state.
func (s *ConversationService) Open(ctx context.Context, partnerID int) error {
	c, err := s.client.GetConversation(ctx, partnerID)
	if err != nil {
		return err
	}
	c.Loaded = true
	s.store.AddConversation(c)
	s.store.SwitchMessagesLoaded(partnerID)

	if current, ok := s.store.Conversation(partnerID); ok && current.UnreadCount > 0 {
		if err := s.MarkRead(ctx, partnerID); err != nil {
			s.logger.Warn("mark read after open failed",
				zap.Int("partner_id", partnerID), zap.Error(err))
		}
	}
	return nil
}

// LoadOlder fetches the next older page for a conversation and prepends
// it. At most one page fetch per conversation is in flight; a call
// arriving while one is outstanding is a no-op.
func (s *ConversationService) LoadOlder(ctx context.Context, partnerID int) error {
	if !s.store.BeginPageLoad(partnerID) {
		return nil
	}
	defer s.store.EndPageLoad(partnerID)

	conv, ok := s.store.Conversation(partnerID)
	if !ok {
		return nil
	}
	if len(conv.Messages) >= conv.Count {
		return nil
	}

	page, err := s.client.ListMessages(ctx, partnerID, len(conv.Messages))
	if err != nil {
		return fmt.Errorf("load older messages: %w", err)
	}
	s.store.PrependMessages(partnerID, page)
	return nil
}

// MarkRead marks the partner's messages read on the server and, on
// success, applies the read locally so server and client converge
// without waiting for a push round-trip.
func (s *ConversationService) MarkRead(ctx context.Context, partnerID int) error {
	if err := s.client.MarkRead(ctx, partnerID); err != nil {
		return err
	}
	s.store.ReadMessages(partnerID)
	return nil
}

// EditMessage updates a message's content and applies the confirmed
// result.
func (s *ConversationService) EditMessage(ctx context.Context, messageID int, content string) error {
	updated, err := s.client.UpdateMessage(ctx, messageID, content)
	if err != nil {
		return err
	}
	s.store.UpdateMessage(updated)
	return nil
}

// DeleteMessage removes a message on the server then locally.
func (s *ConversationService) DeleteMessage(ctx context.Context, messageID int) error {
	if err := s.client.DeleteMessage(ctx, messageID); err != nil {
		return err
	}
	s.store.DeleteMessage(messageID)
	return nil
}

// LoadContacts fetches the contacts list once.
func (s *ConversationService) LoadContacts(ctx context.Context) error {
	if s.store.Contacts().Loaded {
		return nil
	}
	friends, err := s.client.ListContacts(ctx)
	if err != nil {
		return fmt.Errorf("load contacts: %w", err)
	}
	s.store.AddContacts(friends)
	return nil
}
