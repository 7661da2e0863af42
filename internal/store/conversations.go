package store

import (
	"time"

	"github.com/LinkNexus/instachat/internal/bus"
)

// now is stubbed in tests that assert read timestamps.
var now = time.Now

// AddConversation inserts a conversation if none exists for its partner
// id and is a no-op otherwise. First writer wins: a late-arriving fetch
// result must not clobber a conversation that live events have already
// been applied to.
func (s *Store) AddConversation(c Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(c.Partner.ID) != nil {
		return
	}
	stored := snapshot(&c)
	s.conversations = append(s.conversations, &stored)
	s.publish(bus.KindConversationAdded, c.Partner.ID)
}

// Conversation returns a copy of the conversation for the given partner
// id. The second return value reports whether it exists.
func (s *Store) Conversation(partnerID int) (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.find(partnerID)
	if c == nil {
		return Conversation{}, false
	}
	return snapshot(c), true
}

// Conversations returns a copy of every conversation, in insertion
// order.
func (s *Store) Conversations() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, snapshot(c))
	}
	return out
}

// AddMessage appends a message to a conversation. The call is
// idempotent against duplicate delivery: a message already present by
// server id is left untouched, and a message carrying the correlation
// id of a pending optimistic entry replaces that entry in place instead
// of being appended again. On first insertion the total count is
// incremented and, when the sender is not the current user, the unread
// count is incremented and a message-added event is emitted.
//
// Missing conversations are a silent no-op: the caller may be racing a
// push event against a conversation that was never opened.
func (s *Store) AddMessage(partnerID int, m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.find(partnerID)
	if c == nil {
		return
	}

	for i := range c.Messages {
		if m.ID != 0 && c.Messages[i].ID == m.ID {
			return
		}
		if m.ClientID != "" && c.Messages[i].ClientID == m.ClientID {
			// Server confirmation (or push echo) of an optimistic
			// entry: adopt the authoritative fields, keep the position.
			c.Messages[i] = m
			return
		}
	}

	c.Messages = append(c.Messages, m)
	c.Count++
	if m.Sender.ID != s.currentUserID && m.ReadAt == nil {
		c.UnreadCount++
		s.publish(bus.KindMessageAdded, bus.MessageAdded{PartnerID: partnerID, MessageID: m.ID})
	}
}

// DropUnconfirmed removes an optimistic entry whose send failed,
// identified by correlation id. Entries that already received a server
// id are left alone: the send did reach the server and the confirmed
// message must stay.
func (s *Store) DropUnconfirmed(partnerID int, clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.find(partnerID)
	if c == nil || clientID == "" {
		return
	}
	for i := range c.Messages {
		if c.Messages[i].ClientID == clientID && c.Messages[i].ID == 0 {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			if c.Count > 0 {
				c.Count--
			}
			return
		}
	}
}

// ReadMessages stamps every unread message in the conversation with the
// same read timestamp and resets the unread count. No-op if the
// conversation does not exist.
func (s *Store) ReadMessages(partnerID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.find(partnerID)
	if c == nil {
		return
	}

	t := now()
	for i := range c.Messages {
		if c.Messages[i].ReadAt == nil {
			ts := t
			c.Messages[i].ReadAt = &ts
		}
	}
	c.UnreadCount = 0
	s.publish(bus.KindMessagesRead, partnerID)
}

// DeleteMessage removes the message with the given id from whichever
// conversation contains it. The total count is decremented, and the
// unread count as well when the removed message was still unread and
// authored by the partner, so both stay consistent with the remaining
// list.
func (s *Store) DeleteMessage(messageID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.conversations {
		for i := range c.Messages {
			if c.Messages[i].ID != messageID {
				continue
			}
			removed := c.Messages[i]
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			if c.Count > 0 {
				c.Count--
			}
			if removed.ReadAt == nil && removed.Sender.ID != s.currentUserID && c.UnreadCount > 0 {
				c.UnreadCount--
			}
			return
		}
	}
}

// UpdateMessage replaces the message with the same id wherever it
// lives, preserving its position in the sequence. A read stamp already
// applied locally survives an update payload that lacks one, since
// readAt is set once and never unset. Unknown ids are a silent no-op.
func (s *Store) UpdateMessage(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.conversations {
		for i := range c.Messages {
			if c.Messages[i].ID != m.ID {
				continue
			}
			prevRead := c.Messages[i].ReadAt
			c.Messages[i] = m
			if m.ReadAt == nil && prevRead != nil {
				c.Messages[i].ReadAt = prevRead
			}
			return
		}
	}
}

// PrependMessages inserts an older page at the head of the sequence.
// The input arrives newest-first from the server and is reversed so the
// stored order stays oldest-first; ids already present are skipped.
func (s *Store) PrependMessages(partnerID int, page []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.find(partnerID)
	if c == nil {
		return
	}

	existing := make(map[int]struct{}, len(c.Messages))
	for _, m := range c.Messages {
		existing[m.ID] = struct{}{}
	}

	var head []Message
	for i := len(page) - 1; i >= 0; i-- {
		m := page[i]
		if _, ok := existing[m.ID]; ok {
			continue
		}
		head = append(head, m)
	}
	if len(head) == 0 {
		return
	}
	c.Messages = append(head, c.Messages...)
}

// SwitchMessagesLoaded marks the conversation's initial fetch as
// complete. The transition is one-way for the lifetime of the session.
func (s *Store) SwitchMessagesLoaded(partnerID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.find(partnerID); c != nil {
		c.Loaded = true
	}
}

// BeginPageLoad marks an older-page fetch as in flight for the partner
// and reports whether the caller may proceed. It returns false while a
// prior fetch is still outstanding so concurrent prepends cannot race
// out of order.
func (s *Store) BeginPageLoad(partnerID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pageLoads[partnerID] {
		return false
	}
	s.pageLoads[partnerID] = true
	return true
}

// EndPageLoad clears the in-flight flag. It must be called on both the
// success and failure paths of a page fetch.
func (s *Store) EndPageLoad(partnerID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pageLoads, partnerID)
}

// AddContacts sets the contacts list unless it was already loaded
// (first-writer-wins, same rationale as AddConversation).
func (s *Store) AddContacts(friends []User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.contacts.Loaded {
		return
	}
	s.contacts = Contacts{
		Friends: append([]User(nil), friends...),
		Loaded:  true,
	}
}

// Contacts returns a copy of the contacts list.
func (s *Store) Contacts() Contacts {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Contacts{
		Friends: append([]User(nil), s.contacts.Friends...),
		Loaded:  s.contacts.Loaded,
	}
}
