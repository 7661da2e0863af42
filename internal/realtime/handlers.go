package realtime

import (
	"fmt"

	"github.com/LinkNexus/instachat/internal/events"
	"github.com/LinkNexus/instachat/internal/notify"
	"github.com/LinkNexus/instachat/internal/store"
	"go.uber.org/zap"
)

// handleMessageEvent applies one message-channel event. Events are
// handled synchronously in arrival order; the transport serializes
// deliveries per subject.
func (s *Sync) handleMessageEvent(data []byte) {
	evt, err := events.ParseMessageEvent(data)
	if err != nil {
		s.logger.Warn("dropping malformed message event", zap.Error(err))
		return
	}

	msg := evt.Message
	if msg.Sender.ID == s.user.ID {
		// Own echo: the send path already applied the confirmed result.
		return
	}

	switch evt.Event {
	case events.MessageCreated:
		if _, ok := s.store.Conversation(msg.Sender.ID); ok {
			s.store.AddMessage(msg.Sender.ID, msg)
		} else {
			s.store.AddConversation(store.Conversation{
				Partner:     msg.Sender,
				Messages:    []store.Message{msg},
				UnreadCount: 1,
				Count:       1,
				Loaded:      false,
			})
		}

		s.mu.Lock()
		suppress := s.openPartner == msg.Sender.ID && s.visible
		s.mu.Unlock()
		if !suppress {
			s.sink.Notify(notify.Notification{
				Title: fmt.Sprintf("New Message from %s", msg.Sender.Name),
				Body:  msg.Content,
				Link:  fmt.Sprintf("/chat/friends/%d", msg.Sender.ID),
			})
		}

	case events.MessageUpdated:
		s.store.UpdateMessage(msg)

	case events.MessageDeleted:
		s.store.DeleteMessage(msg.ID)
	}
}

// handleFriendRequestEvent applies one friend-request-channel event.
func (s *Sync) handleFriendRequestEvent(data []byte) {
	evt, err := events.ParseFriendRequestEvent(data)
	if err != nil {
		s.logger.Warn("dropping malformed friend request event", zap.Error(err))
		return
	}

	req := evt.Request
	switch evt.Event {
	case events.FriendRequestCreated:
		// Only the target is told about a new request.
		if req.Requester.ID == s.user.ID {
			return
		}
		s.store.AddRequest(store.CategoryPending, req)
		s.store.AlterRequestsCount(store.CategoryPending, 1)
		s.sink.Notify(notify.Notification{
			Title: fmt.Sprintf("New Friend Request from %s", req.Requester.Name),
			Body:  "You have a new friend request.",
			Link:  "/friends?tab=pending",
		})

	case events.FriendRequestAccepted:
		// Only the requester is told their request was accepted.
		if req.Requester.ID != s.user.ID {
			return
		}
		s.store.MoveRequest(req, store.CategoryAccepted)
		s.store.AlterRequestsCount(store.CategoryPending, -1)
		s.store.AlterRequestsCount(store.CategoryAccepted, 1)
		s.sink.Notify(notify.Notification{
			Title: "Friend Request Accepted",
			Body:  fmt.Sprintf("%s has accepted your friend request.", req.TargetUser.Name),
			Link:  "/friends?tab=accepted",
		})

	case events.FriendRequestRejected:
		if req.Requester.ID != s.user.ID {
			return
		}
		s.store.DeleteRequest(req.ID)
		s.store.AlterRequestsCount(store.CategoryPending, -1)
		s.sink.Notify(notify.Notification{
			Title: "Friend Request Rejected",
			Body:  fmt.Sprintf("%s has rejected your friend request.", req.TargetUser.Name),
		})
	}
}

// handleReadReceipt applies the partner's read confirmation to our
// copy of the conversation.
func (s *Sync) handleReadReceipt(data []byte) {
	receipt, err := events.ParseReadReceipt(data)
	if err != nil {
		s.logger.Warn("dropping malformed read receipt", zap.Error(err))
		return
	}
	s.store.ReadMessages(receipt.PartnerID)
}
