package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/LinkNexus/instachat/internal/bus"
	"github.com/LinkNexus/instachat/internal/notify"
	"github.com/LinkNexus/instachat/internal/push"
	"github.com/LinkNexus/instachat/internal/status"
	"github.com/LinkNexus/instachat/internal/store"
)

const currentUserID = 1

// fakeTransport records subscriptions and lets tests inject payloads.
type fakeTransport struct {
	mu       sync.Mutex
	handlers map[string]func([]byte)
	unsubbed []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: make(map[string]func([]byte))}
}

func (f *fakeTransport) Subscribe(subject string, handler func([]byte)) (push.Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[subject] = handler
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, subject)
		f.unsubbed = append(f.unsubbed, subject)
	}, nil
}

func (f *fakeTransport) Close() {}

func (f *fakeTransport) deliver(t *testing.T, subject string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	f.mu.Lock()
	handler := f.handlers[subject]
	f.mu.Unlock()
	if handler == nil {
		t.Fatalf("no handler for subject %s", subject)
	}
	handler(data)
}

// fakeSink collects notifications.
type fakeSink struct {
	mu    sync.Mutex
	notes []notify.Notification
}

func (f *fakeSink) Notify(n notify.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, n)
}

func (f *fakeSink) all() []notify.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Notification(nil), f.notes...)
}

// fakeMarker records MarkRead calls.
type fakeMarker struct {
	mu    sync.Mutex
	calls []int
}

func (f *fakeMarker) MarkRead(_ context.Context, partnerID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, partnerID)
	return nil
}

func (f *fakeMarker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fixture struct {
	store     *store.Store
	transport *fakeTransport
	sink      *fakeSink
	marker    *fakeMarker
	sync      *Sync
}

func newFixture(t *testing.T, visible notify.Visibility) *fixture {
	t.Helper()
	b := bus.New()
	st := store.New(currentUserID, b, nil)
	transport := newFakeTransport()
	sink := &fakeSink{}
	marker := &fakeMarker{}
	user := store.User{ID: currentUserID, Name: "Al", Username: "al"}

	s := New(st, transport, marker, b, sink, visible, user, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Stop)

	return &fixture{store: st, transport: transport, sink: sink, marker: marker, sync: s}
}

func messagePayload(event string, id, senderID int, content string) map[string]any {
	return map[string]any{
		"event": event,
		"message": map[string]any{
			"id":         id,
			"content":    content,
			"sender":     map[string]any{"id": senderID, "name": fmt.Sprintf("User %d", senderID)},
			"receiver":   map[string]any{"id": currentUserID, "name": "Al"},
			"createdAt":  "2025-06-01T12:00:00Z",
			"modifiedAt": "2025-06-01T12:00:00Z",
		},
	}
}

func requestPayload(event string, id, requesterID, targetID int, reqStatus string) map[string]any {
	return map[string]any{
		"event": event,
		"request": map[string]any{
			"id":         id,
			"requester":  map[string]any{"id": requesterID, "name": fmt.Sprintf("User %d", requesterID)},
			"targetUser": map[string]any{"id": targetID, "name": fmt.Sprintf("User %d", targetID)},
			"status":     reqStatus,
			"createdAt":  "2025-06-01T10:00:00Z",
		},
	}
}

func TestMessageCreatedSynthesizesConversation(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))

	f.transport.deliver(t, push.MessagesTopic(currentUserID),
		messagePayload("message.created", 100, 2, "hi"))

	c, ok := f.store.Conversation(2)
	if !ok {
		t.Fatal("conversation not synthesized")
	}
	if len(c.Messages) != 1 || c.Messages[0].ID != 100 {
		t.Errorf("messages = %+v", c.Messages)
	}
	if c.UnreadCount != 1 || c.Count != 1 {
		t.Errorf("unreadCount = %d, count = %d, want 1, 1", c.UnreadCount, c.Count)
	}
	if c.Loaded {
		t.Error("synthesized conversation marked loaded")
	}
}

func TestMessageCreatedAppendsToExistingConversation(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))
	f.store.AddConversation(store.Conversation{Partner: store.User{ID: 2, Name: "Bea"}})

	f.transport.deliver(t, push.MessagesTopic(currentUserID),
		messagePayload("message.created", 100, 2, "hi"))

	c, _ := f.store.Conversation(2)
	if len(c.Messages) != 1 {
		t.Errorf("messages = %d, want 1", len(c.Messages))
	}
}

func TestSelfEchoSuppressed(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))
	f.store.AddConversation(store.Conversation{Partner: store.User{ID: 2}})

	f.transport.deliver(t, push.MessagesTopic(currentUserID),
		messagePayload("message.created", 100, currentUserID, "own echo"))

	c, _ := f.store.Conversation(2)
	if len(c.Messages) != 0 {
		t.Errorf("own echo mutated the conversation: %+v", c.Messages)
	}
	if len(f.sink.all()) != 0 {
		t.Error("own echo raised a notification")
	}
}

func TestMessageCreatedNotifiesWhenConversationNotOpen(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))

	f.transport.deliver(t, push.MessagesTopic(currentUserID),
		messagePayload("message.created", 100, 2, "hi"))

	notes := f.sink.all()
	if len(notes) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notes))
	}
	if notes[0].Link != "/chat/friends/2" {
		t.Errorf("link = %q, want deep link to conversation", notes[0].Link)
	}
}

func TestMessageCreatedNotifiesWhenSurfaceHidden(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(false))
	f.sync.SetOpenConversation(2)

	f.transport.deliver(t, push.MessagesTopic(currentUserID),
		messagePayload("message.created", 100, 2, "hi"))

	if len(f.sink.all()) != 1 {
		t.Error("hidden surface should still notify even for the open conversation")
	}
}

func TestMessageCreatedSuppressesNotificationForOpenVisibleConversation(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))
	f.store.AddConversation(store.Conversation{Partner: store.User{ID: 2}})
	f.sync.SetOpenConversation(2)

	f.transport.deliver(t, push.MessagesTopic(currentUserID),
		messagePayload("message.created", 100, 2, "hi"))

	if len(f.sink.all()) != 0 {
		t.Error("open visible conversation raised a notification")
	}
}

func TestOpenVisibleConversationAutoMarksRead(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))
	f.store.AddConversation(store.Conversation{Partner: store.User{ID: 2}})
	f.sync.SetOpenConversation(2)

	f.transport.deliver(t, push.MessagesTopic(currentUserID),
		messagePayload("message.created", 100, 2, "hi"))

	deadline := time.After(time.Second)
	for f.marker.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for auto mark read")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestClosedConversationDoesNotMarkRead(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))
	f.store.AddConversation(store.Conversation{Partner: store.User{ID: 2}})

	f.transport.deliver(t, push.MessagesTopic(currentUserID),
		messagePayload("message.created", 100, 2, "hi"))

	time.Sleep(100 * time.Millisecond)
	if f.marker.count() != 0 {
		t.Error("mark read issued for a conversation that is not open")
	}
}

func TestMessageUpdatedApplied(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))
	f.store.AddConversation(store.Conversation{Partner: store.User{ID: 2}})
	f.transport.deliver(t, push.MessagesTopic(currentUserID),
		messagePayload("message.created", 100, 2, "before"))

	f.transport.deliver(t, push.MessagesTopic(currentUserID),
		messagePayload("message.updated", 100, 2, "after"))

	c, _ := f.store.Conversation(2)
	if c.Messages[0].Content != "after" {
		t.Errorf("content = %q, want after", c.Messages[0].Content)
	}
}

func TestMessageDeletedApplied(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))
	f.store.AddConversation(store.Conversation{Partner: store.User{ID: 2}})
	f.transport.deliver(t, push.MessagesTopic(currentUserID),
		messagePayload("message.created", 100, 2, "doomed"))

	f.transport.deliver(t, push.MessagesTopic(currentUserID),
		messagePayload("message.deleted", 100, 2, "doomed"))

	c, _ := f.store.Conversation(2)
	if len(c.Messages) != 0 {
		t.Errorf("messages = %d, want 0", len(c.Messages))
	}
}

func TestMalformedPayloadDropped(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))

	f.mustHandler(t, push.MessagesTopic(currentUserID))([]byte(`{"event": "message.created"}`))
	f.mustHandler(t, push.MessagesTopic(currentUserID))([]byte(`not json at all`))

	if len(f.store.Conversations()) != 0 {
		t.Error("malformed payload mutated the store")
	}
}

func (f *fixture) mustHandler(t *testing.T, subject string) func([]byte) {
	t.Helper()
	f.transport.mu.Lock()
	defer f.transport.mu.Unlock()
	h := f.transport.handlers[subject]
	if h == nil {
		t.Fatalf("no handler for %s", subject)
	}
	return h
}

func TestFriendRequestCreatedForTarget(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))
	f.store.SetRequestsCount(store.CategoryPending, 0)

	f.transport.deliver(t, push.FriendRequestsTopic(currentUserID),
		requestPayload("friend_request.created", 7, 2, currentUserID, "pending"))

	b := f.store.Requests(store.CategoryPending)
	if len(b.Requests) != 1 || b.Requests[0].ID != 7 {
		t.Fatalf("pending bucket = %+v", b.Requests)
	}
	if b.Count == nil || *b.Count != 1 {
		t.Errorf("pending count = %v, want 1", b.Count)
	}
	notes := f.sink.all()
	if len(notes) != 1 || notes[0].Link != "/friends?tab=pending" {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestFriendRequestCreatedSelfEchoIgnored(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))

	f.transport.deliver(t, push.FriendRequestsTopic(currentUserID),
		requestPayload("friend_request.created", 7, currentUserID, 2, "pending"))

	if len(f.store.Requests(store.CategoryPending).Requests) != 0 {
		t.Error("own created request was filed into pending")
	}
}

func TestFriendRequestAcceptedForRequester(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))
	f.store.AddRequest(store.CategorySent, store.FriendRequest{
		ID:        7,
		Requester: store.User{ID: currentUserID},
		Status:    store.RequestPending,
	})
	f.store.SetRequestsCount(store.CategoryPending, 1)
	f.store.SetRequestsCount(store.CategoryAccepted, 0)

	f.transport.deliver(t, push.FriendRequestsTopic(currentUserID),
		requestPayload("friend_request.accepted", 7, currentUserID, 2, "accepted"))

	if len(f.store.Requests(store.CategorySent).Requests) != 0 {
		t.Error("request still in sent bucket")
	}
	accepted := f.store.Requests(store.CategoryAccepted)
	if len(accepted.Requests) != 1 || accepted.Requests[0].Status != store.RequestAccepted {
		t.Errorf("accepted bucket = %+v", accepted.Requests)
	}
	if accepted.Count == nil || *accepted.Count != 1 {
		t.Errorf("accepted count = %v, want 1", accepted.Count)
	}
	notes := f.sink.all()
	if len(notes) != 1 || notes[0].Link != "/friends?tab=accepted" {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestFriendRequestAcceptedIgnoredForNonRequester(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))

	f.transport.deliver(t, push.FriendRequestsTopic(currentUserID),
		requestPayload("friend_request.accepted", 7, 2, currentUserID, "accepted"))

	if len(f.store.Requests(store.CategoryAccepted).Requests) != 0 {
		t.Error("acceptance applied though current user is not the requester")
	}
}

func TestFriendRequestRejectedForRequester(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))
	f.store.AddRequest(store.CategorySent, store.FriendRequest{
		ID:        7,
		Requester: store.User{ID: currentUserID},
		Status:    store.RequestPending,
	})

	f.transport.deliver(t, push.FriendRequestsTopic(currentUserID),
		requestPayload("friend_request.rejected", 7, currentUserID, 2, "rejected"))

	for _, cat := range store.Categories {
		if len(f.store.Requests(cat).Requests) != 0 {
			t.Errorf("request still present in %s", cat)
		}
	}
	notes := f.sink.all()
	if len(notes) != 1 || notes[0].Link != "" {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestReadReceiptAppliesRead(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))
	f.store.AddConversation(store.Conversation{Partner: store.User{ID: 2}})
	f.store.AddMessage(2, store.Message{ID: 1, Sender: store.User{ID: 2}, Content: "unread"})

	f.transport.deliver(t, push.ReadReceiptsTopic(currentUserID), map[string]any{"partnerId": 2})

	c, _ := f.store.Conversation(2)
	if c.UnreadCount != 0 {
		t.Errorf("unreadCount = %d, want 0 after read receipt", c.UnreadCount)
	}
	if c.Messages[0].ReadAt == nil {
		t.Error("readAt not stamped by read receipt")
	}
}

func TestStopClosesEverySubscription(t *testing.T) {
	b := bus.New()
	st := store.New(currentUserID, b, nil)
	transport := newFakeTransport()
	s := New(st, transport, &fakeMarker{}, b, &fakeSink{}, notify.StaticVisibility(true), store.User{ID: currentUserID}, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.ChannelState("messages") != status.Open {
		t.Errorf("messages channel = %s, want OPEN", s.ChannelState("messages"))
	}

	s.Stop()

	transport.mu.Lock()
	remaining := len(transport.handlers)
	transport.mu.Unlock()
	if remaining != 0 {
		t.Errorf("%d subscriptions leaked after Stop", remaining)
	}
	if s.ChannelState("messages") != status.Closed || s.ChannelState("friend-requests") != status.Closed {
		t.Error("channels not CLOSED after Stop")
	}
}

func TestStartTwiceFails(t *testing.T) {
	b := bus.New()
	st := store.New(currentUserID, b, nil)
	s := New(st, newFakeTransport(), &fakeMarker{}, b, &fakeSink{}, notify.StaticVisibility(true), store.User{ID: currentUserID}, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start succeeded, want error")
	}
}

func TestDuplicateDeliveryAppliedOnce(t *testing.T) {
	f := newFixture(t, notify.StaticVisibility(true))
	f.store.AddConversation(store.Conversation{Partner: store.User{ID: 2}})

	payload := messagePayload("message.created", 100, 2, "hi")
	f.transport.deliver(t, push.MessagesTopic(currentUserID), payload)
	f.transport.deliver(t, push.MessagesTopic(currentUserID), payload)

	c, _ := f.store.Conversation(2)
	if len(c.Messages) != 1 || c.Count != 1 || c.UnreadCount != 1 {
		t.Errorf("duplicate delivery corrupted state: messages=%d count=%d unread=%d",
			len(c.Messages), c.Count, c.UnreadCount)
	}
}
