// Package notify abstracts the platform capabilities the sync engine
// needs but cannot own: raising user-facing notifications and knowing
// whether the app surface is currently visible. Implementations live
// with whatever display surface embeds the client core; the engine is
// testable against the fakes here.
package notify

import "go.uber.org/zap"

// Notification is a user-facing alert. Link is the in-app navigation
// target opened when the notification is activated; it may be empty.
type Notification struct {
	Title string
	Body  string
	Link  string
}

// Sink receives notifications.
type Sink interface {
	Notify(n Notification)
}

// Visibility reports whether the app surface is visible to the user.
type Visibility interface {
	Visible() bool
	OnChange(fn func(visible bool)) (cancel func())
}

// NopSink discards notifications.
type NopSink struct{}

func (NopSink) Notify(Notification) {}

// LogSink writes notifications to the session log. It is the sink of a
// headless client.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Notify(n Notification) {
	s.Logger.Info("notification",
		zap.String("title", n.Title),
		zap.String("body", n.Body),
		zap.String("link", n.Link),
	)
}

// StaticVisibility is a Visibility with a fixed answer and no change
// events. A headless client is always "visible"; tests use false to
// exercise the hidden-surface path.
type StaticVisibility bool

func (v StaticVisibility) Visible() bool { return bool(v) }

func (StaticVisibility) OnChange(func(visible bool)) (cancel func()) {
	return func() {}
}
