// Package push carries server-pushed events to the client over
// per-user topics. The transport owns its own reconnection policy; the
// sync layer only opens subscriptions on session start and closes them
// on teardown.
package push

// Unsubscribe tears down a single subscription.
type Unsubscribe func()

// Transport is a subscribe-only view of the push connection. Handlers
// for one subject are invoked serially in arrival order.
type Transport interface {
	Subscribe(subject string, handler func(data []byte)) (Unsubscribe, error)
	Close()
}
