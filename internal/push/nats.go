package push

import (
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Options configures the NATS connection.
type Options struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

// NATS implements Transport over a NATS connection. Reconnects are
// handled entirely by the client library; subscriptions survive them.
type NATS struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// Connect establishes the push connection.
func Connect(opts Options, logger *zap.Logger) (*NATS, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := nats.Connect(opts.URL,
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("push connection lost", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("push connection restored", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}
	return &NATS{conn: conn, logger: logger}, nil
}

// Subscribe registers a handler for a subject. NATS delivers messages
// for a single subscription serially, which gives the per-channel
// in-order application the sync layer relies on.
func (n *NATS) Subscribe(subject string, handler func(data []byte)) (Unsubscribe, error) {
	sub, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Close drains and closes the connection.
func (n *NATS) Close() {
	n.conn.Close()
}
