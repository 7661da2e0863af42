// Package client composes the session: one store, one sync engine, one
// outbox, created at session start and torn down together. Nothing
// here is a process-wide singleton; embedding surfaces receive the
// pieces through injection.
package client

import (
	"context"
	"time"

	"github.com/LinkNexus/instachat/internal/api"
	"github.com/LinkNexus/instachat/internal/bus"
	"github.com/LinkNexus/instachat/internal/config"
	"github.com/LinkNexus/instachat/internal/lock"
	"github.com/LinkNexus/instachat/internal/logging"
	"github.com/LinkNexus/instachat/internal/notify"
	"github.com/LinkNexus/instachat/internal/outbox"
	"github.com/LinkNexus/instachat/internal/push"
	"github.com/LinkNexus/instachat/internal/realtime"
	"github.com/LinkNexus/instachat/internal/session"
	"github.com/LinkNexus/instachat/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx
// module.
type Params struct {
	SessionName string
	ConfigPath  string // optional override for testing; empty = global path
}

// Module returns the fx module for a session client, composing all
// providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("client",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideLock,
			provideStore,
			provideTransport,
			provideAPIClient,
			provideConversationService,
			provideFriendService,
			provideSink,
			provideVisibility,
			provideSync,
			provideSender,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = session.ConfigPath()
	}
	return config.Load(path)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideStore(cfg *config.Config, b *bus.Bus, logger *zap.Logger) *store.Store {
	return store.New(cfg.User.ID, b, logger)
}

func provideTransport(cfg *config.Config, logger *zap.Logger) (*push.NATS, error) {
	return push.Connect(push.Options{
		URL:           cfg.PushURL,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}, logger)
}

func provideAPIClient(cfg *config.Config, logger *zap.Logger) (*api.Client, error) {
	return api.NewClient(cfg.ServerURL, logger)
}

func provideConversationService(c *api.Client, st *store.Store, logger *zap.Logger) *api.ConversationService {
	return api.NewConversationService(c, st, logger)
}

func provideFriendService(c *api.Client, st *store.Store, logger *zap.Logger) *api.FriendService {
	return api.NewFriendService(c, st, logger)
}

func provideSink(cfg *config.Config, logger *zap.Logger) notify.Sink {
	if !cfg.Notifications {
		return notify.NopSink{}
	}
	return notify.LogSink{Logger: logger}
}

func provideVisibility() notify.Visibility {
	// Headless client: there is no surface to hide.
	return notify.StaticVisibility(true)
}

func provideSync(
	cfg *config.Config,
	st *store.Store,
	transport *push.NATS,
	convs *api.ConversationService,
	b *bus.Bus,
	sink notify.Sink,
	visibility notify.Visibility,
	logger *zap.Logger,
) *realtime.Sync {
	user := store.User{
		ID:       cfg.User.ID,
		Name:     cfg.User.Name,
		Username: cfg.User.Username,
	}
	return realtime.New(st, transport, convs, b, sink, visibility, user, logger)
}

func provideSender(c *api.Client, st *store.Store, cfg *config.Config, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	self := store.User{
		ID:       cfg.User.ID,
		Name:     cfg.User.Name,
		Username: cfg.User.Username,
	}
	return outbox.NewSender(c, st, self, b, logger)
}

func registerLifecycle(
	lc fx.Lifecycle,
	lk *lock.Lock,
	transport *push.NATS,
	sync *realtime.Sync,
	sender *outbox.Sender,
	convs *api.ConversationService,
	friends *api.FriendService,
	logger *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := sync.Start(context.Background()); err != nil {
				return err
			}
			sender.Start(context.Background())

			// Warm the store in the background; push events arriving
			// meanwhile merge cleanly through the dedup rules.
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := convs.Bootstrap(ctx, 0); err != nil {
					logger.Warn("conversation bootstrap failed", zap.Error(err))
				}
				if err := friends.RefreshCounts(ctx); err != nil {
					logger.Warn("request counts bootstrap failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			sender.Stop()
			sync.Stop()
			transport.Close()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("session client stopped")
			return nil
		},
	})
}
