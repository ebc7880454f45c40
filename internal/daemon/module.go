package daemon

import (
	"context"
	"path/filepath"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/hfarah/noor/internal/api"
	"github.com/hfarah/noor/internal/bus"
	"github.com/hfarah/noor/internal/config"
	"github.com/hfarah/noor/internal/corpus"
	"github.com/hfarah/noor/internal/identity"
	"github.com/hfarah/noor/internal/lock"
	"github.com/hfarah/noor/internal/logging"
	"github.com/hfarah/noor/internal/mailbox"
	"github.com/hfarah/noor/internal/profile"
	"github.com/hfarah/noor/internal/reader"
	"github.com/hfarah/noor/internal/status"
	"github.com/hfarah/noor/internal/store"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
	HTTPAddr    string
	Config      *config.Config
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideLibrary,
			provideIdentity,
			provideMailbox,
			provideReaderState,
			providePoller,
			provideHandler,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, b *bus.Bus, logger *zap.Logger) (*store.Store, error) {
	dbPath := profile.StorePath(p.ProfileName)
	s, err := store.Open(dbPath, b, p.Config.MaxValueBytes)
	if err != nil {
		return nil, err
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return s, nil
}

func provideLibrary(p Params) *corpus.Library {
	quranPath := p.Config.QuranPath
	if quranPath == "" {
		quranPath = filepath.Join(profile.BaseDir(), "corpora", "quran.json")
	}
	sunnahPath := p.Config.SunnahPath
	if sunnahPath == "" {
		sunnahPath = filepath.Join(profile.BaseDir(), "corpora", "sunnah.json")
	}
	return corpus.NewLibrary(
		corpus.New("quran", corpus.KindVerse, quranPath),
		corpus.New("sunnah", corpus.KindHadith, sunnahPath),
	)
}

func provideIdentity(p Params) identity.Provider {
	return identity.NewStatic(p.Config.Identity)
}

func provideMailbox(s *store.Store, ids identity.Provider, b *bus.Bus, logger *zap.Logger) *mailbox.Service {
	return mailbox.NewService(s, ids, b, logger)
}

func provideReaderState(s *store.Store) *reader.State {
	return reader.NewState(s)
}

func providePoller(p Params, svc *mailbox.Service, b *bus.Bus, logger *zap.Logger) *mailbox.Poller {
	feed := mailbox.NewTickerFeed(p.Config.PollInterval())
	sink := mailbox.SinkFunc(func(msg mailbox.Message) {
		logger.Info("notification",
			zap.String("from", msg.SenderID),
			zap.String("conversation_id", msg.ConversationID))
	})
	return mailbox.NewPoller(svc, feed, sink, b, logger)
}

func provideHandler(p Params, lib *corpus.Library, mail *mailbox.Service, state *reader.State, machine *status.Machine, logger *zap.Logger) *api.Handler {
	return api.NewHandler(lib, mail, state, machine, logger, p.Config.MaxResults)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, lib *corpus.Library, poller *mailbox.Poller, machine *status.Machine, logger *zap.Logger, s *store.Store) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			_ = machine.Transition(status.LoadingCorpus)
			if err := lib.LoadAll(); err != nil {
				// The mailbox still works without corpora; search reports
				// empty results until a refresh succeeds.
				logger.Warn("corpus load failed", zap.Error(err))
				_ = machine.Transition(status.Degraded)
			} else {
				for _, name := range lib.Names() {
					logger.Info("corpus loaded",
						zap.String("corpus", name),
						zap.Int("records", lib.Get(name).Len()))
				}
				_ = machine.Transition(status.Ready)
			}

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
				}
			}()

			poller.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			poller.Stop()
			srv.Stop(ctx)
			if err := s.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
