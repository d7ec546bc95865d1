package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/sirupsen/logrus"

	"github.com/five82/shopfront/internal/catalog"
	"github.com/five82/shopfront/internal/checkout"
	"github.com/five82/shopfront/internal/commands"
	"github.com/five82/shopfront/internal/config"
	"github.com/five82/shopfront/internal/docstore"
	"github.com/five82/shopfront/internal/docstore/cloudstore"
	"github.com/five82/shopfront/internal/docstore/memstore"
	"github.com/five82/shopfront/internal/docstore/redisstore"
	"github.com/five82/shopfront/internal/identity"
	"github.com/five82/shopfront/internal/live"
	"github.com/five82/shopfront/internal/state"
)

const seedTimeout = 15 * time.Second

// Services is the wired application: one document store, one dispatcher
// loop and the components that read and write through them.
type Services struct {
	Config     config.Config
	Log        logrus.FieldLogger
	Docs       docstore.Store
	Loop       *state.Loop
	Identity   *identity.Session
	Subscriber *live.Subscriber
	Session    *live.Session
	Pager      *catalog.Pager
	Commands   *commands.Commands
	Totals     *state.TotalsSelector
	// Checkout is nil when no payment gateway is configured.
	Checkout *checkout.Flow
	Activity *Activity

	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
	closers []func() error
}

// OpenStore connects the configured document store backend. The Firebase
// app is returned for the firestore backend so auth can share it.
func OpenStore(ctx context.Context, cfg config.Config) (docstore.Store, *firebase.App, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return memstore.New(), nil, nil
	case config.BackendRedis:
		store, err := redisstore.Open(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case config.BackendFirestore:
		fb, err := cloudstore.NewApp(ctx, cfg.ProjectID, cfg.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		store, err := cloudstore.New(ctx, fb)
		if err != nil {
			return nil, nil, err
		}
		return store, fb, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// Open wires every component over the configured backend. Nothing runs
// until Start.
func Open(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*Services, error) {
	docs, fb, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return assemble(ctx, cfg, log, docs, fb)
}

func assemble(ctx context.Context, cfg config.Config, log logrus.FieldLogger, docs docstore.Store, fb *firebase.App) (*Services, error) {
	runCtx, cancel := context.WithCancel(ctx)
	s := &Services{
		Config:  cfg,
		Log:     log,
		Docs:    docs,
		ctx:     runCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		closers: []func() error{docs.Close},
	}

	auth, err := authenticator(cfg)
	if err != nil {
		cancel()
		_ = docs.Close()
		return nil, err
	}
	var verifier identity.TokenVerifier
	if fb != nil {
		v, err := identity.NewAdminVerifier(ctx, fb)
		if err != nil {
			log.WithError(err).Warn("token verification disabled")
		} else {
			verifier = v
		}
	}

	s.Loop = state.NewLoop(state.NewStore())
	s.Identity = identity.NewSession(auth, verifier, log.WithField("component", "identity"))
	s.Subscriber = live.NewSubscriber(runCtx, docs, s.Loop, log.WithField("component", "live"))
	s.Session = live.NewSession(s.Subscriber, s.Loop, log.WithField("component", "session"))
	s.Pager = catalog.NewPager(docs, s.Loop, cfg.PageSize, log.WithField("component", "catalog"))
	s.Commands = commands.New(docs, s.Loop, log.WithField("component", "commands"))
	s.Totals = state.NewTotalsSelector(cfg.Currency)
	s.Activity = NewActivity(cfg.LogFile, defaultActivityLines)

	if cfg.StripeSecretKey != "" {
		gw, err := checkout.NewStripeGateway(checkout.StripeOptions{
			SecretKey: cfg.StripeSecretKey,
			APIURL:    cfg.StripeAPIURL,
		}, log.WithField("component", "stripe"))
		if err != nil {
			cancel()
			_ = docs.Close()
			return nil, fmt.Errorf("init payment gateway: %w", err)
		}
		s.Checkout = checkout.NewFlow(docs, gw, log.WithField("component", "checkout"))
	}
	return s, nil
}

func authenticator(cfg config.Config) (identity.Authenticator, error) {
	if cfg.IdentityAPIKey != "" {
		client, err := identity.NewClient(cfg.IdentityEndpoint, cfg.IdentityAPIKey)
		if err != nil {
			return nil, fmt.Errorf("init identity client: %w", err)
		}
		return client, nil
	}
	if cfg.Backend == config.BackendFirestore {
		return nil, errors.New("identity api_key is required for the firestore backend")
	}
	return identity.NewLocal(), nil
}

// Start launches the dispatcher, the auth session loop and the catalog.
func (s *Services) Start() {
	s.started = true
	go func() {
		defer close(s.done)
		s.Loop.Run(s.ctx)
	}()

	if s.Config.Backend == config.BackendMemory && s.Config.CatalogSource != "" {
		s.seed()
	}

	go s.Session.Run(s.ctx, s.Identity.Changes())
	s.Identity.Start()

	if s.Config.LiveCatalog {
		unsubscribe := s.Subscriber.Products(s.Pager.PageSize())
		s.closers = append(s.closers, func() error { unsubscribe(); return nil })
	} else if _, err := s.Pager.EnsureLoaded(s.ctx, s.Loop.Store().Snapshot().Products); err != nil {
		s.Log.WithError(err).Warn("initial catalog fetch failed")
	}

	StartActivityPoller(s.ctx, s.Activity, defaultActivityInterval)
}

// seed fills an empty in-memory catalog from the public source.
func (s *Services) seed() {
	ctx, cancel := context.WithTimeout(s.ctx, seedTimeout)
	defer cancel()
	imp, err := catalog.NewImporter(s.Config.CatalogSource, s.Docs, s.Log.WithField("component", "import"))
	if err != nil {
		s.Log.WithError(err).Warn("catalog seed skipped")
		return
	}
	n, err := imp.Import(ctx)
	if err != nil {
		s.Log.WithError(err).Warn("catalog seed failed")
		return
	}
	s.Log.WithField("products", n).Info("seeded in-memory catalog")
}

// Close stops background work and releases the backend.
func (s *Services) Close() error {
	s.cancel()
	if s.started {
		<-s.done
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}
