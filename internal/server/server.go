package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/congo-pay/walletsync/internal/config"
	"github.com/congo-pay/walletsync/internal/dialogs"
	"github.com/congo-pay/walletsync/internal/etc"
	"github.com/congo-pay/walletsync/internal/infra"
	"github.com/congo-pay/walletsync/internal/logging"
	"github.com/congo-pay/walletsync/internal/network"
	"github.com/congo-pay/walletsync/internal/notification"
	"github.com/congo-pay/walletsync/internal/routes"
	"github.com/congo-pay/walletsync/internal/routing"
	"github.com/congo-pay/walletsync/internal/store"
	"github.com/congo-pay/walletsync/internal/wallet"
)

// Server wraps the Fiber application and the background loops that keep the
// wallet store current.
type Server struct {
	app     *fiber.App
	cfg     config.Config
	logger  *slog.Logger
	store   *store.Store
	network *network.Status
	prompt  *dialogs.AddWalletPrompt
}

// NewWalletService assembles the wallet API over the configured node. Names
// are stored in Postgres when db is set and in memory otherwise.
func NewWalletService(ctx context.Context, cfg config.Config, res *infra.Resources, logger *slog.Logger) (*wallet.Service, *etc.Client, error) {
	backend := etc.NewClient(cfg.BackendURL, cfg.BackendTimeout, cfg.BackendDebug, logging.Component(logger, "etc"))

	var names wallet.NameRepository
	if res != nil && res.DB != nil {
		repo := wallet.NewPostgresRepository(res.DB)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		names = repo
	} else {
		names = wallet.NewMemoryRepository()
	}
	names = wallet.NewCachedNames(names, cfg.NameCacheTTL)

	return wallet.NewService(backend, names, logging.Component(logger, "wallet")), backend, nil
}

// New wires every component and delegates route wiring to routes.Setup.
func New(ctx context.Context, cfg config.Config, res *infra.Resources, logger *slog.Logger) (*Server, error) {
	if res == nil {
		res = &infra.Resources{}
	}
	svc, backend, err := NewWalletService(ctx, cfg, res, logger)
	if err != nil {
		return nil, err
	}

	router := routing.NewRouter(routing.WalletsRoot, logging.Component(logger, "router"))
	netStatus := network.NewStatus(svc, cfg.SyncInterval, logging.Component(logger, "network"))
	notifier := notification.NewLoggerNotifier(logging.Component(logger, "notification"))
	st := store.New(svc, router, netStatus, notifier, logging.Component(logger, "store"), cfg.RefreshInterval)
	router.React(func(routing.RouteChange) { st.OnRouteChange() })

	ui := dialogs.NewUI(logging.Component(logger, "dialogs"))
	prompt := dialogs.NewAddWalletPrompt(ui, logging.Component(logger, "dialogs"))

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          cfg.BackendTimeout + 5*time.Second,
		DisableStartupMessage: !cfg.IsDev(),
	})

	err = routes.Setup(app, routes.Deps{
		Cfg:     cfg,
		DB:      res.DB,
		Cache:   res.Cache,
		Logger:  logger,
		Backend: backend,
		Wallets: svc,
		Store:   st,
		Router:  router,
		Dialogs: ui,
		Network: netStatus,
	})
	if err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, logger: logger, store: st, network: netStatus, prompt: prompt}, nil
}

// Run serves HTTP and runs the polling loops until ctx ends or one of them
// fails, then shuts the HTTP server down within the configured period.
func (s *Server) Run(ctx context.Context) error {
	if err := s.network.Check(ctx); err != nil {
		s.logger.Warn("initial sync check failed", slog.Any("error", err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.network.Run(gctx) })
	g.Go(func() error { return s.store.Run(gctx) })
	g.Go(func() error { return s.prompt.Run(gctx, s.store) })
	g.Go(func() error {
		s.logger.Info("http server listening", slog.String("address", s.cfg.Address()))
		return s.app.Listen(s.cfg.Address())
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownPeriod)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// App exposes the Fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
