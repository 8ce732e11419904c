package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/walletsync/internal/config"
	"github.com/congo-pay/walletsync/internal/dialogs"
	"github.com/congo-pay/walletsync/internal/middleware"
	"github.com/congo-pay/walletsync/internal/network"
	"github.com/congo-pay/walletsync/internal/routing"
	"github.com/congo-pay/walletsync/internal/store"
	"github.com/congo-pay/walletsync/internal/wallet"
)

// Pinger is a backend that can be probed for liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg     config.Config
	DB      *pgxpool.Pool
	Cache   *redis.Client
	Logger  *slog.Logger
	Backend Pinger
	Wallets *wallet.Service
	Store   *store.Store
	Router  *routing.Router
	Dialogs *dialogs.UI
	Network *network.Status
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.Cfg.IsDev() {
		// [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	idem := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	RegisterWalletRoutes(api, store.NewHandler(d.Store), wallet.NewHandler(d.Wallets), idem)
	RegisterRoutingRoutes(api, routing.NewHandler(d.Router))
	RegisterDialogRoutes(api, dialogs.NewHandler(d.Dialogs))
	RegisterNetworkRoutes(api, network.NewHandler(d.Network))

	return nil
}
