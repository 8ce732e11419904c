package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/walletsync/internal/store"
	"github.com/congo-pay/walletsync/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints. Static segments are
// registered before /wallets/:walletId so they are not taken for ids.
func RegisterWalletRoutes(r fiber.Router, h *store.Handler, wh *wallet.Handler, idem fiber.Handler) {
	r.Get("/wallets", h.List)
	r.Post("/wallets", idem, h.Create)
	r.Post("/wallets/refresh", h.Refresh)
	r.Get("/wallets/active", h.Active)
	r.Put("/wallets/active", h.SetActive)
	r.Delete("/wallets/active", h.UnsetActive)
	r.Get("/wallets/recovery-phrase", wh.RecoveryPhrase)
	r.Get("/wallets/:walletId", h.Get)
	r.Get("/wallets/:walletId/route", h.Route)
	r.Post("/wallets/:walletId/open", h.Open)
	r.Post("/transactions", idem, wh.CreateTransaction)
}
