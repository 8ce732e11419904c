package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/walletsync/internal/dialogs"
	"github.com/congo-pay/walletsync/internal/network"
	"github.com/congo-pay/walletsync/internal/routing"
)

// RegisterRoutingRoutes exposes the current UI route.
func RegisterRoutingRoutes(r fiber.Router, h *routing.Handler) {
	r.Get("/route", h.Current)
	r.Post("/route", h.Navigate)
}

// RegisterDialogRoutes exposes the open dialog.
func RegisterDialogRoutes(r fiber.Router, h *dialogs.Handler) {
	r.Get("/dialogs", h.Active)
	r.Delete("/dialogs/active", h.Close)
}

// RegisterNetworkRoutes exposes the backend sync status.
func RegisterNetworkRoutes(r fiber.Router, h *network.Handler) {
	r.Get("/network", h.Get)
}
