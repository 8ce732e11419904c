package routing

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the router to the UI.
type Handler struct {
	router *Router
}

// NewHandler builds a routing HTTP handler.
func NewHandler(router *Router) *Handler {
	return &Handler{router: router}
}

type navigateRequest struct {
	Route string `json:"route"`
}

// Current returns the current route.
func (h *Handler) Current(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"route": h.router.CurrentRoute()})
}

// Navigate changes the current route.
func (h *Handler) Navigate(c *fiber.Ctx) error {
	var req navigateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if !strings.HasPrefix(req.Route, "/") {
		return fiber.NewError(http.StatusBadRequest, "route must start with /")
	}
	h.router.GoToRoute(req.Route)
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"route": h.router.CurrentRoute()})
}
