package dialogs

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes dialog state to the UI.
type Handler struct {
	ui *UI
}

// NewHandler builds a dialogs HTTP handler.
func NewHandler(ui *UI) *Handler {
	return &Handler{ui: ui}
}

// Active returns the open dialog.
func (h *Handler) Active(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"active": h.ui.Active()})
}

// Close closes the open dialog.
func (h *Handler) Close(c *fiber.Ctx) error {
	h.ui.CloseActive()
	return c.SendStatus(http.StatusNoContent)
}
