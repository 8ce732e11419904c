package network

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the backend sync status.
type Handler struct {
	status *Status
}

// NewHandler builds a network HTTP handler.
func NewHandler(status *Status) *Handler {
	return &Handler{status: status}
}

// Get returns the sync status.
func (h *Handler) Get(c *fiber.Ctx) error {
	progress, known, err := h.status.Progress()
	resp := fiber.Map{
		"synced": h.status.Synced(),
		"known":  known,
	}
	if known {
		resp["local_difficulty"] = progress.LocalDifficulty
		resp["network_difficulty"] = progress.NetworkDifficulty
		resp["percentage"] = progress.Percentage()
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	return c.Status(http.StatusOK).JSON(resp)
}
