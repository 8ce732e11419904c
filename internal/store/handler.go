package store

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/walletsync/internal/wallet"
)

// Handler exposes the wallet store over HTTP.
type Handler struct {
	store *Store
}

// NewHandler builds a store HTTP handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

type createWalletRequest struct {
	Name     string  `json:"name"`
	Mnemonic string  `json:"mnemonic"`
	Password *string `json:"password"`
}

type setActiveRequest struct {
	WalletID string `json:"wallet_id"`
}

type refreshResponse struct {
	Executing bool   `json:"executing"`
	Executed  bool   `json:"executed"`
	Error     string `json:"error,omitempty"`
}

type listResponse struct {
	Wallets  []wallet.Wallet `json:"wallets"`
	ActiveID string          `json:"active_id"`
	Loaded   bool            `json:"loaded"`
	Refresh  refreshResponse `json:"refresh"`
}

// List returns the wallet collection, the active wallet id and the refresh
// status.
func (h *Handler) List(c *fiber.Ctx) error {
	snap := h.store.Snapshot()
	status := h.store.RefreshStatus()

	wallets := snap.Wallets
	if wallets == nil {
		wallets = []wallet.Wallet{}
	}
	resp := listResponse{
		Wallets:  wallets,
		ActiveID: snap.ActiveID,
		Loaded:   snap.Loaded,
		Refresh: refreshResponse{
			Executing: status.Executing,
			Executed:  status.Executed,
		},
	}
	if status.Err != nil {
		resp.Refresh.Error = status.Err.Error()
	}
	return c.Status(http.StatusOK).JSON(resp)
}

// Refresh reloads the wallet list now and returns the resulting collection.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	if err := h.store.RefreshWalletsData(c.UserContext()); err != nil {
		return fiber.NewError(wallet.StatusFor(err), err.Error())
	}
	return h.List(c)
}

// Create restores a wallet from its recovery phrase.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || strings.TrimSpace(req.Mnemonic) == "" {
		return fiber.NewError(http.StatusBadRequest, "name and mnemonic are required")
	}

	created, err := h.store.CreateWallet(c.UserContext(), wallet.CreateRequest{
		Name:     req.Name,
		Mnemonic: req.Mnemonic,
		Password: req.Password,
	})
	if err != nil {
		return fiber.NewError(wallet.StatusFor(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(created)
}

// Active returns the active wallet.
func (h *Handler) Active(c *fiber.Ctx) error {
	w, ok := h.store.Active()
	if !ok {
		return fiber.NewError(http.StatusNotFound, "no active wallet")
	}
	return c.Status(http.StatusOK).JSON(w)
}

// SetActive marks a wallet as active without navigating.
func (h *Handler) SetActive(c *fiber.Ctx) error {
	var req setActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if !h.store.SetActiveWallet(req.WalletID) {
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	}
	return h.Active(c)
}

// UnsetActive clears the active wallet.
func (h *Handler) UnsetActive(c *fiber.Ctx) error {
	h.store.UnsetActiveWallet()
	return c.SendStatus(http.StatusNoContent)
}

// Get returns one wallet.
func (h *Handler) Get(c *fiber.Ctx) error {
	w, ok := h.store.GetWalletByID(c.Params("walletId"))
	if !ok {
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	}
	return c.Status(http.StatusOK).JSON(w)
}

// Route returns the route of a wallet page.
func (h *Handler) Route(c *fiber.Ctx) error {
	id := c.Params("walletId")
	if _, ok := h.store.GetWalletByID(id); !ok {
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"route": h.store.GetWalletRoute(id, c.Query("page"))})
}

// Open navigates to the default page of a wallet.
func (h *Handler) Open(c *fiber.Ctx) error {
	id := c.Params("walletId")
	if _, ok := h.store.GetWalletByID(id); !ok {
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	}
	h.store.GoToWalletRoute(id)
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"route": h.store.GetWalletRoute(id, "")})
}
