package wallet

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Handler exposes wallet API endpoints that do not touch store state.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transactionRequest struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Amount   decimal.Decimal `json:"amount"`
	GasPrice decimal.Decimal `json:"gas_price"`
	GasLimit uint64          `json:"gas_limit"`
	Password string          `json:"password"`
}

// RecoveryPhrase returns a newly generated recovery phrase.
func (h *Handler) RecoveryPhrase(c *fiber.Ctx) error {
	words, err := h.service.GetWalletRecoveryPhrase(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"recovery_phrase": words})
}

// CreateTransaction sends funds from one of the node's accounts.
func (h *Handler) CreateTransaction(c *fiber.Ctx) error {
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if !common.IsHexAddress(req.From) || !common.IsHexAddress(req.To) {
		return fiber.NewError(http.StatusBadRequest, "from and to must be hex addresses")
	}
	hash, err := h.service.CreateTransaction(c.UserContext(), TransactionRequest{
		From:     req.From,
		To:       req.To,
		Amount:   req.Amount,
		GasPrice: req.GasPrice,
		GasLimit: req.GasLimit,
		Password: req.Password,
	})
	if err != nil {
		return fiber.NewError(StatusFor(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"transaction_id": hash})
}

// StatusFor maps wallet API errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrIncorrectPassword):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidMnemonic):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrGenericAPI):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
