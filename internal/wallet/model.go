package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Assurance describes the confirmation policy attached to a wallet.
type Assurance string

const (
	AssuranceNormal Assurance = "CWANormal"
	AssuranceStrict Assurance = "CWAStrict"
)

// Wallet is a backend account as presented to the UI.
type Wallet struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Amount             decimal.Decimal `json:"amount"`
	Assurance          Assurance       `json:"assurance"`
	HasPassword        bool            `json:"has_password"`
	PasswordUpdateDate *time.Time      `json:"password_update_date"`
}

// CreateRequest captures the data required to restore a wallet from its
// recovery phrase. A nil Password creates an unprotected wallet.
type CreateRequest struct {
	Name     string
	Mnemonic string
	Password *string
}

// TransactionRequest describes a transfer signed by the backend node.
type TransactionRequest struct {
	From     string
	To       string
	Amount   decimal.Decimal
	GasPrice decimal.Decimal
	GasLimit uint64
	Password string
}

// SyncProgress reports how far the backend node is from the network tip.
type SyncProgress struct {
	LocalDifficulty   uint64 `json:"local_difficulty"`
	NetworkDifficulty uint64 `json:"network_difficulty"`
}

// Synced reports whether the node has caught up with the network.
func (p SyncProgress) Synced() bool {
	return p.NetworkDifficulty > 0 && p.LocalDifficulty >= p.NetworkDifficulty
}

// Percentage returns the sync progress in the 0..100 range.
func (p SyncProgress) Percentage() float64 {
	if p.NetworkDifficulty == 0 {
		return 0
	}
	pct := float64(p.LocalDifficulty) / float64(p.NetworkDifficulty) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
