package wallet

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/sync/errgroup"
)

const (
	// etcDecimals is the number of wei decimal places in one ETC.
	etcDecimals = 18

	recoveryPhraseEntropyBits = 128

	// Message the node returns when personal_* calls get a wrong passphrase.
	wrongPassphraseMessage = "Could not decrypt key with given passphrase"
)

// Backend is the node RPC surface the wallet API is assembled from.
type Backend interface {
	Accounts(ctx context.Context) ([]string, error)
	GetBalance(ctx context.Context, address string) (*big.Int, error)
	Syncing(ctx context.Context) (current, highest uint64, syncing bool, err error)
	ImportRawKey(ctx context.Context, keyHex, password string) (string, error)
	SendTransaction(ctx context.Context, from, to string, value, gasPrice *big.Int, gas uint64, password string) (string, error)
}

// Service exposes wallet operations backed by the node and the local name
// repository.
type Service struct {
	backend Backend
	names   NameRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewService builds a wallet service instance.
func NewService(backend Backend, names NameRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, names: names, logger: logger, now: time.Now}
}

// GetWallets lists every backend account with its name and balance. The
// order of the result follows the order the node reports accounts in.
func (s *Service) GetWallets(ctx context.Context) ([]Wallet, error) {
	s.logger.Debug("wallet api: get wallets called")
	accounts, err := s.backend.Accounts(ctx)
	if err != nil {
		s.logger.Error("wallet api: get wallets failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: list accounts: %v", ErrGenericAPI, err)
	}

	wallets := make([]Wallet, len(accounts))
	updated := s.now().UTC()
	g, gctx := errgroup.WithContext(ctx)
	for i, account := range accounts {
		i, id := i, normalizeID(account)
		g.Go(func() error {
			name, err := s.walletName(gctx, id)
			if err != nil {
				return err
			}
			amount, err := s.GetAccountBalance(gctx, id)
			if err != nil {
				return err
			}
			wallets[i] = Wallet{
				ID:                 id,
				Name:               name,
				Amount:             amount,
				Assurance:          AssuranceNormal,
				HasPassword:        true,
				PasswordUpdateDate: &updated,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("wallet api: get wallets failed", slog.Any("error", err))
		if errors.Is(err, ErrGenericAPI) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrGenericAPI, err)
	}

	s.logger.Debug("wallet api: get wallets success", slog.Int("count", len(wallets)))
	return wallets, nil
}

func (s *Service) walletName(ctx context.Context, id string) (string, error) {
	name, err := s.names.GetName(ctx, id)
	if errors.Is(err, ErrNameNotFound) {
		return "", nil
	}
	return name, err
}

// GetAccountBalance returns the balance of an account in ETC.
func (s *Service) GetAccountBalance(ctx context.Context, walletID string) (decimal.Decimal, error) {
	wei, err := s.backend.GetBalance(ctx, walletID)
	if err != nil {
		s.logger.Error("wallet api: get balance failed", slog.String("wallet_id", walletID), slog.Any("error", err))
		return decimal.Zero, fmt.Errorf("%w: balance of %s: %v", ErrGenericAPI, walletID, err)
	}
	return decimal.NewFromBigInt(wei, -etcDecimals), nil
}

// CreateWallet restores a wallet on the node from its recovery phrase and
// stores its display name.
func (s *Service) CreateWallet(ctx context.Context, req CreateRequest) (Wallet, error) {
	s.logger.Debug("wallet api: create wallet called", slog.String("name", req.Name))
	if strings.TrimSpace(req.Name) == "" {
		return Wallet{}, fmt.Errorf("wallet name is required")
	}
	password := ""
	if req.Password != nil {
		password = *req.Password
	}
	key, err := privateKeyFromMnemonic(req.Mnemonic, password)
	if err != nil {
		return Wallet{}, err
	}

	account, err := s.backend.ImportRawKey(ctx, key, password)
	if err != nil {
		s.logger.Error("wallet api: create wallet failed", slog.Any("error", err))
		return Wallet{}, fmt.Errorf("%w: import key: %v", ErrGenericAPI, err)
	}
	id := normalizeID(account)
	if err := s.names.SetName(ctx, id, req.Name); err != nil {
		s.logger.Error("wallet api: store wallet name failed", slog.String("wallet_id", id), slog.Any("error", err))
		return Wallet{}, fmt.Errorf("%w: store name: %v", ErrGenericAPI, err)
	}

	w := Wallet{
		ID:          id,
		Name:        req.Name,
		Amount:      decimal.Zero,
		Assurance:   AssuranceNormal,
		HasPassword: req.Password != nil,
	}
	if req.Password != nil {
		updated := s.now().UTC()
		w.PasswordUpdateDate = &updated
	}
	s.logger.Info("wallet api: wallet created", slog.String("wallet_id", id))
	return w, nil
}

// GetWalletRecoveryPhrase generates a fresh 12 word recovery phrase.
func (s *Service) GetWalletRecoveryPhrase(_ context.Context) ([]string, error) {
	entropy, err := bip39.NewEntropy(recoveryPhraseEntropyBits)
	if err != nil {
		return nil, fmt.Errorf("%w: entropy: %v", ErrGenericAPI, err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("%w: mnemonic: %v", ErrGenericAPI, err)
	}
	return strings.Fields(mnemonic), nil
}

// CreateTransaction asks the node to sign and broadcast a transfer and
// returns the transaction hash.
func (s *Service) CreateTransaction(ctx context.Context, req TransactionRequest) (string, error) {
	s.logger.Debug("wallet api: create transaction called", slog.String("from", req.From), slog.String("to", req.To))
	if !req.Amount.IsPositive() {
		return "", fmt.Errorf("amount must be positive")
	}
	value := req.Amount.Shift(etcDecimals).BigInt()
	var gasPrice *big.Int
	if req.GasPrice.IsPositive() {
		gasPrice = req.GasPrice.BigInt()
	}

	hash, err := s.backend.SendTransaction(ctx, normalizeID(req.From), normalizeID(req.To), value, gasPrice, req.GasLimit, req.Password)
	if err != nil {
		s.logger.Error("wallet api: create transaction failed", slog.Any("error", err))
		if strings.Contains(err.Error(), wrongPassphraseMessage) {
			return "", ErrIncorrectPassword
		}
		return "", fmt.Errorf("%w: send transaction: %v", ErrGenericAPI, err)
	}
	return hash, nil
}

// GetSyncProgress reports the node's block sync progress. A node that is not
// syncing is considered caught up.
func (s *Service) GetSyncProgress(ctx context.Context) (SyncProgress, error) {
	current, highest, syncing, err := s.backend.Syncing(ctx)
	if err != nil {
		s.logger.Error("wallet api: get sync progress failed", slog.Any("error", err))
		return SyncProgress{}, fmt.Errorf("%w: sync progress: %v", ErrGenericAPI, err)
	}
	if !syncing {
		return SyncProgress{LocalDifficulty: 100, NetworkDifficulty: 100}, nil
	}
	return SyncProgress{LocalDifficulty: current, NetworkDifficulty: highest}, nil
}

func privateKeyFromMnemonic(mnemonic, password string) (string, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, password)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	return hex.EncodeToString(seed[:32]), nil
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
