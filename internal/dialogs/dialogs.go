// Package dialogs tracks which modal dialog the UI shows and opens the
// add-wallet dialog when loading finishes without any wallet.
package dialogs

import (
	"context"
	"log/slog"
	"sync"

	"github.com/congo-pay/walletsync/internal/store"
)

// AddWallet is the dialog that asks the user to create or restore a wallet.
const AddWallet = "add-wallet"

// UI holds the active dialog. At most one dialog is open.
type UI struct {
	mu     sync.RWMutex
	active string
	logger *slog.Logger
}

// NewUI builds an empty dialog state.
func NewUI(logger *slog.Logger) *UI {
	if logger == nil {
		logger = slog.Default()
	}
	return &UI{logger: logger}
}

// Open shows name, replacing any open dialog.
func (u *UI) Open(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.active == name {
		return
	}
	u.active = name
	u.logger.Debug("dialog opened", slog.String("dialog", name))
}

// CloseActive closes the open dialog, if any.
func (u *UI) CloseActive() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.active == "" {
		return
	}
	u.logger.Debug("dialog closed", slog.String("dialog", u.active))
	u.active = ""
}

// IsOpen reports whether name is the open dialog.
func (u *UI) IsOpen(name string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.active == name
}

// Active returns the open dialog, or "" when none is open.
func (u *UI) Active() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.active
}

type walletPresence struct {
	loaded bool
	any    bool
}

func presenceOf(s store.State) walletPresence {
	return walletPresence{loaded: s.Loaded, any: s.Loaded && len(s.Wallets) > 0}
}

// AddWalletPrompt opens the add-wallet dialog when wallets finished loading
// and none exist, and closes it once that is no longer the case. It only
// acts when the (loaded, any wallets) pair changes. States older than the
// last observed version are ignored.
type AddWalletPrompt struct {
	ui     *UI
	logger *slog.Logger

	mu      sync.Mutex
	last    *walletPresence
	version uint64
}

// NewAddWalletPrompt builds the reaction.
func NewAddWalletPrompt(ui *UI, logger *slog.Logger) *AddWalletPrompt {
	if logger == nil {
		logger = slog.Default()
	}
	return &AddWalletPrompt{ui: ui, logger: logger}
}

// Observe evaluates the reaction for one state.
func (p *AddWalletPrompt) Observe(s store.State) {
	cur := presenceOf(s)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last != nil && s.Version < p.version {
		p.logger.Debug("stale wallet state ignored",
			slog.Uint64("version", s.Version),
			slog.Uint64("seen", p.version),
		)
		return
	}
	p.version = s.Version
	if p.last != nil && *p.last == cur {
		return
	}
	p.last = &cur

	switch {
	case cur.loaded && !cur.any:
		p.logger.Info("no wallets found, prompting to add one")
		p.ui.Open(AddWallet)
	case p.ui.IsOpen(AddWallet):
		p.ui.CloseActive()
	}
}

// Run observes store transitions until ctx ends.
func (p *AddWalletPrompt) Run(ctx context.Context, st *store.Store) error {
	changes := make(chan store.Change, 16)
	sub := st.Subscribe(changes)
	defer sub.Unsubscribe()

	p.Observe(st.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			return err
		case change := <-changes:
			p.Observe(change.State)
		}
	}
}
