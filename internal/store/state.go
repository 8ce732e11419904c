package store

import (
	"github.com/congo-pay/walletsync/internal/routing"
	"github.com/congo-pay/walletsync/internal/wallet"
)

// State is an immutable snapshot of the wallet collection and the UI
// position it is reconciled against. Wallets is never mutated in place.
type State struct {
	Wallets  []wallet.Wallet
	ActiveID string
	Route    string
	// Loaded is set once a refresh completed, successfully or not.
	Loaded bool
	// Version increases with every committed transition. Subscribers use it
	// to discard changes delivered out of commit order.
	Version uint64
}

// Find returns the wallet with the given id.
func (s State) Find(id string) (wallet.Wallet, bool) {
	for _, w := range s.Wallets {
		if w.ID == id {
			return w, true
		}
	}
	return wallet.Wallet{}, false
}

// Active returns the active wallet.
func (s State) Active() (wallet.Wallet, bool) {
	if s.ActiveID == "" {
		return wallet.Wallet{}, false
	}
	return s.Find(s.ActiveID)
}

// CommandKind enumerates side effects requested by reconciliation.
type CommandKind int

const (
	// CommandNavigate asks the router to show Route.
	CommandNavigate CommandKind = iota + 1
)

// Command is a side effect to perform after a state transition committed.
type Command struct {
	Kind  CommandKind
	Route string
}

// Reconcile derives the active wallet from the wallet collection and the
// current route. It is pure: the returned commands are the only side effects
// and a navigation is already reflected in the returned Route, so feeding
// the result back in yields no further commands.
func Reconcile(s State) (State, []Command) {
	next := s

	if len(next.Wallets) == 0 {
		next.ActiveID = ""
		return next, nil
	}
	if _, ok := next.Find(next.ActiveID); !ok {
		next.ActiveID = ""
	}

	if id, _, ok := routing.MatchWallet(next.Route); ok {
		if w, found := next.Find(id); found {
			next.ActiveID = w.ID
			return next, nil
		}
		next.ActiveID = next.Wallets[0].ID
		return navigate(next)
	}

	if routing.IsWalletsRoot(next.Route) || routing.IsNoWallets(next.Route) {
		if next.ActiveID == "" {
			next.ActiveID = next.Wallets[0].ID
		}
		return navigate(next)
	}

	return next, nil
}

func navigate(s State) (State, []Command) {
	s.Route = routing.WalletRoute(s.ActiveID, "")
	return s, []Command{{Kind: CommandNavigate, Route: s.Route}}
}
