// Package store keeps the wallet collection loaded from the backend and
// derives which wallet is active from the route the UI currently shows.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"

	"github.com/congo-pay/walletsync/internal/notification"
	"github.com/congo-pay/walletsync/internal/request"
	"github.com/congo-pay/walletsync/internal/routing"
	"github.com/congo-pay/walletsync/internal/wallet"
)

// API is the subset of the wallet service the store drives.
type API interface {
	GetWallets(ctx context.Context) ([]wallet.Wallet, error)
	CreateWallet(ctx context.Context, req wallet.CreateRequest) (wallet.Wallet, error)
}

// Navigator is the router the store reads the current route from and issues
// navigations to.
type Navigator interface {
	CurrentRoute() string
	GoToRoute(route string)
}

// SyncChecker reports whether the backend node caught up with the network.
type SyncChecker interface {
	Synced() bool
}

// Change is published after every committed transition. Delivery happens
// outside the store lock, so concurrent transitions may arrive out of order;
// State.Version gives the commit order.
type Change struct {
	Reason   string
	Previous State
	State    State
}

// ActiveChanged reports whether the transition changed the active wallet.
func (c Change) ActiveChanged() bool {
	return c.Previous.ActiveID != c.State.ActiveID
}

// RefreshStatus summarises the wallets request.
type RefreshStatus struct {
	Executing bool
	Executed  bool
	Err       error
}

// Store owns the wallet collection and the active wallet.
type Store struct {
	api      API
	nav      Navigator
	network  SyncChecker
	notifier notification.Notifier
	logger   *slog.Logger
	interval time.Duration

	walletsRequest *request.Request[[]wallet.Wallet]
	createRequest  *request.Request[wallet.Wallet]

	mu            sync.RWMutex
	state         State
	appliedSeq    uint64
	refreshFailed bool

	feed event.Feed
}

// New builds a store. network and notifier may be nil.
func New(api API, nav Navigator, network SyncChecker, notifier notification.Notifier, logger *slog.Logger, interval time.Duration) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	s := &Store{
		api:            api,
		nav:            nav,
		network:        network,
		notifier:       notifier,
		logger:         logger,
		interval:       interval,
		walletsRequest: request.New(api.GetWallets),
		createRequest:  request.New[wallet.Wallet](nil),
	}
	s.state.Route = nav.CurrentRoute()
	return s
}

// Subscribe registers ch for committed transitions. Sends block until every
// subscriber received the change, so ch must be drained.
func (s *Store) Subscribe(ch chan<- Change) event.Subscription {
	return s.feed.Subscribe(ch)
}

// Run refreshes the wallet list immediately and then once per interval while
// the backend is synced. A tick is skipped while a refresh is still running.
func (s *Store) Run(ctx context.Context) error {
	s.logger.Info("wallet polling started", slog.Duration("interval", s.interval))
	s.Tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("wallet polling stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one polling step and reports whether a refresh ran.
func (s *Store) Tick(ctx context.Context) bool {
	if s.network != nil && !s.network.Synced() {
		s.logger.Debug("wallet refresh skipped", slog.String("reason", "network not synced"))
		return false
	}
	if s.walletsRequest.IsExecuting() {
		s.logger.Debug("wallet refresh skipped", slog.String("reason", "refresh in flight"))
		return false
	}
	if err := s.RefreshWalletsData(ctx); err != nil {
		s.logger.Warn("wallet refresh failed", slog.Any("error", err))
	}
	return true
}

// RefreshWalletsData reloads the wallet list from the backend and reconciles
// the active wallet against the new list.
func (s *Store) RefreshWalletsData(ctx context.Context) error {
	wallets, seq, err := s.walletsRequest.Track(ctx, s.api.GetWallets)
	if errors.Is(err, request.ErrSuperseded) {
		s.logger.Debug("stale wallet refresh dropped", slog.Uint64("seq", seq))
		return nil
	}
	if err != nil {
		first := false
		s.apply("refresh_failed", func(st *State) bool {
			if seq <= s.appliedSeq {
				return false
			}
			s.appliedSeq = seq
			first = !s.refreshFailed
			s.refreshFailed = true
			st.Loaded = true
			return true
		})
		if first {
			s.notify(ctx, notification.Message{Kind: notification.KindRefreshFailed, Body: err.Error()})
		}
		return err
	}

	recovered := false
	applied := s.apply("refresh", func(st *State) bool {
		if seq <= s.appliedSeq {
			return false
		}
		s.appliedSeq = seq
		recovered = s.refreshFailed
		s.refreshFailed = false
		st.Wallets = wallets
		st.Loaded = true
		return true
	})
	if !applied {
		s.logger.Debug("stale wallet refresh dropped", slog.Uint64("seq", seq))
		return nil
	}

	if recovered {
		s.notify(ctx, notification.Message{Kind: notification.KindRefreshRecovered})
	}
	return nil
}

// OnRouteChange reconciles against the router's current route.
func (s *Store) OnRouteChange() {
	s.apply("route", func(*State) bool { return true })
}

// SetActiveWallet makes id the active wallet when it is in the collection.
// It does not navigate.
func (s *Store) SetActiveWallet(id string) bool {
	s.mu.Lock()
	if _, ok := s.state.Find(id); !ok {
		s.mu.Unlock()
		return false
	}
	prev := s.state
	s.state.ActiveID = id
	if prev.ActiveID != id {
		s.state.Version++
	}
	next := s.state
	s.mu.Unlock()

	if prev.ActiveID != next.ActiveID {
		s.feed.Send(Change{Reason: "set_active", Previous: prev, State: next})
	}
	return true
}

// UnsetActiveWallet clears the active wallet.
func (s *Store) UnsetActiveWallet() {
	s.mu.Lock()
	prev := s.state
	s.state.ActiveID = ""
	if prev.ActiveID != "" {
		s.state.Version++
	}
	next := s.state
	s.mu.Unlock()

	if prev.ActiveID != "" {
		s.feed.Send(Change{Reason: "unset_active", Previous: prev, State: next})
	}
}

// CreateWallet restores a wallet through the backend, adds it to the
// collection and navigates to it.
func (s *Store) CreateWallet(ctx context.Context, req wallet.CreateRequest) (wallet.Wallet, error) {
	created, _, err := s.createRequest.Track(ctx, func(ctx context.Context) (wallet.Wallet, error) {
		return s.api.CreateWallet(ctx, req)
	})
	if err != nil {
		return wallet.Wallet{}, err
	}

	s.apply("wallet_created", func(st *State) bool {
		// Refreshes issued so far may predate the new wallet.
		if issued := s.walletsRequest.Issued(); issued > s.appliedSeq {
			s.appliedSeq = issued
		}
		if _, exists := st.Find(created.ID); exists {
			return true
		}
		wallets := make([]wallet.Wallet, 0, len(st.Wallets)+1)
		wallets = append(wallets, st.Wallets...)
		st.Wallets = append(wallets, created)
		return true
	})
	s.notify(ctx, notification.Message{Kind: notification.KindWalletCreated, WalletID: created.ID, Body: created.Name})
	s.GoToWalletRoute(created.ID)
	return created, nil
}

// GetWalletByID looks a wallet up by id.
func (s *Store) GetWalletByID(id string) (wallet.Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Find(id)
}

// GetWalletByName looks a wallet up by name.
func (s *Store) GetWalletByName(name string) (wallet.Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.state.Wallets {
		if w.Name == name {
			return w, true
		}
	}
	return wallet.Wallet{}, false
}

// GetWalletRoute returns the route of a wallet page.
func (s *Store) GetWalletRoute(id, page string) string {
	return routing.WalletRoute(id, page)
}

// GoToWalletRoute navigates to the default page of a wallet.
func (s *Store) GoToWalletRoute(id string) {
	s.nav.GoToRoute(routing.WalletRoute(id, ""))
}

// All returns the wallet collection, empty before the first refresh.
func (s *Store) All() []wallet.Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]wallet.Wallet, len(s.state.Wallets))
	copy(out, s.state.Wallets)
	return out
}

// First returns the first wallet of the collection.
func (s *Store) First() (wallet.Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.state.Wallets) == 0 {
		return wallet.Wallet{}, false
	}
	return s.state.Wallets[0], true
}

// Active returns the active wallet.
func (s *Store) Active() (wallet.Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Active()
}

// HasActiveWallet reports whether a wallet is active.
func (s *Store) HasActiveWallet() bool {
	_, ok := s.Active()
	return ok
}

// HasLoadedWallets reports whether the wallets request completed at least
// once, successfully or not.
func (s *Store) HasLoadedWallets() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Loaded
}

// HasAnyWallets reports whether loading finished with a non-empty collection.
func (s *Store) HasAnyWallets() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Loaded && len(s.state.Wallets) > 0
}

// HasAnyLoaded reports whether the collection holds any wallet.
func (s *Store) HasAnyLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Wallets) > 0
}

// ActiveWalletRoute returns the default route of the active wallet.
func (s *Store) ActiveWalletRoute() (string, bool) {
	w, ok := s.Active()
	if !ok {
		return "", false
	}
	return routing.WalletRoute(w.ID, ""), true
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// RefreshStatus returns the status of the wallets request.
func (s *Store) RefreshStatus() RefreshStatus {
	st := s.walletsRequest.Status()
	return RefreshStatus{Executing: st.IsExecuting, Executed: st.WasExecuted, Err: st.Err}
}

// apply commits a reconciled transition and then performs the resulting
// navigations. mutate runs under the store lock and may veto the transition.
func (s *Store) apply(reason string, mutate func(*State) bool) bool {
	s.mu.Lock()
	prev := s.state
	next := prev
	next.Route = s.nav.CurrentRoute()
	if !mutate(&next) {
		s.mu.Unlock()
		return false
	}
	next, commands := Reconcile(next)
	next.Version = prev.Version + 1
	s.state = next
	s.mu.Unlock()

	if reason != "route" || prev.ActiveID != next.ActiveID || prev.Route != next.Route {
		s.logger.Debug("wallet state reconciled",
			slog.String("reason", reason),
			slog.Int("wallets", len(next.Wallets)),
			slog.String("active_id", next.ActiveID),
			slog.String("route", next.Route),
		)
		s.feed.Send(Change{Reason: reason, Previous: prev, State: next})
	}
	for _, cmd := range commands {
		if cmd.Kind == CommandNavigate {
			s.nav.GoToRoute(cmd.Route)
		}
	}
	return true
}

func (s *Store) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("notification failed", slog.String("kind", msg.Kind), slog.Any("error", err))
	}
}
