package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/walletsync/internal/logging"
	"github.com/congo-pay/walletsync/internal/notification"
	"github.com/congo-pay/walletsync/internal/routing"
	"github.com/congo-pay/walletsync/internal/wallet"
)

type fakeAPI struct {
	mu      sync.Mutex
	wallets []wallet.Wallet
	err     error
	calls   int
	// gates blocks the n-th GetWallets call (1-based) until closed.
	gates map[int]chan struct{}
}

func (a *fakeAPI) set(ws []wallet.Wallet, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.wallets = ws
	a.err = err
}

func (a *fakeAPI) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func (a *fakeAPI) GetWallets(context.Context) ([]wallet.Wallet, error) {
	a.mu.Lock()
	a.calls++
	gate := a.gates[a.calls]
	ws, err := a.wallets, a.err
	a.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return ws, nil
}

func (a *fakeAPI) CreateWallet(_ context.Context, req wallet.CreateRequest) (wallet.Wallet, error) {
	if req.Mnemonic == "bad" {
		return wallet.Wallet{}, wallet.ErrInvalidMnemonic
	}
	return wallet.Wallet{ID: "w9", Name: req.Name, Assurance: wallet.AssuranceNormal, HasPassword: req.Password != nil}, nil
}

type fakeNetwork struct {
	mu     sync.Mutex
	synced bool
}

func (n *fakeNetwork) Synced() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.synced
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.messages))
	for _, m := range n.messages {
		out = append(out, m.Kind)
	}
	return out
}

type harness struct {
	api      *fakeAPI
	router   *routing.Router
	network  *fakeNetwork
	notifier *recordingNotifier
	store    *Store

	mu          sync.Mutex
	navigations []string
}

func newHarness(t *testing.T, route string) *harness {
	t.Helper()
	h := &harness{
		api:      &fakeAPI{gates: map[int]chan struct{}{}},
		router:   routing.NewRouter(route, logging.Discard()),
		network:  &fakeNetwork{synced: true},
		notifier: &recordingNotifier{},
	}
	h.store = New(h.api, h.router, h.network, h.notifier, logging.Discard(), time.Hour)
	h.router.React(func(change routing.RouteChange) {
		h.mu.Lock()
		h.navigations = append(h.navigations, change.To)
		h.mu.Unlock()
		h.store.OnRouteChange()
	})
	return h
}

func (h *harness) routeChanges() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.navigations...)
}

func activeID(s *Store) string {
	w, _ := s.Active()
	return w.ID
}

func TestRefreshActivatesWalletFromRoute(t *testing.T) {
	h := newHarness(t, "/wallets/w1/summary")
	h.api.set(wallets("w1", "w2"), nil)

	require.NoError(t, h.store.RefreshWalletsData(context.Background()))

	assert.Equal(t, "w1", activeID(h.store))
	assert.Empty(t, h.routeChanges())
	assert.True(t, h.store.HasLoadedWallets())
	assert.True(t, h.store.HasAnyWallets())
}

func TestRefreshRedirectsUnknownWallet(t *testing.T) {
	h := newHarness(t, "/wallets/unknown/summary")
	h.api.set(wallets("w1", "w2"), nil)

	require.NoError(t, h.store.RefreshWalletsData(context.Background()))

	assert.Equal(t, "w1", activeID(h.store))
	assert.Equal(t, []string{"/wallets/w1/summary"}, h.routeChanges())
	assert.Equal(t, "/wallets/w1/summary", h.router.CurrentRoute())
	assert.Equal(t, "/wallets/w1/summary", h.store.Snapshot().Route)

	require.NoError(t, h.store.RefreshWalletsData(context.Background()))
	assert.Len(t, h.routeChanges(), 1, "a second refresh with the same inputs must not navigate")
}

func TestRefreshWithoutWalletsClearsActive(t *testing.T) {
	h := newHarness(t, "/wallets/w1/summary")
	h.api.set(wallets("w1"), nil)
	require.NoError(t, h.store.RefreshWalletsData(context.Background()))
	require.True(t, h.store.HasActiveWallet())

	h.api.set([]wallet.Wallet{}, nil)
	require.NoError(t, h.store.RefreshWalletsData(context.Background()))

	assert.False(t, h.store.HasActiveWallet())
	assert.True(t, h.store.HasLoadedWallets())
	assert.False(t, h.store.HasAnyWallets())
	assert.False(t, h.store.HasAnyLoaded())
	_, ok := h.store.ActiveWalletRoute()
	assert.False(t, ok)
}

func TestRefreshFailureKeepsLastKnownState(t *testing.T) {
	h := newHarness(t, "/wallets/w2/summary")
	h.api.set(wallets("w1", "w2"), nil)
	require.NoError(t, h.store.RefreshWalletsData(context.Background()))

	boom := errors.New("backend down")
	h.api.set(nil, boom)
	require.ErrorIs(t, h.store.RefreshWalletsData(context.Background()), boom)
	require.ErrorIs(t, h.store.RefreshWalletsData(context.Background()), boom)

	assert.Equal(t, wallets("w1", "w2"), h.store.All())
	assert.Equal(t, "w2", activeID(h.store))
	status := h.store.RefreshStatus()
	assert.True(t, status.Executed)
	assert.ErrorIs(t, status.Err, boom)

	h.api.set(wallets("w1", "w2"), nil)
	require.NoError(t, h.store.RefreshWalletsData(context.Background()))
	assert.NoError(t, h.store.RefreshStatus().Err)

	assert.Equal(t, []string{notification.KindRefreshFailed, notification.KindRefreshRecovered}, h.notifier.kinds())
}

func TestFailureBeforeFirstLoadMarksLoaded(t *testing.T) {
	h := newHarness(t, "/wallets")
	h.api.set(nil, errors.New("backend down"))

	require.Error(t, h.store.RefreshWalletsData(context.Background()))

	assert.True(t, h.store.HasLoadedWallets())
	assert.False(t, h.store.HasAnyWallets())
	assert.Empty(t, h.store.All())
}

func TestRouteChangesDriveActiveWallet(t *testing.T) {
	h := newHarness(t, "/wallets/w1/summary")
	h.api.set(wallets("w1", "w2"), nil)
	require.NoError(t, h.store.RefreshWalletsData(context.Background()))

	h.router.GoToRoute("/wallets/w2/send")
	assert.Equal(t, "w2", activeID(h.store))

	h.router.GoToRoute("/settings/general")
	assert.Equal(t, "w2", activeID(h.store))

	h.router.GoToRoute("/wallets")
	assert.Equal(t, "w2", activeID(h.store))
	assert.Equal(t, "/wallets/w2/summary", h.router.CurrentRoute())

	h.router.GoToRoute("/wallets/nope/summary")
	assert.Equal(t, "w1", activeID(h.store))
	assert.Equal(t, "/wallets/w1/summary", h.router.CurrentRoute())
}

func TestSetActiveWallet(t *testing.T) {
	h := newHarness(t, "/settings/general")
	assert.False(t, h.store.SetActiveWallet("w1"), "no wallets loaded yet")

	h.api.set(wallets("w1", "w2"), nil)
	require.NoError(t, h.store.RefreshWalletsData(context.Background()))

	assert.False(t, h.store.SetActiveWallet("missing"))
	assert.False(t, h.store.HasActiveWallet())

	assert.True(t, h.store.SetActiveWallet("w2"))
	assert.Equal(t, "w2", activeID(h.store))
	assert.Empty(t, h.routeChanges())

	route, ok := h.store.ActiveWalletRoute()
	assert.True(t, ok)
	assert.Equal(t, "/wallets/w2/summary", route)

	h.store.UnsetActiveWallet()
	assert.False(t, h.store.HasActiveWallet())
}

func TestLookups(t *testing.T) {
	h := newHarness(t, "/settings")
	h.api.set(wallets("w1", "w2"), nil)
	require.NoError(t, h.store.RefreshWalletsData(context.Background()))

	w, ok := h.store.GetWalletByName("wallet w2")
	require.True(t, ok)
	assert.Equal(t, "w2", w.ID)
	_, ok = h.store.GetWalletByName("nope")
	assert.False(t, ok)

	first, ok := h.store.First()
	require.True(t, ok)
	assert.Equal(t, "w1", first.ID)

	assert.Equal(t, "/wallets/w2/receive", h.store.GetWalletRoute("w2", "receive"))

	h.store.GoToWalletRoute("w2")
	assert.Equal(t, "/wallets/w2/summary", h.router.CurrentRoute())
	assert.Equal(t, "w2", activeID(h.store))
}

func TestTickSkipsWhileNetworkNotSynced(t *testing.T) {
	h := newHarness(t, "/wallets")
	h.api.set(wallets("w1"), nil)
	h.network.mu.Lock()
	h.network.synced = false
	h.network.mu.Unlock()

	assert.False(t, h.store.Tick(context.Background()))
	assert.Equal(t, 0, h.api.callCount())

	h.network.mu.Lock()
	h.network.synced = true
	h.network.mu.Unlock()

	assert.True(t, h.store.Tick(context.Background()))
	assert.Equal(t, "w1", activeID(h.store))
}

func TestTickSkipsWhileRefreshInFlight(t *testing.T) {
	h := newHarness(t, "/wallets")
	h.api.set(wallets("w1"), nil)
	gate := make(chan struct{})
	h.api.gates[1] = gate

	done := make(chan struct{})
	go func() {
		h.store.Tick(context.Background())
		close(done)
	}()
	require.Eventually(t, func() bool { return h.store.RefreshStatus().Executing }, time.Second, 5*time.Millisecond)

	assert.False(t, h.store.Tick(context.Background()))
	assert.Equal(t, 1, h.api.callCount())

	close(gate)
	<-done
	assert.Equal(t, "w1", activeID(h.store))
}

func TestStaleRefreshIsDropped(t *testing.T) {
	h := newHarness(t, "/wallets")
	h.api.set(wallets("old"), nil)
	gate := make(chan struct{})
	h.api.gates[1] = gate

	done := make(chan error, 1)
	go func() { done <- h.store.RefreshWalletsData(context.Background()) }()
	require.Eventually(t, func() bool { return h.api.callCount() == 1 }, time.Second, 5*time.Millisecond)

	h.api.set(wallets("new"), nil)
	require.NoError(t, h.store.RefreshWalletsData(context.Background()))
	assert.Equal(t, "new", activeID(h.store))

	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, wallets("new"), h.store.All())
	assert.Equal(t, "new", activeID(h.store))
}

func TestCreateWalletAddsAndNavigates(t *testing.T) {
	h := newHarness(t, "/no-wallets")
	h.api.set([]wallet.Wallet{}, nil)
	require.NoError(t, h.store.RefreshWalletsData(context.Background()))
	require.False(t, h.store.HasAnyWallets())

	created, err := h.store.CreateWallet(context.Background(), wallet.CreateRequest{Name: "Savings", Mnemonic: "ok"})
	require.NoError(t, err)
	assert.Equal(t, "w9", created.ID)

	assert.True(t, h.store.HasAnyWallets())
	assert.Equal(t, "w9", activeID(h.store))
	assert.Equal(t, "/wallets/w9/summary", h.router.CurrentRoute())
	assert.Contains(t, h.notifier.kinds(), notification.KindWalletCreated)

	_, err = h.store.CreateWallet(context.Background(), wallet.CreateRequest{Name: "Broken", Mnemonic: "bad"})
	assert.ErrorIs(t, err, wallet.ErrInvalidMnemonic)
	assert.Len(t, h.store.All(), 1)
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	h := newHarness(t, "/wallets/w2/summary")
	ch := make(chan Change, 8)
	sub := h.store.Subscribe(ch)
	defer sub.Unsubscribe()

	h.api.set(wallets("w1", "w2"), nil)
	require.NoError(t, h.store.RefreshWalletsData(context.Background()))

	select {
	case change := <-ch:
		assert.Equal(t, "refresh", change.Reason)
		assert.True(t, change.ActiveChanged())
		assert.Equal(t, "w2", change.State.ActiveID)
		assert.False(t, change.Previous.Loaded)
		assert.True(t, change.State.Loaded)
	case <-time.After(time.Second):
		t.Fatalf("expected a change")
	}
}

func TestRunRefreshesImmediately(t *testing.T) {
	h := newHarness(t, "/wallets")
	h.api.set(wallets("w1"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.store.Run(ctx) }()

	require.Eventually(t, func() bool { return h.store.HasActiveWallet() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "/wallets/w1/summary", h.router.CurrentRoute())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestCreateWalletWinsOverInFlightRefresh(t *testing.T) {
	h := newHarness(t, "/wallets")
	h.api.set(wallets("w1"), nil)
	require.NoError(t, h.store.RefreshWalletsData(context.Background()))

	gate := make(chan struct{})
	h.api.mu.Lock()
	h.api.gates[2] = gate
	h.api.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- h.store.RefreshWalletsData(context.Background()) }()
	require.Eventually(t, func() bool { return h.api.callCount() == 2 }, time.Second, 5*time.Millisecond)

	created, err := h.store.CreateWallet(context.Background(), wallet.CreateRequest{Name: "Savings", Mnemonic: "ok"})
	require.NoError(t, err)

	close(gate)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("refresh did not return")
	}

	all := h.store.All()
	require.Len(t, all, 2, "a list fetched before the wallet was created must not replace it")
	_, ok := h.store.GetWalletByID(created.ID)
	assert.True(t, ok)
	assert.Equal(t, created.ID, activeID(h.store))
	assert.Equal(t, "/wallets/w9/summary", h.router.CurrentRoute())

	h.api.set(append(wallets("w1"), created), nil)
	require.NoError(t, h.store.RefreshWalletsData(context.Background()))
	assert.Len(t, h.store.All(), 2, "refreshes issued after the creation still apply")
}

func TestTickKeepsPollingAfterFailure(t *testing.T) {
	h := newHarness(t, "/wallets/w2/summary")
	h.api.set(wallets("w1", "w2"), nil)
	require.True(t, h.store.Tick(context.Background()))
	require.Equal(t, "w2", activeID(h.store))

	boom := errors.New("node unreachable")
	h.api.set(nil, boom)

	assert.True(t, h.store.Tick(context.Background()))
	assert.Equal(t, 2, h.api.callCount())
	assert.True(t, h.store.Tick(context.Background()))
	assert.Equal(t, 3, h.api.callCount())

	assert.Equal(t, wallets("w1", "w2"), h.store.All())
	assert.Equal(t, "w2", activeID(h.store))
	assert.Equal(t, "/wallets/w2/summary", h.router.CurrentRoute())
	assert.ErrorIs(t, h.store.RefreshStatus().Err, boom)
	assert.False(t, h.store.RefreshStatus().Executing)

	h.api.set(wallets("w2"), nil)
	assert.True(t, h.store.Tick(context.Background()))
	assert.Equal(t, wallets("w2"), h.store.All())
	assert.NoError(t, h.store.RefreshStatus().Err)
}

func TestRunKeepsPollingAfterFailure(t *testing.T) {
	h := newHarness(t, "/wallets")
	h.store.interval = 5 * time.Millisecond
	h.api.set(wallets("w1"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.store.Run(ctx) }()
	require.Eventually(t, func() bool { return h.store.HasActiveWallet() }, time.Second, time.Millisecond)

	h.api.set(nil, errors.New("node unreachable"))
	calls := h.api.callCount()
	require.Eventually(t, func() bool { return h.api.callCount() >= calls+3 }, time.Second, time.Millisecond)
	assert.Equal(t, "w1", activeID(h.store))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestChangesCarryIncreasingVersions(t *testing.T) {
	h := newHarness(t, "/settings")
	ch := make(chan Change, 8)
	sub := h.store.Subscribe(ch)
	defer sub.Unsubscribe()

	h.api.set(wallets("w1", "w2"), nil)
	require.NoError(t, h.store.RefreshWalletsData(context.Background()))
	require.True(t, h.store.SetActiveWallet("w2"))
	h.store.UnsetActiveWallet()

	var last uint64
	for i := 0; i < 3; i++ {
		select {
		case change := <-ch:
			assert.Greater(t, change.State.Version, change.Previous.Version)
			assert.Greater(t, change.State.Version, last)
			last = change.State.Version
		case <-time.After(time.Second):
			t.Fatalf("expected change %d", i+1)
		}
	}
	assert.Equal(t, last, h.store.Snapshot().Version)
}
