package routing

import (
	"log/slog"
	"sync"
)

// RouteChange is passed to reactions whenever the current route changes.
type RouteChange struct {
	From string
	To   string
}

// Router keeps the route the UI currently displays.
type Router struct {
	mu        sync.RWMutex
	current   string
	reactions []func(RouteChange)
	logger    *slog.Logger
}

// NewRouter builds a router positioned at initial.
func NewRouter(initial string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{current: initial, logger: logger}
}

// CurrentRoute returns the route currently displayed.
func (r *Router) CurrentRoute() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// GoToRoute navigates to route. Navigating to the current route is a no-op.
// Reactions run synchronously on the calling goroutine, without the router
// lock held, so they may navigate again.
func (r *Router) GoToRoute(route string) {
	r.mu.Lock()
	prev := r.current
	if prev == route {
		r.mu.Unlock()
		return
	}
	r.current = route
	reactions := r.reactions
	r.mu.Unlock()

	r.logger.Debug("route changed", slog.String("from", prev), slog.String("to", route))
	change := RouteChange{From: prev, To: route}
	for _, react := range reactions {
		react(change)
	}
}

// React registers fn to run after every route change, in registration order.
func (r *Router) React(fn func(RouteChange)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reactions = append(r.reactions[:len(r.reactions):len(r.reactions)], fn)
}
