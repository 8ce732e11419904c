// Package routing holds the UI route table the wallet store reasons about and
// the in-process router that tracks the route the UI currently shows.
package routing

import (
	"net/url"
	"strings"
)

const (
	WalletsRoot = "/wallets"
	WalletPage  = "/wallets/:id/:page"
	NoWallets   = "/no-wallets"

	// DefaultWalletPage is the page opened when navigating to a wallet.
	DefaultWalletPage = "summary"
)

// Build substitutes :name segments of pattern with params.
func Build(pattern string, params map[string]string) string {
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			segments[i] = url.PathEscape(params[seg[1:]])
		}
	}
	return strings.Join(segments, "/")
}

// WalletRoute returns the route of a wallet page. An empty page selects the
// default page.
func WalletRoute(walletID, page string) string {
	if page == "" {
		page = DefaultWalletPage
	}
	return Build(WalletPage, map[string]string{"id": walletID, "page": page})
}

// MatchWallet extracts the wallet id from routes shaped like
// /wallets/<id>(/<page>). The page is returned without its leading slash and
// may span several segments.
func MatchWallet(route string) (id, page string, ok bool) {
	path := stripQuery(route)
	rest, found := strings.CutPrefix(path, WalletsRoot+"/")
	if !found || rest == "" {
		return "", "", false
	}
	id, page, _ = strings.Cut(rest, "/")
	if id == "" {
		return "", "", false
	}
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}
	return id, page, true
}

// IsWalletsRoot reports whether route is the bare wallets root.
func IsWalletsRoot(route string) bool {
	return strings.TrimSuffix(stripQuery(route), "/") == WalletsRoot
}

// IsNoWallets reports whether route is the "no wallets" placeholder route.
func IsNoWallets(route string) bool {
	return strings.TrimSuffix(stripQuery(route), "/") == NoWallets
}

func stripQuery(route string) string {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		return route[:i]
	}
	return route
}
