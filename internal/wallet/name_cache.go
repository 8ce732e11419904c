package wallet

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedNames fronts a NameRepository with a short-lived in-process cache.
// Every poll tick resolves the name of every wallet, names rarely change.
type CachedNames struct {
	repo  NameRepository
	cache *cache.Cache
}

// NewCachedNames wraps repo with a cache whose entries live for ttl.
func NewCachedNames(repo NameRepository, ttl time.Duration) *CachedNames {
	return &CachedNames{repo: repo, cache: cache.New(ttl, 2*ttl)}
}

// GetName returns the cached name or loads it from the repository.
func (c *CachedNames) GetName(ctx context.Context, walletID string) (string, error) {
	if v, ok := c.cache.Get(walletID); ok {
		return v.(string), nil
	}
	name, err := c.repo.GetName(ctx, walletID)
	if err != nil {
		return "", err
	}
	c.cache.Set(walletID, name, cache.DefaultExpiration)
	return name, nil
}

// SetName writes through to the repository and refreshes the cache.
func (c *CachedNames) SetName(ctx context.Context, walletID, name string) error {
	if err := c.repo.SetName(ctx, walletID, name); err != nil {
		c.cache.Delete(walletID)
		return err
	}
	c.cache.Set(walletID, name, cache.DefaultExpiration)
	return nil
}
