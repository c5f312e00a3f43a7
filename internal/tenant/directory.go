package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kasirku/kasir/internal/access"
)

// ErrStoreRequired is returned when a write needs a store and the scope has none.
var ErrStoreRequired = errors.New("store id is required")

var (
	directoryHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kasir_store_directory_hits_total",
		Help: "Store to tenant lookups served from cache.",
	})
	directoryMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kasir_store_directory_misses_total",
		Help: "Store to tenant lookups that went to the database.",
	})
)

// StoreLookup resolves the owning tenant of a store.
type StoreLookup interface {
	StoreTenant(ctx context.Context, storeID uuid.UUID) (uuid.UUID, error)
}

// Directory caches store to tenant ownership. Stores never move between
// tenants, so entries only expire to bound memory and pick up deletions.
type Directory struct {
	lookup StoreLookup
	cache  *expirable.LRU[uuid.UUID, uuid.UUID]
}

// NewDirectory creates a Directory holding at most size entries for ttl.
func NewDirectory(lookup StoreLookup, size int, ttl time.Duration) *Directory {
	return &Directory{
		lookup: lookup,
		cache:  expirable.NewLRU[uuid.UUID, uuid.UUID](size, nil, ttl),
	}
}

// TenantOf returns the tenant that owns storeID.
func (d *Directory) TenantOf(ctx context.Context, storeID uuid.UUID) (uuid.UUID, error) {
	if tenantID, ok := d.cache.Get(storeID); ok {
		directoryHitsTotal.Inc()
		return tenantID, nil
	}
	directoryMissesTotal.Inc()

	tenantID, err := d.lookup.StoreTenant(ctx, storeID)
	if err != nil {
		return uuid.Nil, err
	}
	d.cache.Add(storeID, tenantID)
	return tenantID, nil
}

// Forget drops a cached entry, e.g. after the store was deleted.
func (d *Directory) Forget(storeID uuid.UUID) {
	d.cache.Remove(storeID)
}

// Check verifies that scope may address the store it carries. A scope
// without a store passes. A malformed id, an unknown store and a store of
// another tenant all yield ErrStoreNotFound.
func (d *Directory) Check(ctx context.Context, scope access.Scope) error {
	if !scope.HasStore() {
		return nil
	}
	_, _, err := d.Locate(ctx, scope)
	return err
}

// Locate returns the tenant and store a write under scope lands in.
func (d *Directory) Locate(ctx context.Context, scope access.Scope) (uuid.UUID, uuid.UUID, error) {
	if !scope.HasStore() {
		return uuid.Nil, uuid.Nil, ErrStoreRequired
	}

	storeID, err := uuid.Parse(scope.StoreID)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrStoreNotFound
	}

	tenantID, err := d.TenantOf(ctx, storeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	if !scope.CanSeeStore(tenantID.String(), storeID.String()) {
		return uuid.Nil, uuid.Nil, ErrStoreNotFound
	}

	return tenantID, storeID, nil
}

// Len returns the number of cached entries.
func (d *Directory) Len() int {
	return d.cache.Len()
}
