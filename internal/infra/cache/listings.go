// Package cache keeps recently read listings in process memory. Only read
// only units are served from the cache; writing units always read their
// store so version checks see the committed row.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/karlseguin/ccache/v3"

	"airbrb/internal/app/uow"
	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
)

const (
	defaultSize = 1000
	defaultTTL  = 30 * time.Second
)

// ListingCache decorates a unit of work factory with a read-through cache of
// listing snapshots.
type ListingCache struct {
	next  uow.UoWFactory
	items *ccache.Cache[*domainlistings.Listing]
	ttl   time.Duration
}

func NewListingCache(next uow.UoWFactory, size int64, ttl time.Duration) *ListingCache {
	if size <= 0 {
		size = defaultSize
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ListingCache{
		next:  next,
		items: ccache.New(ccache.Configure[*domainlistings.Listing]().MaxSize(size)),
		ttl:   ttl,
	}
}

func (c *ListingCache) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := c.next.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &cachedUnit{UnitOfWork: unit, cache: c, readOnly: opts.ReadOnly}, nil
}

// Invalidate drops one listing.
func (c *ListingCache) Invalidate(id domainlistings.ListingID) {
	c.items.Delete(string(id))
}

// Stop releases the cache's background worker.
func (c *ListingCache) Stop() {
	c.items.Stop()
}

func (c *ListingCache) get(id domainlistings.ListingID) (*domainlistings.Listing, bool) {
	item := c.items.Get(string(id))
	if item == nil || item.Expired() {
		return nil, false
	}
	return item.Value().Copy(), true
}

func (c *ListingCache) put(l *domainlistings.Listing) {
	c.items.Set(string(l.ID), l.Copy(), c.ttl)
}

type cachedUnit struct {
	uow.UnitOfWork
	cache    *ListingCache
	readOnly bool

	mu    sync.Mutex
	dirty []domainlistings.ListingID
}

func (u *cachedUnit) Listings() domainlistings.ListingRepository {
	return &cachedListings{next: u.UnitOfWork.Listings(), unit: u}
}

func (u *cachedUnit) Bookings() domainbooking.Repository {
	return u.UnitOfWork.Bookings()
}

// Commit evicts every listing the unit wrote once the store accepted it.
func (u *cachedUnit) Commit(ctx context.Context) error {
	if err := u.UnitOfWork.Commit(ctx); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, id := range u.dirty {
		u.cache.Invalidate(id)
	}
	u.dirty = nil
	return nil
}

func (u *cachedUnit) Unwrap() uow.UnitOfWork {
	return u.UnitOfWork
}

func (u *cachedUnit) InjectContext(ctx context.Context) context.Context {
	if injector, ok := u.UnitOfWork.(uow.Injector); ok {
		return injector.InjectContext(ctx)
	}
	return ctx
}

func (u *cachedUnit) touch(id domainlistings.ListingID) {
	u.mu.Lock()
	u.dirty = append(u.dirty, id)
	u.mu.Unlock()
}

type cachedListings struct {
	next domainlistings.ListingRepository
	unit *cachedUnit
}

func (r *cachedListings) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	if !r.unit.readOnly {
		return r.next.ByID(ctx, id)
	}
	if l, ok := r.unit.cache.get(id); ok {
		return l, nil
	}
	l, err := r.next.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.unit.cache.put(l)
	return l, nil
}

func (r *cachedListings) Save(ctx context.Context, l *domainlistings.Listing) error {
	if err := r.next.Save(ctx, l); err != nil {
		return err
	}
	r.unit.touch(l.ID)
	return nil
}

func (r *cachedListings) Delete(ctx context.Context, id domainlistings.ListingID) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.unit.touch(id)
	return nil
}

func (r *cachedListings) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	return r.next.Search(ctx, params)
}

var (
	_ uow.UoWFactory = (*ListingCache)(nil)
	_ uow.Wrapper    = (*cachedUnit)(nil)
	_ uow.Injector   = (*cachedUnit)(nil)
)
