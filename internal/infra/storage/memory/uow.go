package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"airbrb/internal/app/uow"
	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
	domainreviews "airbrb/internal/domain/reviews"
)

var (
	ErrReadOnly   = errors.New("memory: unit of work is read-only")
	ErrUnitClosed = errors.New("memory: unit of work already finished")
)

// Store keeps listings, bookings and reviews in process and hands out units
// of work with staged writes. Commit applies a unit atomically and rejects
// stale aggregate versions.
type Store struct {
	// LockTimeout bounds how long LockListing waits before reporting
	// uow.ErrConcurrentBooking. Zero waits until the context ends.
	LockTimeout time.Duration

	mu       sync.RWMutex
	listings map[domainlistings.ListingID]*domainlistings.Listing
	bookings map[domainbooking.BookingID]*domainbooking.Booking
	reviews  map[domainbooking.BookingID]*domainreviews.Review
	locks    listingLocks
}

func NewStore() *Store {
	return &Store{
		listings: make(map[domainlistings.ListingID]*domainlistings.Listing),
		bookings: make(map[domainbooking.BookingID]*domainbooking.Booking),
		reviews:  make(map[domainbooking.BookingID]*domainreviews.Review),
		locks:    listingLocks{held: make(map[domainlistings.ListingID]chan struct{})},
	}
}

func (s *Store) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Unit{
		store:    s,
		readOnly: opts.ReadOnly,
		listings: make(map[domainlistings.ListingID]stagedListing),
		bookings: make(map[domainbooking.BookingID]stagedBooking),
		reviews:  make(map[domainbooking.BookingID]stagedReview),
	}, nil
}

// Unit is a uow.UnitOfWork over a Store.
type Unit struct {
	store    *Store
	readOnly bool

	mu          sync.Mutex
	listings    map[domainlistings.ListingID]stagedListing
	bookings    map[domainbooking.BookingID]stagedBooking
	reviews     map[domainbooking.BookingID]stagedReview
	locked      map[domainlistings.ListingID]struct{}
	releases    []func()
	afterCommit []func()
	done        bool
}

type stagedListing struct {
	listing *domainlistings.Listing
	base    int64
	deleted bool
}

type stagedBooking struct {
	booking *domainbooking.Booking
	base    int64
}

type stagedReview struct {
	review *domainreviews.Review
	base   int64
}

func (u *Unit) Listings() domainlistings.ListingRepository {
	return unitListings{unit: u}
}

func (u *Unit) Bookings() domainbooking.Repository {
	return unitBookings{unit: u}
}

func (u *Unit) Reviews() domainreviews.Repository {
	return unitReviews{unit: u}
}

func (u *Unit) LockListing(ctx context.Context, id domainlistings.ListingID) error {
	u.mu.Lock()
	if u.done {
		u.mu.Unlock()
		return ErrUnitClosed
	}
	if _, ok := u.locked[id]; ok {
		u.mu.Unlock()
		return nil
	}
	u.mu.Unlock()

	release, err := u.store.locks.acquire(ctx, id, u.store.LockTimeout)
	if err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		release()
		return ErrUnitClosed
	}
	if u.locked == nil {
		u.locked = make(map[domainlistings.ListingID]struct{})
	}
	u.locked[id] = struct{}{}
	u.releases = append(u.releases, release)
	return nil
}

// OnCommit registers fn to run after a successful commit.
func (u *Unit) OnCommit(fn func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.afterCommit = append(u.afterCommit, fn)
}

func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	defer u.finish()

	s := u.store
	s.mu.Lock()
	if err := u.checkVersions(); err != nil {
		s.mu.Unlock()
		return err
	}
	for id, staged := range u.listings {
		if staged.deleted {
			delete(s.listings, id)
			continue
		}
		s.listings[id] = staged.listing
	}
	for id, staged := range u.bookings {
		s.bookings[id] = staged.booking
	}
	for id, staged := range u.reviews {
		s.reviews[id] = staged.review
	}
	s.mu.Unlock()

	for _, fn := range u.afterCommit {
		fn()
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return nil
	}
	u.finish()
	return nil
}

// checkVersions must run with the store write lock held.
func (u *Unit) checkVersions() error {
	s := u.store
	for id, staged := range u.listings {
		current, ok := s.listings[id]
		switch {
		case !ok && staged.base != 0:
			return domainlistings.ErrListingNotFound
		case ok && current.Version != staged.base:
			return uow.ErrVersionConflict
		}
	}
	for id, staged := range u.bookings {
		current, ok := s.bookings[id]
		switch {
		case !ok && staged.base != 0:
			return domainbooking.ErrBookingNotFound
		case ok && current.Version != staged.base:
			return uow.ErrVersionConflict
		}
	}
	for id, staged := range u.reviews {
		current, ok := s.reviews[id]
		switch {
		case !ok && staged.base != 0:
			return domainreviews.ErrNotFound
		case ok && current.Version != staged.base:
			return uow.ErrVersionConflict
		}
	}
	return nil
}

// finish must run with u.mu held.
func (u *Unit) finish() {
	u.done = true
	for i := len(u.releases) - 1; i >= 0; i-- {
		u.releases[i]()
	}
	u.releases = nil
	u.locked = nil
	u.afterCommit = nil
	u.listings = nil
	u.bookings = nil
	u.reviews = nil
}

func (u *Unit) writable() error {
	if u.readOnly {
		return ErrReadOnly
	}
	if u.done {
		return ErrUnitClosed
	}
	return nil
}

type listingLocks struct {
	mu   sync.Mutex
	held map[domainlistings.ListingID]chan struct{}
}

func (l *listingLocks) acquire(ctx context.Context, id domainlistings.ListingID, timeout time.Duration) (func(), error) {
	l.mu.Lock()
	slot, ok := l.held[id]
	if !ok {
		slot = make(chan struct{}, 1)
		l.held[id] = slot
	}
	l.mu.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-expired:
		return nil, uow.ErrConcurrentBooking
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ uow.UoWFactory = (*Store)(nil)
var _ uow.UnitOfWork = (*Unit)(nil)
