package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbrb/internal/app/uow"
	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
	"airbrb/internal/domain/pricing"
	"airbrb/internal/domain/shared/daterange"
	"airbrb/internal/domain/shared/money"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newListing(t *testing.T, id, host, title string) *domainlistings.Listing {
	t.Helper()
	l, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:            domainlistings.ListingID(id),
		Host:          domainlistings.HostID(host),
		Details:       domainlistings.Details{Title: title, Address: "1 Beach Rd"},
		PricePerNight: money.Must(15000, "USD"),
		Now:           testNow,
	})
	require.NoError(t, err)
	return l
}

func newBooking(t *testing.T, id, listing, guest, in, out string) *domainbooking.Booking {
	t.Helper()
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		ListingID: domainlistings.ListingID(listing),
		GuestID:   guest,
		Range:     daterange.MustParse(in, out),
		Quote:     pricing.Quote(3, money.Must(15000, "USD"), pricing.DiscountConfig{}),
		CreatedAt: testNow,
	})
	require.NoError(t, err)
	return b
}

func begin(t *testing.T, s *Store, readOnly bool) uow.UnitOfWork {
	t.Helper()
	unit, err := s.Begin(context.Background(), uow.TxOptions{ReadOnly: readOnly})
	require.NoError(t, err)
	return unit
}

func TestUnitStagesWritesUntilCommit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	writer := begin(t, store, false)
	l := newListing(t, "l1", "alice", "Beach house")
	require.NoError(t, writer.Listings().Save(ctx, l))

	got, err := writer.Listings().ByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "Beach house", got.Title)

	reader := begin(t, store, true)
	_, err = reader.Listings().ByID(ctx, "l1")
	assert.ErrorIs(t, err, domainlistings.ErrListingNotFound)

	require.NoError(t, writer.Commit(ctx))
	got, err = reader.Listings().ByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	unit := begin(t, store, false)
	require.NoError(t, unit.Bookings().Save(ctx, newBooking(t, "b1", "l1", "bob", "2024-06-10", "2024-06-13")))
	require.NoError(t, unit.Rollback(ctx))

	_, err := begin(t, store, true).Bookings().ByID(ctx, "b1")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	assert.ErrorIs(t, unit.Commit(ctx), ErrUnitClosed)
}

func TestReadsAreDetached(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	unit := begin(t, store, false)
	require.NoError(t, unit.Listings().Save(ctx, newListing(t, "l1", "alice", "Beach house")))
	require.NoError(t, unit.Commit(ctx))

	reader := begin(t, store, true)
	got, err := reader.Listings().ByID(ctx, "l1")
	require.NoError(t, err)
	got.Title = "changed"

	again, err := reader.Listings().ByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "Beach house", again.Title)
}

func TestCommitRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seed := begin(t, store, false)
	require.NoError(t, seed.Listings().Save(ctx, newListing(t, "l1", "alice", "Beach house")))
	require.NoError(t, seed.Commit(ctx))

	first := begin(t, store, false)
	second := begin(t, store, false)
	a, err := first.Listings().ByID(ctx, "l1")
	require.NoError(t, err)
	b, err := second.Listings().ByID(ctx, "l1")
	require.NoError(t, err)

	a.Title = "first"
	b.Title = "second"
	require.NoError(t, first.Listings().Save(ctx, a))
	require.NoError(t, second.Listings().Save(ctx, b))
	require.NoError(t, first.Commit(ctx))
	assert.ErrorIs(t, second.Commit(ctx), uow.ErrVersionConflict)

	got, err := begin(t, store, true).Listings().ByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
}

func TestReadOnlyUnitRejectsWrites(t *testing.T) {
	unit := begin(t, NewStore(), true)
	err := unit.Listings().Save(context.Background(), newListing(t, "l1", "alice", "Beach house"))
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestDeleteAndSearch(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seed := begin(t, store, false)
	for _, l := range []*domainlistings.Listing{
		newListing(t, "l1", "alice", "Beach house"),
		newListing(t, "l2", "alice", "Cabin"),
		newListing(t, "l3", "carol", "Apartment"),
	} {
		require.NoError(t, seed.Listings().Save(ctx, l))
	}
	require.NoError(t, seed.Commit(ctx))

	unit := begin(t, store, false)
	require.NoError(t, unit.Listings().Delete(ctx, "l2"))
	assert.ErrorIs(t, unit.Listings().Delete(ctx, "l2"), domainlistings.ErrListingNotFound)

	res, err := unit.Listings().Search(ctx, domainlistings.SearchParams{Host: "alice"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, domainlistings.ListingID("l1"), res.Items[0].ID)

	res, err = begin(t, store, true).Listings().Search(ctx, domainlistings.SearchParams{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, "Apartment", res.Items[0].Title)

	require.NoError(t, unit.Commit(ctx))
	_, err = begin(t, store, true).Listings().ByID(ctx, "l2")
	assert.ErrorIs(t, err, domainlistings.ErrListingNotFound)
}

func TestListByListingMergesStaged(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seed := begin(t, store, false)
	require.NoError(t, seed.Bookings().Save(ctx, newBooking(t, "b1", "l1", "bob", "2024-06-10", "2024-06-13")))
	require.NoError(t, seed.Bookings().Save(ctx, newBooking(t, "b2", "l2", "bob", "2024-06-10", "2024-06-13")))
	require.NoError(t, seed.Commit(ctx))

	unit := begin(t, store, false)
	require.NoError(t, unit.Bookings().Save(ctx, newBooking(t, "b3", "l1", "dave", "2024-06-20", "2024-06-23")))

	items, err := unit.Bookings().ListByListing(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domainbooking.BookingID("b1"), items[0].ID)
	assert.Equal(t, domainbooking.BookingID("b3"), items[1].ID)

	items, err = unit.Bookings().ListByGuest(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestLockListingSerialisesUnits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	first := begin(t, store, false)
	require.NoError(t, first.LockListing(ctx, "l1"))
	require.NoError(t, first.LockListing(ctx, "l1"))

	second := begin(t, store, false)
	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, second.LockListing(waitCtx, "l1"), context.DeadlineExceeded)
	require.NoError(t, second.LockListing(ctx, "l2"))

	acquired := make(chan error, 1)
	go func() { acquired <- second.LockListing(ctx, "l1") }()
	require.NoError(t, first.Commit(ctx))
	require.NoError(t, <-acquired)
	require.NoError(t, second.Rollback(ctx))
}

func TestLockTimeoutReportsConcurrentBooking(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.LockTimeout = 10 * time.Millisecond
	holder := begin(t, store, false)
	require.NoError(t, holder.LockListing(ctx, "l1"))
	defer holder.Rollback(ctx)

	err := begin(t, store, false).LockListing(ctx, "l1")
	assert.ErrorIs(t, err, uow.ErrConcurrentBooking)
}
