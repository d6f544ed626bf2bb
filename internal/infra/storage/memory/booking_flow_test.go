package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbrb/internal/app/commands"
	"airbrb/internal/app/dto"
	bookingapp "airbrb/internal/app/handlers/booking"
	listingapp "airbrb/internal/app/handlers/listings"
	"airbrb/internal/app/handlers/support"
	"airbrb/internal/app/middleware"
	appoutbox "airbrb/internal/app/outbox"
	"airbrb/internal/app/uow"
	domainbooking "airbrb/internal/domain/booking"
	"airbrb/internal/domain/eligibility"
	domainlistings "airbrb/internal/domain/listings"
)

type flow struct {
	store  *Store
	outbox *Outbox
	bus    commands.Bus
}

func newFlow(t *testing.T) flow {
	t.Helper()
	store := NewStore()
	box := NewOutbox(nil)
	clock := support.FixedClock(testNow, time.UTC)
	encoder := appoutbox.JSONEventEncoder{}

	base := commands.NewInMemoryBus()
	(&listingapp.CommandHandlers{Outbox: box, Encoder: encoder, Clock: clock, Currency: "USD"}).Register(base)
	bookingapp.RegisterCommands(base,
		&bookingapp.RequestBookingHandler{Outbox: box, Encoder: encoder, Clock: clock},
		&bookingapp.DecisionHandler{Outbox: box, Encoder: encoder, Clock: clock},
	)
	bus := middleware.ChainCommands(base,
		middleware.Authorization(middleware.RequireActor{}),
		middleware.Idempotency(NewIdempotencyStore(time.Hour), nil),
		middleware.OutboxFlush(box, nil),
		middleware.RetryConcurrent(3, time.Millisecond),
		middleware.Transaction(store, nil),
	)
	return flow{store: store, outbox: box, bus: bus}
}

func (f flow) publishedListing(t *testing.T, host string) string {
	t.Helper()
	ctx := context.Background()
	created, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.Listing](ctx, f.bus, listingapp.CreateListingCommand{
		HostID: host,
		Input: dto.ListingInput{
			Title:   "Beach house",
			Address: "1 Beach Rd",
			Price:   150,
			Metadata: dto.ListingMetadata{
				DiscountsEnabled: true,
				CustomDiscounts:  []dto.CustomDiscount{{MinNights: 7, Discount: 10}},
			},
		},
	})
	require.NoError(t, err)
	_, err = commands.Dispatch[listingapp.PublishListingCommand, *dto.Listing](ctx, f.bus, listingapp.PublishListingCommand{
		HostID:       host,
		ListingID:    created.ID,
		Availability: []dto.DateRange{{Start: "2024-06-01", End: "2024-12-31"}},
	})
	require.NoError(t, err)
	return created.ID
}

func (f flow) request(ctx context.Context, guest, listing, in, out, key string) (*dto.Booking, error) {
	return commands.Dispatch[bookingapp.RequestBookingCommand, *dto.Booking](ctx, f.bus, bookingapp.RequestBookingCommand{
		GuestID:         guest,
		ListingID:       listing,
		CheckIn:         in,
		CheckOut:        out,
		IdempotencyKeyV: key,
	})
}

func (f flow) bookingsFor(t *testing.T, listing string) int {
	t.Helper()
	unit := begin(t, f.store, true)
	items, err := unit.Bookings().ListByListing(context.Background(), domainlistings.ListingID(listing))
	require.NoError(t, err)
	return len(items)
}

func TestConcurrentOverlappingRequestsAdmitOne(t *testing.T) {
	f := newFlow(t)
	listing := f.publishedListing(t, "alice")

	const guests = 8
	var wg sync.WaitGroup
	errs := make([]error, guests)
	start := make(chan struct{})
	for i := 0; i < guests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			in := fmt.Sprintf("2024-06-%02d", 10+i%3)
			_, errs[i] = f.request(context.Background(), fmt.Sprintf("guest-%d", i), listing, in, "2024-06-15", "")
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, eligibility.ErrOverlapsExistingBooking)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.bookingsFor(t, listing))
}

func TestLockTimeoutIsRetried(t *testing.T) {
	f := newFlow(t)
	f.store.LockTimeout = 5 * time.Millisecond
	listing := f.publishedListing(t, "alice")

	holder := begin(t, f.store, false)
	require.NoError(t, holder.LockListing(context.Background(), domainlistings.ListingID(listing)))
	go func() {
		time.Sleep(8 * time.Millisecond)
		_ = holder.Rollback(context.Background())
	}()

	booked, err := f.request(context.Background(), "bob", listing, "2024-06-10", "2024-06-13", "")
	require.NoError(t, err)
	assert.Equal(t, "pending", booked.Status)
}

func TestLockTimeoutExhaustsRetries(t *testing.T) {
	f := newFlow(t)
	f.store.LockTimeout = time.Millisecond
	listing := f.publishedListing(t, "alice")

	holder := begin(t, f.store, false)
	require.NoError(t, holder.LockListing(context.Background(), domainlistings.ListingID(listing)))
	defer holder.Rollback(context.Background())

	_, err := f.request(context.Background(), "bob", listing, "2024-06-10", "2024-06-13", "")
	assert.ErrorIs(t, err, uow.ErrConcurrentBooking)
}

func TestIdempotentRequestReplays(t *testing.T) {
	f := newFlow(t)
	listing := f.publishedListing(t, "alice")
	ctx := context.Background()

	first, err := f.request(ctx, "bob", listing, "2024-06-10", "2024-06-20", "req-1")
	require.NoError(t, err)
	require.NotNil(t, first.TotalPrice)
	assert.InDelta(t, 1350.0, *first.TotalPrice, 0.001)

	again, err := f.request(ctx, "bob", listing, "2024-06-10", "2024-06-20", "req-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 1, f.bookingsFor(t, listing))

	// Another guest reusing the key is a different request.
	_, err = f.request(ctx, "carol", listing, "2024-06-10", "2024-06-20", "req-1")
	assert.ErrorIs(t, err, eligibility.ErrOverlapsExistingBooking)
}

func TestRejectedRequestIsNotReplayed(t *testing.T) {
	f := newFlow(t)
	listing := f.publishedListing(t, "alice")
	ctx := context.Background()

	_, err := f.request(ctx, "bob", listing, "2024-05-20", "2024-05-25", "req-2")
	require.ErrorIs(t, err, eligibility.ErrPastCheckIn)

	_, err = f.request(ctx, "bob", listing, "2024-06-20", "2024-06-25", "req-2")
	require.NoError(t, err)
}

func TestRequestPublishesEventsAfterCommit(t *testing.T) {
	var names []string
	pub := publisherFunc(func(_ context.Context, rec appoutbox.EventRecord) error {
		names = append(names, rec.Name)
		return nil
	})
	f := newFlow(t)
	f.outbox.Publisher = pub
	listing := f.publishedListing(t, "alice")

	_, err := f.request(context.Background(), "bob", listing, "2024-06-10", "2024-06-13", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"listing.created", "listing.published", "booking.requested"}, names)

	names = nil
	_, err = f.request(context.Background(), "carol", listing, "2024-06-11", "2024-06-12", "")
	require.Error(t, err)
	assert.Empty(t, names)
	assert.Empty(t, f.outbox.Pending())
}

func TestHostDecisionAndOwnListing(t *testing.T) {
	f := newFlow(t)
	listing := f.publishedListing(t, "alice")
	ctx := context.Background()

	_, err := f.request(ctx, "alice", listing, "2024-06-10", "2024-06-13", "")
	require.ErrorIs(t, err, bookingapp.ErrOwnListing)

	booked, err := f.request(ctx, "bob", listing, "2024-06-10", "2024-06-13", "")
	require.NoError(t, err)

	_, err = commands.Dispatch[bookingapp.AcceptBookingCommand, *dto.Booking](ctx, f.bus, bookingapp.AcceptBookingCommand{HostID: "bob", BookingID: booked.ID})
	require.ErrorIs(t, err, bookingapp.ErrBookingNotOwned)

	accepted, err := commands.Dispatch[bookingapp.AcceptBookingCommand, *dto.Booking](ctx, f.bus, bookingapp.AcceptBookingCommand{HostID: "alice", BookingID: booked.ID})
	require.NoError(t, err)
	assert.Equal(t, "accepted", accepted.Status)

	_, err = commands.Dispatch[bookingapp.DeclineBookingCommand, *dto.Booking](ctx, f.bus, bookingapp.DeclineBookingCommand{HostID: "alice", BookingID: booked.ID})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)
}

func TestAnonymousCommandRejected(t *testing.T) {
	f := newFlow(t)
	_, err := f.request(context.Background(), "", "l1", "2024-06-10", "2024-06-13", "")
	assert.ErrorIs(t, err, middleware.ErrUnauthenticated)
}

type publisherFunc func(ctx context.Context, rec appoutbox.EventRecord) error

func (f publisherFunc) Publish(ctx context.Context, rec appoutbox.EventRecord) error {
	return f(ctx, rec)
}
