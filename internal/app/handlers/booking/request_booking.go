package booking

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"airbrb/internal/app/dto"
	"airbrb/internal/app/handlers/support"
	"airbrb/internal/app/middleware"
	"airbrb/internal/app/outbox"
	"airbrb/internal/app/uow"
	domainbooking "airbrb/internal/domain/booking"
	"airbrb/internal/domain/eligibility"
	domainlistings "airbrb/internal/domain/listings"
	"airbrb/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

var ErrOwnListing = errors.New("booking: hosts cannot book their own listing")

type RequestBookingCommand struct {
	GuestID         string
	ListingID       string `validate:"required"`
	CheckIn         string `validate:"isodate"`
	CheckOut        string `validate:"isodate"`
	IdempotencyKeyV string `validate:"max=200"`
}

func (c RequestBookingCommand) Key() string            { return requestBookingKey }
func (c RequestBookingCommand) ActorID() string        { return c.GuestID }
func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (c RequestBookingCommand) ResultPrototype() any   { return &dto.Booking{} }

// RequestBookingHandler creates a pending booking. The listing lock is taken
// before existing bookings are read, so validation and the insert commit as
// one step with respect to other requests for the same listing.
type RequestBookingHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   support.Clock
	Logger  *slog.Logger
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*dto.Booking, error) {
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	candidate, err := daterange.Parse(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	listingID := domainlistings.ListingID(cmd.ListingID)
	if err := unit.LockListing(ctx, listingID); err != nil {
		return nil, err
	}
	listing, err := bookableListing(ctx, unit, listingID, cmd.GuestID)
	if err != nil {
		return nil, err
	}
	existing, err := unit.Bookings().ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	quote, err := eligibility.Validate(eligibility.Request{
		Candidate: candidate,
		Today:     h.Clock.Today(),
		Listing:   eligibility.SnapshotOf(listing),
		Existing:  existing,
	})
	if err != nil {
		return nil, err
	}

	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(uuid.NewString()),
		ListingID: listing.ID,
		GuestID:   cmd.GuestID,
		Range:     candidate,
		Quote:     quote,
		CreatedAt: h.Clock.Time(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, booking); err != nil {
		return nil, err
	}
	logger(h.Logger).InfoContext(ctx, "booking requested",
		"booking_id", booking.ID,
		"listing_id", listing.ID,
		"nights", quote.Nights,
		"total", quote.TotalPrice.String(),
	)
	result := dto.MapBooking(booking, listing)
	return &result, nil
}

// bookableListing loads a published listing the guest does not own.
func bookableListing(ctx context.Context, unit uow.UnitOfWork, id domainlistings.ListingID, guest string) (*domainlistings.Listing, error) {
	listing, err := unit.Listings().ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !listing.Published() {
		return nil, domainlistings.ErrNotPublished
	}
	if listing.OwnedBy(domainlistings.HostID(guest)) {
		return nil, ErrOwnListing
	}
	return listing, nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

var _ middleware.IdempotentCommand = RequestBookingCommand{}
var _ middleware.ActorMessage = RequestBookingCommand{}
