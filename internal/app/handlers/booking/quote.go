package booking

import (
	"context"

	"airbrb/internal/app/dto"
	"airbrb/internal/app/handlers/support"
	"airbrb/internal/app/uow"
	"airbrb/internal/domain/eligibility"
	domainlistings "airbrb/internal/domain/listings"
	"airbrb/internal/domain/shared/daterange"
)

const quoteBookingKey = "booking.quote"

// QuoteBookingQuery runs the same checks as a booking request without
// persisting anything. GuestID may be empty for anonymous visitors.
type QuoteBookingQuery struct {
	GuestID   string
	ListingID string `validate:"required"`
	CheckIn   string `validate:"isodate"`
	CheckOut  string `validate:"isodate"`
}

func (q QuoteBookingQuery) Key() string { return quoteBookingKey }

type QuoteBookingHandler struct {
	UoWFactory uow.UoWFactory
	Clock      support.Clock
}

func (h *QuoteBookingHandler) Handle(ctx context.Context, q QuoteBookingQuery) (dto.Quote, error) {
	candidate, err := daterange.Parse(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Quote{}, err
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listingID := domainlistings.ListingID(q.ListingID)
	listing, err := bookableListing(execCtx, unit, listingID, q.GuestID)
	if err != nil {
		return dto.Quote{}, err
	}
	existing, err := unit.Bookings().ListByListing(execCtx, listingID)
	if err != nil {
		return dto.Quote{}, err
	}
	res, err := eligibility.Validate(eligibility.Request{
		Candidate: candidate,
		Today:     h.Clock.Today(),
		Listing:   eligibility.SnapshotOf(listing),
		Existing:  existing,
	})
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(res), nil
}
