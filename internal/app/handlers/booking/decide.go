package booking

import (
	"context"
	"errors"
	"log/slog"

	"airbrb/internal/app/dto"
	"airbrb/internal/app/handlers/support"
	"airbrb/internal/app/outbox"
	"airbrb/internal/app/uow"
	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
)

const (
	acceptBookingKey  = "booking.accept"
	declineBookingKey = "booking.decline"
)

var ErrBookingNotOwned = errors.New("booking: listing not owned by host")

type AcceptBookingCommand struct {
	HostID    string
	BookingID string `validate:"required"`
}

func (c AcceptBookingCommand) Key() string     { return acceptBookingKey }
func (c AcceptBookingCommand) ActorID() string { return c.HostID }

type DeclineBookingCommand struct {
	HostID    string
	BookingID string `validate:"required"`
	Reason    string `validate:"max=500"`
}

func (c DeclineBookingCommand) Key() string     { return declineBookingKey }
func (c DeclineBookingCommand) ActorID() string { return c.HostID }

// DecisionHandler applies a host's answer to a pending request.
type DecisionHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   support.Clock
	Logger  *slog.Logger
}

func (h *DecisionHandler) Accept(ctx context.Context, cmd AcceptBookingCommand) (*dto.Booking, error) {
	return h.decide(ctx, cmd.HostID, cmd.BookingID, func(b *domainbooking.Booking) error {
		return b.Accept(h.Clock.Time())
	})
}

func (h *DecisionHandler) Decline(ctx context.Context, cmd DeclineBookingCommand) (*dto.Booking, error) {
	return h.decide(ctx, cmd.HostID, cmd.BookingID, func(b *domainbooking.Booking) error {
		return b.Decline(cmd.Reason, h.Clock.Time())
	})
}

func (h *DecisionHandler) decide(ctx context.Context, hostID, bookingID string, apply func(*domainbooking.Booking) error) (*dto.Booking, error) {
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	booking, listing, err := hostBooking(ctx, unit, hostID, bookingID)
	if err != nil {
		return nil, err
	}
	if err := apply(booking); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, booking); err != nil {
		return nil, err
	}
	logger(h.Logger).InfoContext(ctx, "booking decided", "booking_id", booking.ID, "status", booking.Status)
	result := dto.MapBooking(booking, listing)
	return &result, nil
}

func hostBooking(ctx context.Context, unit uow.UnitOfWork, hostID, bookingID string) (*domainbooking.Booking, *domainlistings.Listing, error) {
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return nil, nil, err
	}
	listing, err := unit.Listings().ByID(ctx, booking.ListingID)
	if err != nil {
		return nil, nil, err
	}
	if !listing.OwnedBy(domainlistings.HostID(hostID)) {
		return nil, nil, ErrBookingNotOwned
	}
	return booking, listing, nil
}
