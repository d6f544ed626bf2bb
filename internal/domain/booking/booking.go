package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"airbrb/internal/domain/listings"
	"airbrb/internal/domain/pricing"
	"airbrb/internal/domain/shared/daterange"
	"airbrb/internal/domain/shared/events"
	"airbrb/internal/domain/shared/money"
)

var (
	ErrInvalidState    = errors.New("booking: invalid state transition")
	ErrBookingNotFound = errors.New("booking: not found")
	ErrGuestRequired   = errors.New("booking: guest id required")
	ErrInvalidStatus   = errors.New("booking: unknown status")
)

type BookingID string

// Status is the host's decision on a request. Accepted and declined are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

func ParseStatus(value string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(value))); s {
	case StatusPending, StatusAccepted, StatusDeclined:
		return s, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Blocking reports whether a booking in this status holds its nights.
func (s Status) Blocking() bool {
	return s == StatusPending || s == StatusAccepted
}

func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// Booking is a guest request for a listing. Range and the captured quote never
// change after creation; only Status moves.
type Booking struct {
	ID              BookingID
	ListingID       listings.ListingID
	GuestID         string
	Range           daterange.DateRange
	Status          Status
	Nights          int
	DiscountPercent pricing.Percent
	TotalPrice      *money.Money
	DeclineReason   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByListing(ctx context.Context, listingID listings.ListingID) ([]*Booking, error)
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
}

type CreateParams struct {
	ID        BookingID
	ListingID listings.ListingID
	GuestID   string
	Range     daterange.DateRange
	Quote     pricing.Result
	CreatedAt time.Time
}

// NewBooking records a pending request. The quote must come from a successful
// eligibility check over the same range.
func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("booking: id required")
	}
	if strings.TrimSpace(string(params.ListingID)) == "" {
		return nil, errors.New("booking: listing id required")
	}
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	period, err := daterange.New(params.Range.CheckIn, params.Range.CheckOut)
	if err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	total := params.Quote.TotalPrice
	b := &Booking{
		ID:              params.ID,
		ListingID:       params.ListingID,
		GuestID:         params.GuestID,
		Range:           period,
		Status:          StatusPending,
		Nights:          params.Quote.Nights,
		DiscountPercent: params.Quote.DiscountPercent,
		TotalPrice:      &total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingRequested{
		BookingID:  b.ID,
		ListingID:  b.ListingID,
		GuestID:    b.GuestID,
		Range:      b.Range,
		TotalPrice: total,
		At:         now,
	})
	return b, nil
}

func (b *Booking) Accept(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusAccepted
	b.UpdatedAt = now.UTC()
	b.Record(BookingAccepted{BookingID: b.ID, ListingID: b.ListingID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Decline(reason string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusDeclined
	b.DeclineReason = strings.TrimSpace(reason)
	b.UpdatedAt = now.UTC()
	b.Record(BookingDeclined{BookingID: b.ID, ListingID: b.ListingID, Reason: b.DeclineReason, At: b.UpdatedAt})
	return nil
}

// Period and Blocking let availability checks consume bookings directly.
func (b *Booking) Period() daterange.DateRange {
	if b == nil {
		return daterange.DateRange{}
	}
	return b.Range
}

func (b *Booking) Blocking() bool {
	return b != nil && b.Status.Blocking()
}

// Copy returns a detached snapshot without pending events.
func (b *Booking) Copy() *Booking {
	clone := &Booking{
		ID:              b.ID,
		ListingID:       b.ListingID,
		GuestID:         b.GuestID,
		Range:           b.Range,
		Status:          b.Status,
		Nights:          b.Nights,
		DiscountPercent: b.DiscountPercent,
		DeclineReason:   b.DeclineReason,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
		Version:         b.Version,
	}
	if b.TotalPrice != nil {
		total := *b.TotalPrice
		clone.TotalPrice = &total
	}
	return clone
}
