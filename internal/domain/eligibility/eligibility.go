// Package eligibility decides whether a stay may be booked and what it costs.
// Validate is pure: callers supply the listing snapshot, its bookings and the
// calendar day to treat as today.
package eligibility

import (
	"errors"
	"fmt"
	"time"

	"airbrb/internal/domain/availability"
	"airbrb/internal/domain/booking"
	"airbrb/internal/domain/listings"
	"airbrb/internal/domain/pricing"
	"airbrb/internal/domain/shared/daterange"
	"airbrb/internal/domain/shared/money"
)

// Reason names why a request was rejected. Every reason is correctable by the guest.
type Reason string

const (
	ReasonMissingDates              Reason = "MissingDates"
	ReasonInvertedOrEqualRange      Reason = "InvertedOrEqualRange"
	ReasonPastCheckIn               Reason = "PastCheckIn"
	ReasonOutsideAvailabilityWindow Reason = "OutsideAvailabilityWindow"
	ReasonOverlapsExistingBooking   Reason = "OverlapsExistingBooking"
)

var (
	ErrMissingDates              = &Rejection{Reason: ReasonMissingDates}
	ErrInvertedOrEqualRange      = &Rejection{Reason: ReasonInvertedOrEqualRange}
	ErrPastCheckIn               = &Rejection{Reason: ReasonPastCheckIn}
	ErrOutsideAvailabilityWindow = &Rejection{Reason: ReasonOutsideAvailabilityWindow}
	ErrOverlapsExistingBooking   = &Rejection{Reason: ReasonOverlapsExistingBooking}
)

var messages = map[Reason]string{
	ReasonMissingDates:              "check-in and check-out dates are required",
	ReasonInvertedOrEqualRange:      "check-out must be after check-in",
	ReasonPastCheckIn:               "check-in cannot be in the past",
	ReasonOutsideAvailabilityWindow: "dates are outside the listing's availability",
	ReasonOverlapsExistingBooking:   "dates overlap an existing booking",
}

// Rejection is the typed business outcome of a failed check. Two rejections
// match under errors.Is when their reasons are equal.
type Rejection struct {
	Reason Reason
	// Conflict is the blocking booking for ReasonOverlapsExistingBooking.
	Conflict *booking.Booking
}

func (r *Rejection) Error() string {
	msg, ok := messages[r.Reason]
	if !ok {
		msg = string(r.Reason)
	}
	if r.Conflict != nil {
		return fmt.Sprintf("eligibility: %s (booking %s %s)", msg, r.Conflict.ID, r.Conflict.Range)
	}
	return "eligibility: " + msg
}

func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Reason == r.Reason
}

// Message is the user-facing text for the reason.
func (r *Rejection) Message() string {
	return messages[r.Reason]
}

// AsRejection unwraps err to a Rejection.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// Snapshot is the part of a listing the checks read.
type Snapshot struct {
	Windows       []daterange.DateRange
	PricePerNight money.Money
	Discounts     pricing.DiscountConfig
}

func SnapshotOf(l *listings.Listing) Snapshot {
	if l == nil {
		return Snapshot{}
	}
	return Snapshot{
		Windows:       append([]daterange.DateRange(nil), l.Availability...),
		PricePerNight: l.PricePerNight,
		Discounts:     l.Discounts.Copy(),
	}
}

type Request struct {
	Candidate daterange.DateRange
	Today     time.Time
	Listing   Snapshot
	Existing  []*booking.Booking
}

// Validate runs the checks in order and stops at the first failure. On
// success it returns the quote for the candidate stay.
func Validate(req Request) (pricing.Result, error) {
	in, out := daterange.Day(req.Candidate.CheckIn), daterange.Day(req.Candidate.CheckOut)
	if in.IsZero() || out.IsZero() {
		return pricing.Result{}, ErrMissingDates
	}
	if !in.Before(out) {
		return pricing.Result{}, ErrInvertedOrEqualRange
	}
	if in.Before(daterange.Day(req.Today)) {
		return pricing.Result{}, ErrPastCheckIn
	}
	candidate := daterange.Of(in, out)
	if !availability.WithinWindows(candidate, req.Listing.Windows) {
		return pricing.Result{}, ErrOutsideAvailabilityWindow
	}
	if conflict, found := availability.Conflicts(candidate, req.Existing); found {
		return pricing.Result{}, &Rejection{Reason: ReasonOverlapsExistingBooking, Conflict: conflict.Copy()}
	}
	nights := pricing.ComputeNights(candidate)
	return pricing.Quote(nights, req.Listing.PricePerNight, req.Listing.Discounts), nil
}
