package booking

import (
	"time"

	"airbrb/internal/domain/listings"
	"airbrb/internal/domain/shared/daterange"
	"airbrb/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID  BookingID
	ListingID  listings.ListingID
	GuestID    string
	Range      daterange.DateRange
	TotalPrice money.Money
	At         time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingAccepted struct {
	BookingID BookingID
	ListingID listings.ListingID
	At        time.Time
}

func (e BookingAccepted) EventName() string     { return "booking.accepted" }
func (e BookingAccepted) AggregateID() string   { return string(e.BookingID) }
func (e BookingAccepted) OccurredAt() time.Time { return e.At }

type BookingDeclined struct {
	BookingID BookingID
	ListingID listings.ListingID
	Reason    string
	At        time.Time
}

func (e BookingDeclined) EventName() string     { return "booking.declined" }
func (e BookingDeclined) AggregateID() string   { return string(e.BookingID) }
func (e BookingDeclined) OccurredAt() time.Time { return e.At }
