package reviews

import (
	"time"

	"airbrb/internal/domain/booking"
	"airbrb/internal/domain/listings"
)

type ReviewSubmitted struct {
	ReviewID  ReviewID
	BookingID booking.BookingID
	ListingID listings.ListingID
	AuthorID  string
	Rating    int
	At        time.Time
}

func (e ReviewSubmitted) EventName() string     { return "review.submitted" }
func (e ReviewSubmitted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewSubmitted) OccurredAt() time.Time { return e.At }

type ReviewRevised struct {
	ReviewID       ReviewID
	ListingID      listings.ListingID
	Rating         int
	PreviousRating int
	At             time.Time
}

func (e ReviewRevised) EventName() string     { return "review.revised" }
func (e ReviewRevised) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewRevised) OccurredAt() time.Time { return e.At }
