package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"airbrb/internal/domain/booking"
	"airbrb/internal/domain/listings"
	"airbrb/internal/domain/shared/events"
)

const MaxCommentLength = 2000

var (
	ErrInvalidRating      = errors.New("reviews: rating must be between 1 and 5")
	ErrCommentRequired    = errors.New("reviews: comment is required")
	ErrCommentTooLong     = errors.New("reviews: comment is too long")
	ErrNotFound           = errors.New("reviews: not found")
	ErrNotGuest           = errors.New("reviews: booking does not belong to current user")
	ErrWrongListing       = errors.New("reviews: booking is for another listing")
	ErrBookingNotAccepted = errors.New("reviews: only accepted bookings can be reviewed")
)

type ReviewID string

// Review is a guest's rating of a stay. A booking carries at most one review;
// submitting again for the same booking revises it.
type Review struct {
	ID        ReviewID
	BookingID booking.BookingID
	ListingID listings.ListingID
	AuthorID  string
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByBooking(ctx context.Context, bookingID booking.BookingID) (*Review, error)
	ListByListing(ctx context.Context, listingID listings.ListingID) ([]*Review, error)
	Save(ctx context.Context, review *Review) error
}

type SubmitParams struct {
	ID        ReviewID
	Booking   *booking.Booking
	ListingID listings.ListingID
	AuthorID  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// CheckBooking reports whether author may review listing through b.
func CheckBooking(b *booking.Booking, listingID listings.ListingID, author string) error {
	if b == nil {
		return booking.ErrBookingNotFound
	}
	if author == "" || b.GuestID != author {
		return ErrNotGuest
	}
	if b.ListingID != listingID {
		return ErrWrongListing
	}
	if b.Status != booking.StatusAccepted {
		return ErrBookingNotAccepted
	}
	return nil
}

func Submit(params SubmitParams) (*Review, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("reviews: id is required")
	}
	if err := CheckBooking(params.Booking, params.ListingID, params.AuthorID); err != nil {
		return nil, err
	}
	comment, err := validate(params.Rating, params.Comment)
	if err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	review := &Review{
		ID:        params.ID,
		BookingID: params.Booking.ID,
		ListingID: params.ListingID,
		AuthorID:  params.AuthorID,
		Rating:    params.Rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	review.Record(ReviewSubmitted{
		ReviewID:  review.ID,
		BookingID: review.BookingID,
		ListingID: review.ListingID,
		AuthorID:  review.AuthorID,
		Rating:    review.Rating,
		At:        now,
	})
	return review, nil
}

// Revise replaces the rating and comment of an existing review.
func (r *Review) Revise(rating int, comment string, now time.Time) error {
	text, err := validate(rating, comment)
	if err != nil {
		return err
	}
	previous := r.Rating
	r.Rating = rating
	r.Comment = text
	r.UpdatedAt = now.UTC()
	r.Record(ReviewRevised{
		ReviewID:       r.ID,
		ListingID:      r.ListingID,
		Rating:         r.Rating,
		PreviousRating: previous,
		At:             r.UpdatedAt,
	})
	return nil
}

// Copy returns a detached snapshot without pending events.
func (r *Review) Copy() *Review {
	return &Review{
		ID:        r.ID,
		BookingID: r.BookingID,
		ListingID: r.ListingID,
		AuthorID:  r.AuthorID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Version:   r.Version,
	}
}

// Summarize counts items per star.
func Summarize(items []*Review) listings.RatingSummary {
	var summary listings.RatingSummary
	for _, r := range items {
		if r != nil {
			summary.Add(r.Rating)
		}
	}
	return summary
}

func validate(rating int, comment string) (string, error) {
	if rating < listings.MinRating || rating > listings.MaxRating {
		return "", ErrInvalidRating
	}
	text := strings.TrimSpace(comment)
	if text == "" {
		return "", ErrCommentRequired
	}
	if len([]rune(text)) > MaxCommentLength {
		return "", ErrCommentTooLong
	}
	return text, nil
}
