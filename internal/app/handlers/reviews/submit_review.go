package reviews

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"airbrb/internal/app/dto"
	"airbrb/internal/app/handlers/support"
	"airbrb/internal/app/middleware"
	"airbrb/internal/app/outbox"
	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
	domainreviews "airbrb/internal/domain/reviews"
)

const submitReviewKey = "reviews.submit"

// SubmitReviewCommand rates a stay. Sending it again for the same booking
// replaces the earlier rating and comment.
type SubmitReviewCommand struct {
	GuestID   string
	ListingID string `validate:"required"`
	BookingID string `validate:"required"`
	Rating    int    `validate:"min=1,max=5"`
	Comment   string `validate:"required,max=2000"`
}

func (c SubmitReviewCommand) Key() string     { return submitReviewKey }
func (c SubmitReviewCommand) ActorID() string { return c.GuestID }

// SubmitReviewHandler stores the review and refreshes the listing's rating
// summary in the same unit. The listing lock keeps concurrent reviews from
// computing the summary over stale sets.
type SubmitReviewHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   support.Clock
	Logger  *slog.Logger
}

func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) (*dto.Review, error) {
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	listingID := domainlistings.ListingID(cmd.ListingID)
	if err := unit.LockListing(ctx, listingID); err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if err := domainreviews.CheckBooking(booking, listing.ID, cmd.GuestID); err != nil {
		return nil, err
	}

	now := h.Clock.Time()
	review, err := unit.Reviews().ByBooking(ctx, booking.ID)
	switch {
	case errors.Is(err, domainreviews.ErrNotFound):
		review, err = domainreviews.Submit(domainreviews.SubmitParams{
			ID:        domainreviews.ReviewID(uuid.NewString()),
			Booking:   booking,
			ListingID: listing.ID,
			AuthorID:  cmd.GuestID,
			Rating:    cmd.Rating,
			Comment:   cmd.Comment,
			CreatedAt: now,
		})
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := review.Revise(cmd.Rating, cmd.Comment, now); err != nil {
			return nil, err
		}
	}
	if err := unit.Reviews().Save(ctx, review); err != nil {
		return nil, err
	}

	all, err := unit.Reviews().ListByListing(ctx, listing.ID)
	if err != nil {
		return nil, err
	}
	listing.UpdateRatings(domainreviews.Summarize(all), now)
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, review); err != nil {
		return nil, err
	}

	logger(h.Logger).InfoContext(ctx, "review submitted",
		"review_id", review.ID,
		"booking_id", booking.ID,
		"listing_id", listing.ID,
		"rating", review.Rating,
		"reviews", listing.Ratings.Count(),
	)
	result := dto.MapReview(review)
	return &result, nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

var _ middleware.ActorMessage = SubmitReviewCommand{}
