package reviews

import (
	"context"

	"airbrb/internal/app/dto"
	"airbrb/internal/app/handlers/support"
	"airbrb/internal/app/uow"
	domainlistings "airbrb/internal/domain/listings"
	domainreviews "airbrb/internal/domain/reviews"
)

const (
	listReviewsKey     = "reviews.list"
	defaultReviewLimit = 20
	maxReviewLimit     = 100
)

// ListListingReviewsQuery pages through a listing's reviews, newest first.
// A non-zero Rating keeps only reviews with that many stars. The summary
// always covers every review.
type ListListingReviewsQuery struct {
	ViewerID  string
	ListingID string `validate:"required"`
	Rating    int    `validate:"gte=0,lte=5"`
	Limit     int    `validate:"gte=0"`
	Offset    int    `validate:"gte=0"`
}

func (q ListListingReviewsQuery) Key() string { return listReviewsKey }

type ListHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListHandler) Handle(ctx context.Context, q ListListingReviewsQuery) (dto.ReviewCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	if !listing.Published() && !listing.OwnedBy(domainlistings.HostID(q.ViewerID)) {
		return dto.ReviewCollection{}, domainlistings.ErrListingNotFound
	}
	all, err := unit.Reviews().ListByListing(execCtx, listing.ID)
	if err != nil {
		return dto.ReviewCollection{}, err
	}

	matched := make([]*domainreviews.Review, 0, len(all))
	for _, r := range all {
		if q.Rating == 0 || r.Rating == q.Rating {
			matched = append(matched, r)
		}
	}
	page := pageOf(matched, q.Offset, q.Limit)
	items := make([]dto.Review, 0, len(page))
	for _, r := range page {
		items = append(items, dto.MapReview(r))
	}
	return dto.ReviewCollection{
		Items:   items,
		Total:   len(matched),
		Summary: dto.MapRatingSummary(domainreviews.Summarize(all)),
	}, nil
}

func pageOf(items []*domainreviews.Review, offset, limit int) []*domainreviews.Review {
	if limit <= 0 {
		limit = defaultReviewLimit
	}
	if limit > maxReviewLimit {
		limit = maxReviewLimit
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
