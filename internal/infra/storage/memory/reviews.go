package memory

import (
	"context"
	"sort"
	"strings"

	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
	domainreviews "airbrb/internal/domain/reviews"
)

// unitReviews keys reviews by booking, so a second review for the same
// booking fails the commit version check.
type unitReviews struct {
	unit *Unit
}

func (r unitReviews) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainreviews.Review, error) {
	u := r.unit
	u.mu.Lock()
	staged, ok := u.reviews[bookingID]
	u.mu.Unlock()
	if ok {
		return staged.review.Copy(), nil
	}
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	review, ok := u.store.reviews[bookingID]
	if !ok {
		return nil, domainreviews.ErrNotFound
	}
	return review.Copy(), nil
}

func (r unitReviews) Save(ctx context.Context, review *domainreviews.Review) error {
	if review == nil || strings.TrimSpace(string(review.BookingID)) == "" {
		return domainreviews.ErrNotFound
	}
	u := r.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writable(); err != nil {
		return err
	}
	base := review.Version
	if prev, ok := u.reviews[review.BookingID]; ok {
		base = prev.base
	}
	review.Version = base + 1
	u.reviews[review.BookingID] = stagedReview{review: review.Copy(), base: base}
	return nil
}

// ListByListing returns the listing's reviews, newest first.
func (r unitReviews) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainreviews.Review, error) {
	u := r.unit
	u.mu.Lock()
	staged := make(map[domainbooking.BookingID]*domainreviews.Review, len(u.reviews))
	for id, s := range u.reviews {
		staged[id] = s.review
	}
	u.mu.Unlock()

	var out []*domainreviews.Review
	u.store.mu.RLock()
	for id, review := range u.store.reviews {
		if _, ok := staged[id]; ok {
			continue
		}
		if review.ListingID == listingID {
			out = append(out, review.Copy())
		}
	}
	u.store.mu.RUnlock()
	for _, review := range staged {
		if review.ListingID == listingID {
			out = append(out, review.Copy())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

var _ domainreviews.Repository = unitReviews{}
