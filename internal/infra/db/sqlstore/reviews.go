package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"airbrb/internal/app/uow"
	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
	domainreviews "airbrb/internal/domain/reviews"
)

type reviewRepository struct {
	tx       *gorm.DB
	readOnly bool
}

func (r reviewRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainreviews.Review, error) {
	var m reviewModel
	if err := r.tx.WithContext(ctx).Where("booking_id = ?", string(bookingID)).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainreviews.ErrNotFound
		}
		return nil, err
	}
	return m.toAggregate(), nil
}

// Save inserts a new review or updates one at its loaded version. The unique
// booking_id index turns a second review for a booking into a conflict.
func (r reviewRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	if r.readOnly {
		return ErrReadOnly
	}
	m := newReviewModel(review)
	m.Version = review.Version + 1
	db := r.tx.WithContext(ctx)
	if review.Version == 0 {
		if err := db.Create(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return uow.ErrVersionConflict
			}
			return err
		}
		review.Version = m.Version
		return nil
	}
	res := db.Model(&reviewModel{}).
		Where("id = ? AND version = ?", m.ID, review.Version).
		Select("rating", "comment", "updated_at", "version").
		Updates(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return uow.ErrVersionConflict
	}
	review.Version = m.Version
	return nil
}

func (r reviewRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainreviews.Review, error) {
	var rows []reviewModel
	if err := r.tx.WithContext(ctx).Where("listing_id = ?", string(listingID)).Order("created_at DESC, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domainreviews.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toAggregate())
	}
	return out, nil
}

var _ domainreviews.Repository = reviewRepository{}
