package uow

import (
	"context"
	"errors"

	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
	domainreviews "airbrb/internal/domain/reviews"
)

// ErrConcurrentBooking reports that another unit of work holds, or committed
// under, the listing's booking lock. The caller may retry.
var ErrConcurrentBooking = errors.New("uow: concurrent booking on listing")

// ErrVersionConflict reports that an aggregate changed since it was loaded.
var ErrVersionConflict = errors.New("uow: aggregate version conflict")

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Listings() domainlistings.ListingRepository
	Bookings() domainbooking.Repository
	Reviews() domainreviews.Repository

	// LockListing serialises booking creation for one listing. It must be
	// called before the listing's bookings are read and is released on
	// Commit or Rollback.
	LockListing(ctx context.Context, id domainlistings.ListingID) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}
