package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"airbrb/internal/app/uow"
	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
	domainreviews "airbrb/internal/domain/reviews"
)

var ErrUnitOfWorkNotConfigured = errors.New("sqlstore: unit of work factory missing database")

// Factory opens one database transaction per unit of work.
type Factory struct {
	DB *gorm.DB
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	tx := f.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &Unit{tx: tx, readOnly: opts.ReadOnly}, nil
}

type Unit struct {
	tx       *gorm.DB
	readOnly bool
	done     bool
}

func (u *Unit) Listings() domainlistings.ListingRepository {
	return listingRepository{tx: u.tx, readOnly: u.readOnly}
}

func (u *Unit) Bookings() domainbooking.Repository {
	return bookingRepository{tx: u.tx, readOnly: u.readOnly}
}

func (u *Unit) Reviews() domainreviews.Repository {
	return reviewRepository{tx: u.tx, readOnly: u.readOnly}
}

// LockListing bumps listings.booking_seq. The row lock it takes is held until
// the transaction ends, so a second booking transaction for the listing waits
// here and then reads the winner's booking.
func (u *Unit) LockListing(ctx context.Context, id domainlistings.ListingID) error {
	res := u.tx.WithContext(ctx).Exec("UPDATE listings SET booking_seq = booking_seq + 1 WHERE id = ?", string(id))
	if res.Error != nil {
		if isBusy(res.Error) {
			return fmt.Errorf("listing %s: %w", id, uow.ErrConcurrentBooking)
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainlistings.ErrListingNotFound
	}
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Commit().Error; err != nil {
		if isBusy(err) {
			return fmt.Errorf("commit: %w", uow.ErrConcurrentBooking)
		}
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	return u.tx.Rollback().Error
}

// Tx exposes the transaction so stores sharing it, like the outbox, write
// atomically with the aggregates.
func (u *Unit) Tx() *gorm.DB {
	return u.tx
}

// isBusy matches lock contention that the caller may retry: sqlite's busy
// and locked errors and Postgres serialization failures and deadlocks.
func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "sqlstate 40001") ||
		strings.Contains(msg, "sqlstate 40p01")
}

// txFrom returns the unit's transaction when ctx carries a sqlstore unit.
func txFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if unit, ok := uow.FromContext(ctx); ok {
		if sqlUnit, ok := uow.Innermost(unit).(*Unit); ok {
			return sqlUnit.tx.WithContext(ctx)
		}
	}
	return fallback.WithContext(ctx)
}

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
