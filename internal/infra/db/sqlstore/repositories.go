package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"airbrb/internal/app/uow"
	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
)

var ErrReadOnly = errors.New("sqlstore: unit of work is read-only")

type listingRepository struct {
	tx       *gorm.DB
	readOnly bool
}

func (r listingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var m listingModel
	if err := r.tx.WithContext(ctx).Where("id = ?", string(id)).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainlistings.ErrListingNotFound
		}
		return nil, err
	}
	return m.toAggregate()
}

func (r listingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	if r.readOnly {
		return ErrReadOnly
	}
	m := newListingModel(l)
	m.Version = l.Version + 1
	db := r.tx.WithContext(ctx)
	if l.Version == 0 {
		if err := db.Create(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return uow.ErrVersionConflict
			}
			return err
		}
		l.Version = m.Version
		return nil
	}
	res := db.Model(&listingModel{}).
		Where("id = ? AND version = ?", m.ID, l.Version).
		Select("*").
		Omit("id", "booking_seq").
		Updates(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return uow.ErrVersionConflict
	}
	l.Version = m.Version
	return nil
}

func (r listingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	if r.readOnly {
		return ErrReadOnly
	}
	res := r.tx.WithContext(ctx).Where("id = ?", string(id)).Delete(&listingModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainlistings.ErrListingNotFound
	}
	return nil
}

// Search lets the database narrow by host, state and price, then applies
// the remaining filters, ordering and paging in process.
func (r listingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	opts := params.Normalized()
	q := r.tx.WithContext(ctx).Model(&listingModel{})
	if opts.Host != "" {
		q = q.Where("host = ?", string(opts.Host))
	}
	if opts.OnlyPublished {
		q = q.Where("state = ?", string(domainlistings.ListingPublished))
	}
	if opts.PriceMinCents > 0 {
		q = q.Where("price_cents >= ?", opts.PriceMinCents)
	}
	if opts.PriceMaxCents > 0 {
		q = q.Where("price_cents <= ?", opts.PriceMaxCents)
	}
	var rows []listingModel
	if err := q.Find(&rows).Error; err != nil {
		return domainlistings.SearchResult{}, err
	}
	items := make([]*domainlistings.Listing, 0, len(rows))
	for _, row := range rows {
		l, err := row.toAggregate()
		if err != nil {
			return domainlistings.SearchResult{}, err
		}
		items = append(items, l)
	}
	return params.Apply(items), nil
}

type bookingRepository struct {
	tx       *gorm.DB
	readOnly bool
}

func (r bookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var m bookingModel
	if err := r.tx.WithContext(ctx).Where("id = ?", string(id)).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return m.toAggregate()
}

func (r bookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	if r.readOnly {
		return ErrReadOnly
	}
	m := newBookingModel(b)
	m.Version = b.Version + 1
	db := r.tx.WithContext(ctx)
	if b.Version == 0 {
		if err := db.Create(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return uow.ErrVersionConflict
			}
			return err
		}
		b.Version = m.Version
		return nil
	}
	res := db.Model(&bookingModel{}).
		Where("id = ? AND version = ?", m.ID, b.Version).
		Select("*").
		Omit("id").
		Updates(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return uow.ErrVersionConflict
	}
	b.Version = m.Version
	return nil
}

func (r bookingRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, "listing_id = ?", string(listingID))
}

func (r bookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, "guest_id = ?", guestID)
}

func (r bookingRepository) find(ctx context.Context, where string, arg any) ([]*domainbooking.Booking, error) {
	var rows []bookingModel
	if err := r.tx.WithContext(ctx).Where(where, arg).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(rows))
	for _, row := range rows {
		b, err := row.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

var _ domainlistings.ListingRepository = listingRepository{}
var _ domainbooking.Repository = bookingRepository{}
