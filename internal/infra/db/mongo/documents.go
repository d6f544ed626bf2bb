package mongo

import (
	"time"

	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
	"airbrb/internal/domain/pricing"
	domainreviews "airbrb/internal/domain/reviews"
	"airbrb/internal/domain/shared/daterange"
	"airbrb/internal/domain/shared/money"
)

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func newRangeDocument(dr daterange.DateRange) rangeDocument {
	return rangeDocument{CheckIn: dr.CheckIn.UnixMilli(), CheckOut: dr.CheckOut.UnixMilli()}
}

func (d rangeDocument) toRange() daterange.DateRange {
	return daterange.Of(timestampToTime(d.CheckIn), timestampToTime(d.CheckOut))
}

type bedroomDocument struct {
	Type string `bson:"type"`
	Beds int    `bson:"beds"`
}

type tierDocument struct {
	MinNights   int   `bson:"min_nights"`
	MaxNights   *int  `bson:"max_nights,omitempty"`
	BasisPoints int64 `bson:"bps"`
}

type discountsDocument struct {
	Enabled bool           `bson:"enabled"`
	Tiers   []tierDocument `bson:"tiers"`
}

type listingDocument struct {
	ID           string            `bson:"_id"`
	Host         string            `bson:"host"`
	Title        string            `bson:"title"`
	Address      string            `bson:"address"`
	Thumbnail    string            `bson:"thumbnail"`
	PropertyType string            `bson:"property_type"`
	Bathrooms    int               `bson:"bathrooms"`
	Bedrooms     []bedroomDocument `bson:"bedrooms"`
	Amenities    []string          `bson:"amenities"`
	PriceCents   int64             `bson:"price_cents"`
	Currency     string            `bson:"currency"`
	Discounts    discountsDocument `bson:"discounts"`
	Availability []rangeDocument   `bson:"availability"`
	Ratings      []int             `bson:"ratings,omitempty"`
	State        string            `bson:"state"`
	PublishedAt  int64             `bson:"published_at"`
	CreatedAt    int64             `bson:"created_at"`
	UpdatedAt    int64             `bson:"updated_at"`
	Version      int64             `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	doc := listingDocument{
		ID:           string(l.ID),
		Host:         string(l.Host),
		Title:        l.Title,
		Address:      l.Address,
		Thumbnail:    l.Thumbnail,
		PropertyType: l.PropertyType,
		Bathrooms:    l.Bathrooms,
		Amenities:    append([]string(nil), l.Amenities...),
		PriceCents:   l.PricePerNight.Amount,
		Currency:     l.PricePerNight.Currency,
		Discounts:    discountsDocument{Enabled: l.Discounts.Enabled},
		State:        string(l.State),
		CreatedAt:    l.CreatedAt.UnixMilli(),
		UpdatedAt:    l.UpdatedAt.UnixMilli(),
		Version:      l.Version,
	}
	if !l.PublishedAt.IsZero() {
		doc.PublishedAt = l.PublishedAt.UnixMilli()
	}
	if l.Ratings.Count() > 0 {
		doc.Ratings = append([]int(nil), l.Ratings.Counts[:]...)
	}
	for _, b := range l.Bedrooms {
		doc.Bedrooms = append(doc.Bedrooms, bedroomDocument{Type: b.Type, Beds: b.Beds})
	}
	for _, t := range l.Discounts.Tiers {
		t = t.Copy()
		doc.Discounts.Tiers = append(doc.Discounts.Tiers, tierDocument{MinNights: t.MinNights, MaxNights: t.MaxNights, BasisPoints: t.Percent.BasisPoints()})
	}
	for _, w := range l.Availability {
		doc.Availability = append(doc.Availability, newRangeDocument(w))
	}
	return doc
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	l := &domainlistings.Listing{
		ID:            domainlistings.ListingID(d.ID),
		Host:          domainlistings.HostID(d.Host),
		Title:         d.Title,
		Address:       d.Address,
		Thumbnail:     d.Thumbnail,
		PropertyType:  d.PropertyType,
		Bathrooms:     d.Bathrooms,
		Amenities:     append([]string(nil), d.Amenities...),
		PricePerNight: money.Money{Amount: d.PriceCents, Currency: d.Currency},
		Discounts:     pricing.DiscountConfig{Enabled: d.Discounts.Enabled},
		State:         domainlistings.ListingState(d.State),
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		Version:       d.Version,
	}
	if d.PublishedAt != 0 {
		l.PublishedAt = timestampToTime(d.PublishedAt)
	}
	copy(l.Ratings.Counts[:], d.Ratings)
	for _, b := range d.Bedrooms {
		l.Bedrooms = append(l.Bedrooms, domainlistings.Bedroom{Type: b.Type, Beds: b.Beds})
	}
	for _, t := range d.Discounts.Tiers {
		tier := pricing.DiscountTier{MinNights: t.MinNights, MaxNights: t.MaxNights, Percent: pricing.Percent(t.BasisPoints)}
		l.Discounts.Tiers = append(l.Discounts.Tiers, tier.Copy())
	}
	for _, w := range d.Availability {
		l.Availability = append(l.Availability, w.toRange())
	}
	return l
}

type bookingDocument struct {
	ID            string        `bson:"_id"`
	ListingID     string        `bson:"listing_id"`
	GuestID       string        `bson:"guest_id"`
	Range         rangeDocument `bson:"range"`
	Status        string        `bson:"status"`
	Nights        int           `bson:"nights"`
	DiscountBPS   int64         `bson:"discount_bps"`
	TotalCents    *int64        `bson:"total_cents,omitempty"`
	Currency      string        `bson:"currency,omitempty"`
	DeclineReason string        `bson:"decline_reason,omitempty"`
	CreatedAt     int64         `bson:"created_at"`
	UpdatedAt     int64         `bson:"updated_at"`
	Version       int64         `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:            string(b.ID),
		ListingID:     string(b.ListingID),
		GuestID:       b.GuestID,
		Range:         newRangeDocument(b.Range),
		Status:        string(b.Status),
		Nights:        b.Nights,
		DiscountBPS:   b.DiscountPercent.BasisPoints(),
		DeclineReason: b.DeclineReason,
		CreatedAt:     b.CreatedAt.UnixMilli(),
		UpdatedAt:     b.UpdatedAt.UnixMilli(),
		Version:       b.Version,
	}
	if b.TotalPrice != nil {
		total := b.TotalPrice.Amount
		doc.TotalCents = &total
		doc.Currency = b.TotalPrice.Currency
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:              domainbooking.BookingID(d.ID),
		ListingID:       domainlistings.ListingID(d.ListingID),
		GuestID:         d.GuestID,
		Range:           d.Range.toRange(),
		Status:          domainbooking.Status(d.Status),
		Nights:          d.Nights,
		DiscountPercent: pricing.Percent(d.DiscountBPS),
		DeclineReason:   d.DeclineReason,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
	if d.TotalCents != nil {
		b.TotalPrice = &money.Money{Amount: *d.TotalCents, Currency: d.Currency}
	}
	return b
}

type reviewDocument struct {
	ID        string `bson:"_id"`
	BookingID string `bson:"booking_id"`
	ListingID string `bson:"listing_id"`
	AuthorID  string `bson:"author_id"`
	Rating    int    `bson:"rating"`
	Comment   string `bson:"comment"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
	Version   int64  `bson:"version"`
}

func newReviewDocument(r *domainreviews.Review) reviewDocument {
	return reviewDocument{
		ID:        string(r.ID),
		BookingID: string(r.BookingID),
		ListingID: string(r.ListingID),
		AuthorID:  r.AuthorID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt.UnixMilli(),
		UpdatedAt: r.UpdatedAt.UnixMilli(),
		Version:   r.Version,
	}
}

func (d reviewDocument) toAggregate() *domainreviews.Review {
	return &domainreviews.Review{
		ID:        domainreviews.ReviewID(d.ID),
		BookingID: domainbooking.BookingID(d.BookingID),
		ListingID: domainlistings.ListingID(d.ListingID),
		AuthorID:  d.AuthorID,
		Rating:    d.Rating,
		Comment:   d.Comment,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
