package sqlstore

import (
	"time"

	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
	"airbrb/internal/domain/pricing"
	domainreviews "airbrb/internal/domain/reviews"
	"airbrb/internal/domain/shared/daterange"
	"airbrb/internal/domain/shared/money"
)

type bedroomJSON struct {
	Type string `json:"type"`
	Beds int    `json:"beds"`
}

type tierJSON struct {
	MinNights   int   `json:"minNights"`
	MaxNights   *int  `json:"maxNights,omitempty"`
	BasisPoints int64 `json:"bps"`
}

type windowJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type listingModel struct {
	ID               string `gorm:"primaryKey;size:64"`
	Host             string `gorm:"size:64;index"`
	Title            string `gorm:"size:200"`
	Address          string `gorm:"size:500"`
	Thumbnail        string
	PropertyType     string `gorm:"size:64"`
	Bathrooms        int
	Bedrooms         []bedroomJSON `gorm:"serializer:json"`
	Amenities        []string      `gorm:"serializer:json"`
	PriceCents       int64
	Currency         string `gorm:"size:3"`
	DiscountsEnabled bool
	Tiers            []tierJSON   `gorm:"serializer:json"`
	Availability     []windowJSON `gorm:"serializer:json"`
	RatingCounts     []int        `gorm:"serializer:json"`
	State            string       `gorm:"size:16;index"`
	PublishedAt      *time.Time
	BookingSeq       int64     `gorm:"not null;default:0"`
	CreatedAt        time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime:false"`
	Version          int64
}

func (listingModel) TableName() string { return "listings" }

func newListingModel(l *domainlistings.Listing) listingModel {
	m := listingModel{
		ID:               string(l.ID),
		Host:             string(l.Host),
		Title:            l.Title,
		Address:          l.Address,
		Thumbnail:        l.Thumbnail,
		PropertyType:     l.PropertyType,
		Bathrooms:        l.Bathrooms,
		Amenities:        append([]string(nil), l.Amenities...),
		PriceCents:       l.PricePerNight.Amount,
		Currency:         l.PricePerNight.Currency,
		DiscountsEnabled: l.Discounts.Enabled,
		State:            string(l.State),
		RatingCounts:     append([]int(nil), l.Ratings.Counts[:]...),
		CreatedAt:        l.CreatedAt.UTC(),
		UpdatedAt:        l.UpdatedAt.UTC(),
		Version:          l.Version,
	}
	if !l.PublishedAt.IsZero() {
		at := l.PublishedAt.UTC()
		m.PublishedAt = &at
	}
	for _, b := range l.Bedrooms {
		m.Bedrooms = append(m.Bedrooms, bedroomJSON{Type: b.Type, Beds: b.Beds})
	}
	for _, t := range l.Discounts.Tiers {
		t = t.Copy()
		m.Tiers = append(m.Tiers, tierJSON{MinNights: t.MinNights, MaxNights: t.MaxNights, BasisPoints: t.Percent.BasisPoints()})
	}
	for _, w := range l.Availability {
		m.Availability = append(m.Availability, windowJSON{Start: daterange.FormatDate(w.CheckIn), End: daterange.FormatDate(w.CheckOut)})
	}
	return m
}

func (m listingModel) toAggregate() (*domainlistings.Listing, error) {
	l := &domainlistings.Listing{
		ID:            domainlistings.ListingID(m.ID),
		Host:          domainlistings.HostID(m.Host),
		Title:         m.Title,
		Address:       m.Address,
		Thumbnail:     m.Thumbnail,
		PropertyType:  m.PropertyType,
		Bathrooms:     m.Bathrooms,
		Amenities:     append([]string(nil), m.Amenities...),
		PricePerNight: money.Money{Amount: m.PriceCents, Currency: m.Currency},
		Discounts:     pricing.DiscountConfig{Enabled: m.DiscountsEnabled},
		State:         domainlistings.ListingState(m.State),
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
		Version:       m.Version,
	}
	if m.PublishedAt != nil {
		l.PublishedAt = m.PublishedAt.UTC()
	}
	copy(l.Ratings.Counts[:], m.RatingCounts)
	for _, b := range m.Bedrooms {
		l.Bedrooms = append(l.Bedrooms, domainlistings.Bedroom{Type: b.Type, Beds: b.Beds})
	}
	for _, t := range m.Tiers {
		tier := pricing.DiscountTier{MinNights: t.MinNights, MaxNights: t.MaxNights, Percent: pricing.Percent(t.BasisPoints)}
		l.Discounts.Tiers = append(l.Discounts.Tiers, tier.Copy())
	}
	for _, w := range m.Availability {
		window, err := daterange.Parse(w.Start, w.End)
		if err != nil {
			return nil, err
		}
		l.Availability = append(l.Availability, window)
	}
	return l, nil
}

type bookingModel struct {
	ID            string `gorm:"primaryKey;size:64"`
	ListingID     string `gorm:"size:64;index:idx_bookings_listing"`
	GuestID       string `gorm:"size:64;index:idx_bookings_guest"`
	CheckIn       string `gorm:"size:10"`
	CheckOut      string `gorm:"size:10"`
	Status        string `gorm:"size:16;index"`
	Nights        int
	DiscountBPS   int64
	TotalCents    *int64
	Currency      string    `gorm:"size:3"`
	DeclineReason string    `gorm:"size:500"`
	CreatedAt     time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime:false"`
	Version       int64
}

func (bookingModel) TableName() string { return "bookings" }

func newBookingModel(b *domainbooking.Booking) bookingModel {
	m := bookingModel{
		ID:            string(b.ID),
		ListingID:     string(b.ListingID),
		GuestID:       b.GuestID,
		CheckIn:       daterange.FormatDate(b.Range.CheckIn),
		CheckOut:      daterange.FormatDate(b.Range.CheckOut),
		Status:        string(b.Status),
		Nights:        b.Nights,
		DiscountBPS:   b.DiscountPercent.BasisPoints(),
		DeclineReason: b.DeclineReason,
		CreatedAt:     b.CreatedAt.UTC(),
		UpdatedAt:     b.UpdatedAt.UTC(),
		Version:       b.Version,
	}
	if b.TotalPrice != nil {
		total := b.TotalPrice.Amount
		m.TotalCents = &total
		m.Currency = b.TotalPrice.Currency
	}
	return m
}

func (m bookingModel) toAggregate() (*domainbooking.Booking, error) {
	period, err := daterange.Parse(m.CheckIn, m.CheckOut)
	if err != nil {
		return nil, err
	}
	b := &domainbooking.Booking{
		ID:              domainbooking.BookingID(m.ID),
		ListingID:       domainlistings.ListingID(m.ListingID),
		GuestID:         m.GuestID,
		Range:           period,
		Status:          domainbooking.Status(m.Status),
		Nights:          m.Nights,
		DiscountPercent: pricing.Percent(m.DiscountBPS),
		DeclineReason:   m.DeclineReason,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
		Version:         m.Version,
	}
	if m.TotalCents != nil {
		b.TotalPrice = &money.Money{Amount: *m.TotalCents, Currency: m.Currency}
	}
	return b, nil
}

type reviewModel struct {
	ID        string `gorm:"primaryKey;size:64"`
	BookingID string `gorm:"size:64;uniqueIndex"`
	ListingID string `gorm:"size:64;index:idx_reviews_listing"`
	AuthorID  string `gorm:"size:64"`
	Rating    int
	Comment   string    `gorm:"size:2000"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
	Version   int64
}

func (reviewModel) TableName() string { return "reviews" }

func newReviewModel(r *domainreviews.Review) reviewModel {
	return reviewModel{
		ID:        string(r.ID),
		BookingID: string(r.BookingID),
		ListingID: string(r.ListingID),
		AuthorID:  r.AuthorID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		Version:   r.Version,
	}
}

func (m reviewModel) toAggregate() *domainreviews.Review {
	return &domainreviews.Review{
		ID:        domainreviews.ReviewID(m.ID),
		BookingID: domainbooking.BookingID(m.BookingID),
		ListingID: domainlistings.ListingID(m.ListingID),
		AuthorID:  m.AuthorID,
		Rating:    m.Rating,
		Comment:   m.Comment,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
		Version:   m.Version,
	}
}

type outboxModel struct {
	ID          string `gorm:"primaryKey;size:64"`
	Name        string `gorm:"size:128"`
	Payload     []byte
	OccurredAt  time.Time
	Aggregate   string            `gorm:"size:64"`
	Headers     map[string]string `gorm:"serializer:json"`
	State       string            `gorm:"size:16;index:idx_outbox_due,priority:1"`
	Attempts    int
	NextAttempt time.Time `gorm:"index:idx_outbox_due,priority:2"`
	ClaimedBy   string    `gorm:"size:64"`
	ClaimedAt   *time.Time
	SentAt      *time.Time
	LastError   string
	CreatedAt   time.Time
}

func (outboxModel) TableName() string { return "outbox" }

type idempotencyModel struct {
	Key        string `gorm:"primaryKey;column:idem_key;size:512"`
	Payload    []byte
	OccurredAt time.Time
	CreatedAt  time.Time `gorm:"index"`
}

func (idempotencyModel) TableName() string { return "idempotency_keys" }

type userModel struct {
	ID           string `gorm:"primaryKey;size:64"`
	Email        string `gorm:"size:320;uniqueIndex"`
	Name         string `gorm:"size:200"`
	PasswordHash string
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
}

func (userModel) TableName() string { return "users" }

type sessionModel struct {
	Token     string    `gorm:"primaryKey;size:128"`
	UserID    string    `gorm:"size:64;index"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	ExpiresAt time.Time `gorm:"index"`
}

func (sessionModel) TableName() string { return "sessions" }
