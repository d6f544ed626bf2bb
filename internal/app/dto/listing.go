package dto

import (
	"errors"
	"fmt"
	"time"

	domainlistings "airbrb/internal/domain/listings"
	"airbrb/internal/domain/pricing"
	"airbrb/internal/domain/shared/daterange"
)

var ErrWindowMismatch = errors.New("dto: availabilityStart and availabilityEnd must be sent together")

// DateRange is the wire form of a stay or window: ISO calendar dates.
type DateRange struct {
	Start string `json:"start" validate:"isodate"`
	End   string `json:"end" validate:"isodate"`
}

func (r DateRange) Domain() (daterange.DateRange, error) {
	return daterange.Parse(r.Start, r.End)
}

func MapDateRange(dr daterange.DateRange) DateRange {
	return DateRange{Start: daterange.FormatDate(dr.CheckIn), End: daterange.FormatDate(dr.CheckOut)}
}

type Bedroom struct {
	Type string `json:"type"`
	Beds int    `json:"beds" validate:"gte=0"`
}

type CustomDiscount struct {
	MinNights int     `json:"minNights"`
	MaxNights *int    `json:"maxNights"`
	Discount  float64 `json:"discount"`
}

// ListingMetadata carries host-configured details. A single availability
// window may arrive as availabilityStart/availabilityEnd instead of a list.
type ListingMetadata struct {
	PropertyType      string           `json:"propertyType,omitempty"`
	Bathrooms         int              `json:"bathrooms" validate:"gte=0"`
	Bedrooms          []Bedroom        `json:"bedrooms" validate:"dive"`
	Amenities         []string         `json:"amenities"`
	Availability      []DateRange      `json:"availability,omitempty" validate:"dive"`
	AvailabilityStart string           `json:"availabilityStart,omitempty" validate:"isodate"`
	AvailabilityEnd   string           `json:"availabilityEnd,omitempty" validate:"isodate"`
	DiscountsEnabled  bool             `json:"discountsEnabled"`
	CustomDiscounts   []CustomDiscount `json:"customDiscounts"`
}

// Windows resolves the availability windows from either wire form. The list
// wins when both are present.
func (m ListingMetadata) Windows() ([]daterange.DateRange, error) {
	return WindowsFrom(m.Availability, m.AvailabilityStart, m.AvailabilityEnd)
}

func WindowsFrom(list []DateRange, start, end string) ([]daterange.DateRange, error) {
	if len(list) > 0 {
		out := make([]daterange.DateRange, 0, len(list))
		for i, w := range list {
			dr, err := w.Domain()
			if err != nil {
				return nil, fmt.Errorf("availability %d: %w", i+1, err)
			}
			out = append(out, dr)
		}
		return out, nil
	}
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, ErrWindowMismatch
	}
	dr, err := daterange.Parse(start, end)
	if err != nil {
		return nil, err
	}
	return []daterange.DateRange{dr}, nil
}

func (m ListingMetadata) Discounts() pricing.DiscountConfig {
	cfg := pricing.DiscountConfig{Enabled: m.DiscountsEnabled}
	for _, d := range m.CustomDiscounts {
		tier := pricing.DiscountTier{MinNights: d.MinNights, Percent: pricing.Percentage(d.Discount)}
		if d.MaxNights != nil {
			upper := *d.MaxNights
			tier.MaxNights = &upper
		}
		cfg.Tiers = append(cfg.Tiers, tier)
	}
	return cfg
}

func (m ListingMetadata) DomainBedrooms() []domainlistings.Bedroom {
	out := make([]domainlistings.Bedroom, 0, len(m.Bedrooms))
	for _, b := range m.Bedrooms {
		out = append(out, domainlistings.Bedroom{Type: b.Type, Beds: b.Beds})
	}
	return out
}

// ListingInput is the body of create and update requests.
type ListingInput struct {
	Title     string          `json:"title" validate:"required,max=200"`
	Address   string          `json:"address" validate:"required,max=500"`
	Thumbnail string          `json:"thumbnail"`
	Price     float64         `json:"price" validate:"gte=0"`
	Metadata  ListingMetadata `json:"metadata"`
}

func (in ListingInput) Details() domainlistings.Details {
	return domainlistings.Details{
		Title:        in.Title,
		Address:      in.Address,
		Thumbnail:    in.Thumbnail,
		PropertyType: in.Metadata.PropertyType,
		Bathrooms:    in.Metadata.Bathrooms,
		Bedrooms:     in.Metadata.DomainBedrooms(),
		Amenities:    append([]string(nil), in.Metadata.Amenities...),
	}
}

type Listing struct {
	ID        string          `json:"id"`
	Owner     string          `json:"owner"`
	Title     string          `json:"title"`
	Address   string          `json:"address"`
	Thumbnail string          `json:"thumbnail"`
	Price     float64         `json:"price"`
	Currency  string          `json:"currency"`
	Published bool            `json:"published"`
	PostedOn  *time.Time      `json:"postedOn"`
	Metadata  ListingMetadata `json:"metadata"`
	Rating    RatingSummary   `json:"rating"`
	CreatedAt time.Time       `json:"createdAt"`
}

type ListingCollection struct {
	Items []Listing `json:"listings"`
	Total int       `json:"total"`
}

func MapListing(l *domainlistings.Listing) Listing {
	if l == nil {
		return Listing{}
	}
	meta := ListingMetadata{
		PropertyType:     l.PropertyType,
		Bathrooms:        l.Bathrooms,
		Bedrooms:         make([]Bedroom, 0, len(l.Bedrooms)),
		Amenities:        append([]string{}, l.Amenities...),
		DiscountsEnabled: l.Discounts.Enabled,
		CustomDiscounts:  make([]CustomDiscount, 0, len(l.Discounts.Tiers)),
	}
	for _, b := range l.Bedrooms {
		meta.Bedrooms = append(meta.Bedrooms, Bedroom{Type: b.Type, Beds: b.Beds})
	}
	for _, w := range l.Availability {
		meta.Availability = append(meta.Availability, MapDateRange(w))
	}
	if len(l.Availability) == 1 {
		meta.AvailabilityStart = daterange.FormatDate(l.Availability[0].CheckIn)
		meta.AvailabilityEnd = daterange.FormatDate(l.Availability[0].CheckOut)
	}
	for _, t := range l.Discounts.Tiers {
		d := CustomDiscount{MinNights: t.MinNights, Discount: t.Percent.Float()}
		if t.MaxNights != nil {
			upper := *t.MaxNights
			d.MaxNights = &upper
		}
		meta.CustomDiscounts = append(meta.CustomDiscounts, d)
	}
	out := Listing{
		ID:        string(l.ID),
		Owner:     string(l.Host),
		Title:     l.Title,
		Address:   l.Address,
		Thumbnail: l.Thumbnail,
		Price:     l.PricePerNight.Decimal(),
		Currency:  l.PricePerNight.Currency,
		Published: l.Published(),
		Metadata:  meta,
		Rating:    MapRatingSummary(l.Ratings),
		CreatedAt: l.CreatedAt,
	}
	if !l.PublishedAt.IsZero() {
		posted := l.PublishedAt
		out.PostedOn = &posted
	}
	return out
}

func MapListingCollection(res domainlistings.SearchResult) ListingCollection {
	items := make([]Listing, 0, len(res.Items))
	for _, l := range res.Items {
		items = append(items, MapListing(l))
	}
	return ListingCollection{Items: items, Total: res.Total}
}
