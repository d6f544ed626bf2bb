package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"airbrb/internal/domain/pricing"
	"airbrb/internal/domain/shared/daterange"
	"airbrb/internal/domain/shared/events"
	"airbrb/internal/domain/shared/money"
)

var (
	ErrListingNotFound      = errors.New("listings: not found")
	ErrTitleRequired        = errors.New("listings: title is required")
	ErrAddressRequired      = errors.New("listings: address is required")
	ErrNightlyRate          = errors.New("listings: price per night must be non-negative")
	ErrBathrooms            = errors.New("listings: bathrooms must be >= 0")
	ErrBeds                 = errors.New("listings: bedroom beds must be >= 0")
	ErrAvailabilityRequired = errors.New("listings: at least one availability range is required")
	ErrAvailabilityRange    = errors.New("listings: availability end must be after start")
	ErrNotPublished         = errors.New("listings: listing is not published")
	ErrNotOwner             = errors.New("listings: listing not owned by user")
)

type ListingID string
type HostID string

type ListingState string

const (
	ListingDraft     ListingState = "DRAFT"
	ListingPublished ListingState = "PUBLISHED"
)

type Bedroom struct {
	Type string
	Beds int
}

type Listing struct {
	ID            ListingID
	Host          HostID
	Title         string
	Address       string
	Thumbnail     string
	PropertyType  string
	Bathrooms     int
	Bedrooms      []Bedroom
	Amenities     []string
	PricePerNight money.Money
	Discounts     pricing.DiscountConfig
	Ratings       RatingSummary
	// Availability lists the windows a guest may book inside. Empty means the
	// host has not restricted dates.
	Availability []daterange.DateRange
	State        ListingState
	PublishedAt  time.Time
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	events.EventRecorder
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id ListingID) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

type Details struct {
	Title        string
	Address      string
	Thumbnail    string
	PropertyType string
	Bathrooms    int
	Bedrooms     []Bedroom
	Amenities    []string
}

func (d Details) validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(d.Address) == "" {
		return ErrAddressRequired
	}
	if d.Bathrooms < 0 {
		return ErrBathrooms
	}
	for _, b := range d.Bedrooms {
		if b.Beds < 0 {
			return ErrBeds
		}
	}
	return nil
}

type CreateListingParams struct {
	ID            ListingID
	Host          HostID
	Details       Details
	PricePerNight money.Money
	Discounts     pricing.DiscountConfig
	Now           time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, errors.New("listings: host is required")
	}
	if err := params.Details.validate(); err != nil {
		return nil, err
	}
	if err := validatePricing(params.PricePerNight, params.Discounts); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	listing := &Listing{
		ID:            params.ID,
		Host:          params.Host,
		PricePerNight: params.PricePerNight,
		Discounts:     params.Discounts.Copy(),
		State:         ListingDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	listing.applyDetails(params.Details)
	listing.Record(newListingCreatedEvent(listing.ID, listing.Host, now))
	return listing, nil
}

func (l *Listing) UpdateDetails(details Details, now time.Time) error {
	if err := details.validate(); err != nil {
		return err
	}
	l.applyDetails(details)
	l.touch(now)
	return nil
}

// UpdatePricing replaces the nightly rate and discount configuration. Tier
// configuration is validated here so booking-time quoting can trust it.
func (l *Listing) UpdatePricing(price money.Money, discounts pricing.DiscountConfig, now time.Time) error {
	if err := validatePricing(price, discounts); err != nil {
		return err
	}
	l.PricePerNight = price
	l.Discounts = discounts.Copy()
	l.touch(now)
	return nil
}

// Publish opens the listing for bookings inside the provided windows.
func (l *Listing) Publish(windows []daterange.DateRange, now time.Time) error {
	if len(windows) == 0 {
		return ErrAvailabilityRequired
	}
	normalized := make([]daterange.DateRange, 0, len(windows))
	for i, w := range windows {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("availability %d: %w", i+1, ErrAvailabilityRange)
		}
		normalized = append(normalized, daterange.Of(w.CheckIn, w.CheckOut))
	}
	l.Availability = normalized
	l.State = ListingPublished
	l.PublishedAt = now.UTC()
	l.UpdatedAt = now.UTC()
	l.Record(newListingPublishedEvent(l.ID, l.Host, normalized, l.PublishedAt))
	return nil
}

func (l *Listing) Unpublish(now time.Time) error {
	if l.State != ListingPublished {
		return ErrNotPublished
	}
	l.State = ListingDraft
	l.Availability = nil
	l.PublishedAt = time.Time{}
	l.UpdatedAt = now.UTC()
	l.Record(newListingUnpublishedEvent(l.ID, l.UpdatedAt))
	return nil
}

func (l *Listing) Published() bool {
	return l.State == ListingPublished
}

func (l *Listing) OwnedBy(host HostID) bool {
	return host != "" && l.Host == host
}

// TotalBeds sums beds across bedrooms.
func (l *Listing) TotalBeds() int {
	total := 0
	for _, b := range l.Bedrooms {
		total += b.Beds
	}
	return total
}

// Copy returns a detached snapshot without pending events.
func (l *Listing) Copy() *Listing {
	clone := &Listing{
		ID:            l.ID,
		Host:          l.Host,
		Title:         l.Title,
		Address:       l.Address,
		Thumbnail:     l.Thumbnail,
		PropertyType:  l.PropertyType,
		Bathrooms:     l.Bathrooms,
		Bedrooms:      append([]Bedroom(nil), l.Bedrooms...),
		Amenities:     append([]string(nil), l.Amenities...),
		PricePerNight: l.PricePerNight,
		Discounts:     l.Discounts.Copy(),
		Ratings:       l.Ratings,
		Availability:  append([]daterange.DateRange(nil), l.Availability...),
		State:         l.State,
		PublishedAt:   l.PublishedAt,
		Version:       l.Version,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
	return clone
}

func (l *Listing) applyDetails(d Details) {
	l.Title = strings.TrimSpace(d.Title)
	l.Address = strings.TrimSpace(d.Address)
	l.Thumbnail = strings.TrimSpace(d.Thumbnail)
	l.PropertyType = strings.TrimSpace(d.PropertyType)
	l.Bathrooms = d.Bathrooms
	l.Bedrooms = append([]Bedroom(nil), d.Bedrooms...)
	l.Amenities = append([]string(nil), d.Amenities...)
}

func (l *Listing) touch(now time.Time) {
	l.UpdatedAt = now.UTC()
	l.Record(newListingUpdatedEvent(l.ID, l.UpdatedAt))
}

func validatePricing(price money.Money, discounts pricing.DiscountConfig) error {
	if price.Amount < 0 {
		return ErrNightlyRate
	}
	if price.Currency == "" {
		return money.ErrInvalidCurrency
	}
	return pricing.ValidateTiers(discounts.Tiers)
}
