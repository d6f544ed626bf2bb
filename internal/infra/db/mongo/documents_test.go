package mongo

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
	"airbrb/internal/domain/pricing"
	domainreviews "airbrb/internal/domain/reviews"
	"airbrb/internal/domain/shared/daterange"
	"airbrb/internal/domain/shared/money"
)

func TestListingDocumentRoundTrip(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	l, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:   "l1",
		Host: "alice",
		Details: domainlistings.Details{
			Title:     "Beach house",
			Address:   "1 Beach Rd",
			Bathrooms: 2,
			Bedrooms:  []domainlistings.Bedroom{{Type: "double", Beds: 2}},
			Amenities: []string{"wifi"},
		},
		PricePerNight: money.Must(15000, "USD"),
		Discounts:     pricing.DiscountConfig{Enabled: true, Tiers: []pricing.DiscountTier{pricing.Tier(3, 6, 5), pricing.OpenTier(7, 12.5)}},
		Now:           now,
	})
	require.NoError(t, err)
	require.NoError(t, l.Publish([]daterange.DateRange{daterange.MustParse("2024-06-01", "2024-09-01")}, now))
	var ratings domainlistings.RatingSummary
	ratings.Add(5)
	ratings.Add(3)
	l.UpdateRatings(ratings, now)
	l.Version = 3

	raw, err := bson.Marshal(newListingDocument(l))
	require.NoError(t, err)
	var doc listingDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	got := doc.toAggregate()

	assert.Equal(t, l.Copy(), got)
}

func TestBookingDocumentRoundTrip(t *testing.T) {
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        "b1",
		ListingID: "l1",
		GuestID:   "bob",
		Range:     daterange.MustParse("2024-06-10", "2024-06-20"),
		Quote:     pricing.Quote(10, money.Must(15000, "USD"), pricing.DiscountConfig{Enabled: true, Tiers: []pricing.DiscountTier{pricing.OpenTier(7, 10)}}),
		CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, b.Decline("dates taken", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)))

	raw, err := bson.Marshal(newBookingDocument(b))
	require.NoError(t, err)
	var doc bookingDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	got := doc.toAggregate()

	assert.Equal(t, b.Copy(), got)
	require.NotNil(t, got.TotalPrice)
	assert.Equal(t, int64(135000), got.TotalPrice.Amount)
}

func TestReviewDocumentRoundTrip(t *testing.T) {
	r := &domainreviews.Review{
		ID:        "r1",
		BookingID: "b1",
		ListingID: "l1",
		AuthorID:  "bob",
		Rating:    4,
		Comment:   "Great view",
		CreatedAt: time.Date(2024, 6, 21, 8, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 6, 22, 8, 0, 0, 0, time.UTC),
		Version:   2,
	}
	raw, err := bson.Marshal(newReviewDocument(r))
	require.NoError(t, err)
	var doc reviewDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, r, doc.toAggregate())
}

func TestIsWriteConflict(t *testing.T) {
	assert.True(t, isWriteConflict(mongo.CommandError{Code: writeConflictCode, Message: "WriteConflict"}))
	assert.True(t, isWriteConflict(fmt.Errorf("wrapped: %w", mongo.CommandError{Labels: []string{transientTxnErrorLabel}})))
	assert.False(t, isWriteConflict(mongo.CommandError{Code: 11000}))
	assert.False(t, isWriteConflict(errors.New("plain")))
}
