package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbrb/internal/domain/listings"
	"airbrb/internal/domain/pricing"
	"airbrb/internal/domain/shared/daterange"
	"airbrb/internal/domain/shared/money"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newPending(t *testing.T, id string, dr daterange.DateRange) *Booking {
	t.Helper()
	quote := pricing.Quote(dr.Nights(), money.Must(15000, "USD"), pricing.DiscountConfig{})
	b, err := NewBooking(CreateParams{
		ID:        BookingID(id),
		ListingID: "listing-1",
		GuestID:   "guest-1",
		Range:     dr,
		Quote:     quote,
		CreatedAt: now,
	})
	require.NoError(t, err)
	return b
}

func TestNewBookingIsPendingWithQuote(t *testing.T) {
	b := newPending(t, "b-1", daterange.MustParse("2024-06-10", "2024-06-15"))

	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, 5, b.Nights)
	require.NotNil(t, b.TotalPrice)
	assert.Equal(t, int64(75000), b.TotalPrice.Amount)
	assert.True(t, b.Blocking())

	evts := b.PendingEvents()
	require.Len(t, evts, 1)
	assert.Equal(t, "booking.requested", evts[0].EventName())
}

func TestNewBookingRejectsInvalidInput(t *testing.T) {
	_, err := NewBooking(CreateParams{ID: "b", ListingID: "l", Range: daterange.MustParse("2024-06-10", "2024-06-15")})
	assert.ErrorIs(t, err, ErrGuestRequired)

	_, err = NewBooking(CreateParams{ID: "b", ListingID: "l", GuestID: "g", Range: daterange.MustParse("2024-06-10", "2024-06-10")})
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestAcceptOnlyFromPending(t *testing.T) {
	b := newPending(t, "b-1", daterange.MustParse("2024-06-10", "2024-06-15"))
	require.NoError(t, b.Accept(now))
	assert.Equal(t, StatusAccepted, b.Status)
	assert.True(t, b.Status.Terminal())
	assert.True(t, b.Blocking())

	assert.ErrorIs(t, b.Accept(now), ErrInvalidState)
	assert.ErrorIs(t, b.Decline("late", now), ErrInvalidState)
	assert.Equal(t, StatusAccepted, b.Status)
}

func TestDeclineOnlyFromPending(t *testing.T) {
	b := newPending(t, "b-1", daterange.MustParse("2024-06-10", "2024-06-15"))
	require.NoError(t, b.Decline(" dates taken ", now))
	assert.Equal(t, StatusDeclined, b.Status)
	assert.Equal(t, "dates taken", b.DeclineReason)
	assert.False(t, b.Blocking())

	assert.ErrorIs(t, b.Accept(now), ErrInvalidState)
	assert.ErrorIs(t, b.Decline("", now), ErrInvalidState)
}

func TestTransitionsKeepRangeAndPrice(t *testing.T) {
	b := newPending(t, "b-1", daterange.MustParse("2024-06-10", "2024-06-15"))
	dr, total := b.Range, *b.TotalPrice
	require.NoError(t, b.Accept(now.Add(time.Hour)))
	assert.Equal(t, dr, b.Range)
	assert.Equal(t, total, *b.TotalPrice)
}

func TestNilBookingNeverBlocks(t *testing.T) {
	var b *Booking
	assert.False(t, b.Blocking())
	assert.True(t, b.Period().IsZero())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Accepted ")
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, s)

	_, err = ParseStatus("cancelled")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCopyDetachesPrice(t *testing.T) {
	b := newPending(t, "b-1", daterange.MustParse("2024-06-10", "2024-06-15"))
	clone := b.Copy()
	clone.TotalPrice.Amount = 1
	assert.Equal(t, int64(75000), b.TotalPrice.Amount)
	assert.Empty(t, clone.PendingEvents())
}

func TestComputeHostStats(t *testing.T) {
	today := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	accepted := newPending(t, "b-1", daterange.MustParse("2024-06-10", "2024-06-15"))
	require.NoError(t, accepted.Accept(now))
	declined := newPending(t, "b-2", daterange.MustParse("2024-07-01", "2024-07-03"))
	require.NoError(t, declined.Decline("", now))
	pending := newPending(t, "b-3", daterange.MustParse("2024-08-01", "2024-08-03"))

	nightly := map[listings.ListingID]money.Money{"listing-1": money.Must(10000, "USD")}
	stats := ComputeHostStats([]*Booking{accepted, declined, pending}, nightly, today, "USD")

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 1, stats.Declined)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 33.3, stats.AcceptanceRate)
	assert.Equal(t, int64(75000), stats.TotalEarnings.Amount)
	assert.Equal(t, 5, stats.DaysBookedThisYear)
	assert.Equal(t, int64(50000), stats.ProfitThisYear.Amount)

	// nights of 06-10..06-14 are 10..6 days before 06-20
	assert.Equal(t, int64(10000), stats.DailyProfit[10].Amount)
	assert.Equal(t, int64(10000), stats.DailyProfit[6].Amount)
	assert.True(t, stats.DailyProfit[5].IsZero())
	assert.Equal(t, int64(50000), stats.ProfitLast30Days.Amount)
}

func TestComputeHostStatsSplitsStaysAcrossNewYear(t *testing.T) {
	today := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	b := newPending(t, "b-1", daterange.MustParse("2023-12-29", "2024-01-03"))
	require.NoError(t, b.Accept(now))

	nightly := map[listings.ListingID]money.Money{"listing-1": money.Must(10000, "USD")}
	stats := ComputeHostStats([]*Booking{b}, nightly, today, "USD")

	// 12-29, 12-30 and 12-31 belong to 2023
	assert.Equal(t, 2, stats.DaysBookedThisYear)
	assert.Equal(t, int64(20000), stats.ProfitThisYear.Amount)
	assert.Equal(t, int64(50000), stats.ProfitLast30Days.Amount)
	assert.Equal(t, int64(75000), stats.TotalEarnings.Amount)
}

func TestComputeHostStatsEmpty(t *testing.T) {
	stats := ComputeHostStats(nil, nil, now, "USD")
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.AcceptanceRate)
	assert.Equal(t, "USD", stats.TotalEarnings.Currency)
}
