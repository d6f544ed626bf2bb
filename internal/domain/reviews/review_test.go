package reviews

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbrb/internal/domain/booking"
	"airbrb/internal/domain/listings"
	"airbrb/internal/domain/pricing"
	"airbrb/internal/domain/shared/daterange"
	"airbrb/internal/domain/shared/money"
)

var now = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func acceptedBooking(t *testing.T, guest string) *booking.Booking {
	t.Helper()
	dr := daterange.MustParse("2024-06-10", "2024-06-13")
	b, err := booking.NewBooking(booking.CreateParams{
		ID:        "b-1",
		ListingID: "l-1",
		GuestID:   guest,
		Range:     dr,
		Quote:     pricing.Quote(dr.Nights(), money.Must(10000, "USD"), pricing.DiscountConfig{}),
		CreatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, b.Accept(now))
	return b
}

func submit(b *booking.Booking, author string, rating int, comment string) (*Review, error) {
	return Submit(SubmitParams{
		ID:        "r-1",
		Booking:   b,
		ListingID: "l-1",
		AuthorID:  author,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
	})
}

func TestSubmitRecordsReview(t *testing.T) {
	r, err := submit(acceptedBooking(t, "bob"), "bob", 4, "  Lovely stay ")
	require.NoError(t, err)
	assert.Equal(t, booking.BookingID("b-1"), r.BookingID)
	assert.Equal(t, listings.ListingID("l-1"), r.ListingID)
	assert.Equal(t, "Lovely stay", r.Comment)
	require.Len(t, r.PendingEvents(), 1)
	assert.Equal(t, "review.submitted", r.PendingEvents()[0].EventName())
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name    string
		rating  int
		comment string
		want    error
	}{
		{name: "zero rating", rating: 0, comment: "ok", want: ErrInvalidRating},
		{name: "six stars", rating: 6, comment: "ok", want: ErrInvalidRating},
		{name: "blank comment", rating: 3, comment: "   ", want: ErrCommentRequired},
		{name: "long comment", rating: 3, comment: strings.Repeat("a", MaxCommentLength+1), want: ErrCommentTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := submit(acceptedBooking(t, "bob"), "bob", tc.rating, tc.comment)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCheckBooking(t *testing.T) {
	b := acceptedBooking(t, "bob")
	assert.NoError(t, CheckBooking(b, "l-1", "bob"))
	assert.ErrorIs(t, CheckBooking(b, "l-1", "carol"), ErrNotGuest)
	assert.ErrorIs(t, CheckBooking(b, "l-1", ""), ErrNotGuest)
	assert.ErrorIs(t, CheckBooking(b, "l-2", "bob"), ErrWrongListing)
	assert.ErrorIs(t, CheckBooking(nil, "l-1", "bob"), booking.ErrBookingNotFound)

	pending := acceptedBooking(t, "bob")
	pending.Status = booking.StatusPending
	assert.ErrorIs(t, CheckBooking(pending, "l-1", "bob"), ErrBookingNotAccepted)
	pending.Status = booking.StatusDeclined
	assert.ErrorIs(t, CheckBooking(pending, "l-1", "bob"), ErrBookingNotAccepted)
}

func TestReviseKeepsIdentity(t *testing.T) {
	r, err := submit(acceptedBooking(t, "bob"), "bob", 2, "Noisy")
	require.NoError(t, err)
	r.ClearEvents()

	later := now.Add(24 * time.Hour)
	require.NoError(t, r.Revise(5, "Host fixed it", later))
	assert.Equal(t, ReviewID("r-1"), r.ID)
	assert.Equal(t, 5, r.Rating)
	assert.Equal(t, now, r.CreatedAt)
	assert.Equal(t, later, r.UpdatedAt)
	require.Len(t, r.PendingEvents(), 1)
	revised, ok := r.PendingEvents()[0].(ReviewRevised)
	require.True(t, ok)
	assert.Equal(t, 2, revised.PreviousRating)

	assert.ErrorIs(t, r.Revise(9, "x", later), ErrInvalidRating)
	assert.Equal(t, 5, r.Rating)
}

func TestSummarize(t *testing.T) {
	items := []*Review{{Rating: 5}, {Rating: 4}, {Rating: 5}, nil, {Rating: 1}}
	summary := Summarize(items)
	assert.Equal(t, 4, summary.Count())
	assert.Equal(t, 2, summary.Stars(5))
	assert.Equal(t, 0, summary.Stars(3))
	assert.Equal(t, 3.75, summary.Average())

	assert.Zero(t, Summarize(nil).Average())
}
