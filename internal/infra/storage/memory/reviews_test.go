package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbrb/internal/app/uow"
	domainbooking "airbrb/internal/domain/booking"
	domainreviews "airbrb/internal/domain/reviews"
)

func newReview(t *testing.T, id string, b *domainbooking.Booking, rating int, at time.Time) *domainreviews.Review {
	t.Helper()
	require.NoError(t, b.Accept(testNow))
	r, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID:        domainreviews.ReviewID(id),
		Booking:   b,
		ListingID: b.ListingID,
		AuthorID:  b.GuestID,
		Rating:    rating,
		Comment:   "Stayed here",
		CreatedAt: at,
	})
	require.NoError(t, err)
	return r
}

func TestReviewsOnePerBooking(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first := begin(t, store, false)
	second := begin(t, store, false)
	require.NoError(t, first.Reviews().Save(ctx, newReview(t, "r1", newBooking(t, "b1", "l1", "bob", "2024-07-01", "2024-07-04"), 5, testNow)))
	require.NoError(t, second.Reviews().Save(ctx, newReview(t, "r2", newBooking(t, "b1", "l1", "bob", "2024-07-01", "2024-07-04"), 1, testNow)))

	_, err := second.Reviews().ByBooking(ctx, "b1")
	require.NoError(t, err, "staged reviews are visible to their own unit")

	require.NoError(t, first.Commit(ctx))
	assert.ErrorIs(t, second.Commit(ctx), uow.ErrVersionConflict)

	reader := begin(t, store, true)
	got, err := reader.Reviews().ByBooking(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, domainreviews.ReviewID("r1"), got.ID)
	assert.Equal(t, int64(1), got.Version)

	_, err = reader.Reviews().ByBooking(ctx, "b2")
	assert.ErrorIs(t, err, domainreviews.ErrNotFound)
}

func TestReviewsListByListingMergesStaged(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	seed := begin(t, store, false)
	require.NoError(t, seed.Reviews().Save(ctx, newReview(t, "r1", newBooking(t, "b1", "l1", "bob", "2024-07-01", "2024-07-04"), 4, testNow)))
	require.NoError(t, seed.Reviews().Save(ctx, newReview(t, "r2", newBooking(t, "b2", "l2", "bob", "2024-07-01", "2024-07-04"), 3, testNow)))
	require.NoError(t, seed.Commit(ctx))

	unit := begin(t, store, false)
	existing, err := unit.Reviews().ByBooking(ctx, "b1")
	require.NoError(t, err)
	require.NoError(t, existing.Revise(2, "Went downhill", testNow.Add(time.Hour)))
	require.NoError(t, unit.Reviews().Save(ctx, existing))
	require.NoError(t, unit.Reviews().Save(ctx, newReview(t, "r3", newBooking(t, "b3", "l1", "carol", "2024-08-01", "2024-08-04"), 5, testNow.Add(2*time.Hour))))

	items, err := unit.Reviews().ListByListing(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domainreviews.ReviewID("r3"), items[0].ID, "newest first")
	assert.Equal(t, 2, items[1].Rating, "the staged revision wins over the committed copy")

	summary := domainreviews.Summarize(items)
	assert.Equal(t, 2, summary.Count())
	assert.Equal(t, 3.5, summary.Average())

	require.NoError(t, unit.Commit(ctx))
	reader := begin(t, store, true)
	got, err := reader.Reviews().ByBooking(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}
