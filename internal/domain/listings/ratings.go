package listings

import (
	"math"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// RatingSummary counts reviews per star. Counts[0] holds one-star reviews.
type RatingSummary struct {
	Counts [MaxRating]int
}

// Add counts one review. Ratings outside 1..5 are ignored.
func (s *RatingSummary) Add(rating int) {
	if rating < MinRating || rating > MaxRating {
		return
	}
	s.Counts[rating-1]++
}

func (s RatingSummary) Count() int {
	total := 0
	for _, n := range s.Counts {
		total += n
	}
	return total
}

// Average is the mean rating rounded to two decimals, zero without reviews.
func (s RatingSummary) Average() float64 {
	count := s.Count()
	if count == 0 {
		return 0
	}
	sum := 0
	for i, n := range s.Counts {
		sum += (i + 1) * n
	}
	return math.Round(float64(sum)*100/float64(count)) / 100
}

// Stars returns how many reviews gave exactly rating stars.
func (s RatingSummary) Stars(rating int) int {
	if rating < MinRating || rating > MaxRating {
		return 0
	}
	return s.Counts[rating-1]
}

// UpdateRatings replaces the listing's review summary. It does not record an
// event; the review itself does.
func (l *Listing) UpdateRatings(summary RatingSummary, now time.Time) {
	l.Ratings = summary
	l.UpdatedAt = now.UTC()
}
