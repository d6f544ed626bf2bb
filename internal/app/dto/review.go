package dto

import (
	"time"

	domainlistings "airbrb/internal/domain/listings"
	domainreviews "airbrb/internal/domain/reviews"
)

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ReviewRequest wraps the review the way the web client sends it.
type ReviewRequest struct {
	Review ReviewInput `json:"review"`
}

type Review struct {
	ID        string    `json:"id"`
	BookingID string    `json:"bookingId"`
	ListingID string    `json:"listingId"`
	Author    string    `json:"author"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RatingSummary is keyed by star count, 1 through 5.
type RatingSummary struct {
	Average   float64     `json:"average"`
	Count     int         `json:"count"`
	Breakdown map[int]int `json:"breakdown"`
}

type ReviewCollection struct {
	Items   []Review      `json:"reviews"`
	Total   int           `json:"total"`
	Summary RatingSummary `json:"summary"`
}

func MapReview(r *domainreviews.Review) Review {
	return Review{
		ID:        string(r.ID),
		BookingID: string(r.BookingID),
		ListingID: string(r.ListingID),
		Author:    r.AuthorID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func MapRatingSummary(s domainlistings.RatingSummary) RatingSummary {
	breakdown := make(map[int]int, domainlistings.MaxRating)
	for stars := domainlistings.MinRating; stars <= domainlistings.MaxRating; stars++ {
		breakdown[stars] = s.Stars(stars)
	}
	return RatingSummary{Average: s.Average(), Count: s.Count(), Breakdown: breakdown}
}
