package dto

import (
	"time"

	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
	"airbrb/internal/domain/pricing"
	"airbrb/internal/domain/shared/money"
)

type Booking struct {
	ID              string    `json:"id"`
	ListingID       string    `json:"listingId"`
	ListingTitle    string    `json:"listingTitle,omitempty"`
	Owner           string    `json:"owner"`
	DateRange       DateRange `json:"dateRange"`
	Status          string    `json:"status"`
	Nights          int       `json:"nights"`
	DiscountPercent float64   `json:"discountPercent"`
	TotalPrice      *float64  `json:"totalPrice"`
	Currency        string    `json:"currency,omitempty"`
	DeclineReason   string    `json:"declineReason,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type BookingCollection struct {
	Items []Booking `json:"bookings"`
}

// MapBooking renders b. listing may be nil when only the ID is known.
func MapBooking(b *domainbooking.Booking, listing *domainlistings.Listing) Booking {
	out := Booking{
		ID:              string(b.ID),
		ListingID:       string(b.ListingID),
		Owner:           b.GuestID,
		DateRange:       MapDateRange(b.Range),
		Status:          string(b.Status),
		Nights:          b.Nights,
		DiscountPercent: b.DiscountPercent.Float(),
		DeclineReason:   b.DeclineReason,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if b.TotalPrice != nil {
		total := b.TotalPrice.Decimal()
		out.TotalPrice = &total
		out.Currency = b.TotalPrice.Currency
	}
	if listing != nil {
		out.ListingTitle = listing.Title
	}
	return out
}

// BookingRequest is the guest's proposed stay.
type BookingRequest struct {
	DateRange DateRange `json:"dateRange"`
}

type DeclineRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type Quote struct {
	Nights          int     `json:"nights"`
	BasePrice       float64 `json:"basePrice"`
	DiscountPercent float64 `json:"discountPercent"`
	DiscountAmount  float64 `json:"discountAmount"`
	TotalPrice      float64 `json:"totalPrice"`
	Currency        string  `json:"currency"`
}

func MapQuote(res pricing.Result) Quote {
	return Quote{
		Nights:          res.Nights,
		BasePrice:       res.BasePrice.Decimal(),
		DiscountPercent: res.DiscountPercent.Float(),
		DiscountAmount:  res.DiscountAmount.Decimal(),
		TotalPrice:      res.TotalPrice.Decimal(),
		Currency:        res.TotalPrice.Currency,
	}
}

// Rejection is the error body for a booking that failed eligibility.
type Rejection struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

type HostStats struct {
	Total              int       `json:"totalRequests"`
	Pending            int       `json:"pending"`
	Accepted           int       `json:"accepted"`
	Declined           int       `json:"declined"`
	AcceptanceRate     float64   `json:"acceptanceRate"`
	TotalEarnings      float64   `json:"totalEarnings"`
	DaysBookedThisYear int       `json:"daysBookedThisYear"`
	ProfitThisYear     float64   `json:"profitThisYear"`
	DailyProfit        []float64 `json:"dailyProfit"`
	ProfitLast30Days   float64   `json:"profitLast30Days"`
	Currency           string    `json:"currency"`
}

func MapHostStats(s domainbooking.HostStats) HostStats {
	daily := make([]float64, len(s.DailyProfit))
	for i, m := range s.DailyProfit {
		daily[i] = m.Decimal()
	}
	return HostStats{
		Total:              s.Total,
		Pending:            s.Pending,
		Accepted:           s.Accepted,
		Declined:           s.Declined,
		AcceptanceRate:     s.AcceptanceRate,
		TotalEarnings:      s.TotalEarnings.Decimal(),
		DaysBookedThisYear: s.DaysBookedThisYear,
		ProfitThisYear:     s.ProfitThisYear.Decimal(),
		DailyProfit:        daily,
		ProfitLast30Days:   s.ProfitLast30Days.Decimal(),
		Currency:           currencyOf(s.TotalEarnings),
	}
}

func currencyOf(m money.Money) string {
	if m.Currency == "" {
		return money.DefaultCurrency
	}
	return m.Currency
}
