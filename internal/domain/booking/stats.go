package booking

import (
	"math"
	"time"

	"airbrb/internal/domain/listings"
	"airbrb/internal/domain/shared/daterange"
	"airbrb/internal/domain/shared/money"
)

// ProfitWindowDays is how far back the daily profit series reaches.
const ProfitWindowDays = 30

// HostStats summarises booking requests across a host's listings.
type HostStats struct {
	Total              int
	Pending            int
	Accepted           int
	Declined           int
	AcceptanceRate     float64
	TotalEarnings      money.Money
	DaysBookedThisYear int
	ProfitThisYear     money.Money

	// DailyProfit[i] is the nightly income i days before today.
	DailyProfit      [ProfitWindowDays + 1]money.Money
	ProfitLast30Days money.Money
}

// ComputeHostStats aggregates bookings. Earnings come from each booking's
// captured total; the yearly and daily profit figures use the listing's
// current nightly price from nightly. A stay crossing New Year counts only
// its nights that fall in today's year.
func ComputeHostStats(bookings []*Booking, nightly map[listings.ListingID]money.Money, today time.Time, currency string) HostStats {
	today = daterange.Day(today)
	stats := HostStats{
		TotalEarnings:    money.Money{Currency: currency},
		ProfitThisYear:   money.Money{Currency: currency},
		ProfitLast30Days: money.Money{Currency: currency},
	}
	for i := range stats.DailyProfit {
		stats.DailyProfit[i] = money.Money{Currency: currency}
	}

	for _, b := range bookings {
		if b == nil {
			continue
		}
		stats.Total++
		switch b.Status {
		case StatusPending:
			stats.Pending++
		case StatusDeclined:
			stats.Declined++
		case StatusAccepted:
			stats.Accepted++
			if b.TotalPrice != nil {
				stats.TotalEarnings.Amount += b.TotalPrice.Amount
			}
			price := nightly[b.ListingID]
			for _, day := range b.Range.Days() {
				if day.Year() == today.Year() {
					stats.DaysBookedThisYear++
					stats.ProfitThisYear.Amount += price.Amount
				}
				ago := int(today.Sub(day).Hours() / 24)
				if ago < 0 || ago > ProfitWindowDays {
					continue
				}
				stats.DailyProfit[ago].Amount += price.Amount
				stats.ProfitLast30Days.Amount += price.Amount
			}
		}
	}
	if stats.Total > 0 {
		stats.AcceptanceRate = math.Round(float64(stats.Accepted)*1000/float64(stats.Total)) / 10
	}
	return stats
}
