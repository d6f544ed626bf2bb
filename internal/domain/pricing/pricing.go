package pricing

import (
	"errors"
	"fmt"
	"math"

	"airbrb/internal/domain/shared/daterange"
	"airbrb/internal/domain/shared/money"
)

var (
	ErrTierMinNights = errors.New("pricing: tier min nights must be at least 1")
	ErrTierMaxNights = errors.New("pricing: tier max nights must be >= min nights")
	ErrTierPercent   = errors.New("pricing: tier discount must be within (0, 100]")
	ErrNegativePrice = errors.New("pricing: price per night must be non-negative")
)

// Percent is a discount rate in hundredths of a percent, so 12.5% is Percent(1250).
type Percent int64

const percentScale = 100

// FullPercent is 100%.
const FullPercent Percent = 100 * percentScale

// Percentage converts a human percent (10, 12.5) to Percent.
func Percentage(p float64) Percent {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return Percent(math.Round(p * percentScale))
}

func (p Percent) Float() float64 {
	return float64(p) / percentScale
}

func (p Percent) BasisPoints() int64 {
	return int64(p)
}

func (p Percent) String() string {
	return fmt.Sprintf("%g%%", p.Float())
}

// DiscountTier grants Percent off stays of MinNights..MaxNights nights. A nil
// MaxNights means no upper bound.
type DiscountTier struct {
	MinNights int
	MaxNights *int
	Percent   Percent
}

// Tier is a convenience constructor for a bounded tier.
func Tier(minNights, maxNights int, pct float64) DiscountTier {
	upper := maxNights
	return DiscountTier{MinNights: minNights, MaxNights: &upper, Percent: Percentage(pct)}
}

// OpenTier is a convenience constructor for a tier without an upper bound.
func OpenTier(minNights int, pct float64) DiscountTier {
	return DiscountTier{MinNights: minNights, Percent: Percentage(pct)}
}

// Active is false for tiers that can never apply.
func (t DiscountTier) Active() bool {
	return t.MinNights > 0 && t.Percent > 0
}

func (t DiscountTier) Matches(nights int) bool {
	if !t.Active() || nights < t.MinNights {
		return false
	}
	return t.MaxNights == nil || nights <= *t.MaxNights
}

// Copy detaches the MaxNights pointer.
func (t DiscountTier) Copy() DiscountTier {
	if t.MaxNights != nil {
		upper := *t.MaxNights
		t.MaxNights = &upper
	}
	return t
}

// DiscountConfig is the host-level switch plus the tiers it activates. Tiers may
// exist while Enabled is false; they are ignored until the host enables them.
type DiscountConfig struct {
	Enabled bool
	Tiers   []DiscountTier
}

func (c DiscountConfig) Copy() DiscountConfig {
	out := DiscountConfig{Enabled: c.Enabled}
	if c.Tiers != nil {
		out.Tiers = make([]DiscountTier, len(c.Tiers))
		for i, t := range c.Tiers {
			out.Tiers[i] = t.Copy()
		}
	}
	return out
}

// ValidateTiers checks tier configuration at edit time.
func ValidateTiers(tiers []DiscountTier) error {
	for i, t := range tiers {
		if t.MinNights < 1 {
			return fmt.Errorf("tier %d: %w", i+1, ErrTierMinNights)
		}
		if t.MaxNights != nil && *t.MaxNights < t.MinNights {
			return fmt.Errorf("tier %d: %w", i+1, ErrTierMaxNights)
		}
		if t.Percent <= 0 || t.Percent > FullPercent {
			return fmt.Errorf("tier %d: %w", i+1, ErrTierPercent)
		}
	}
	return nil
}

// Result is a derived quote; it is recomputed for every request and never stored.
type Result struct {
	Nights          int
	BasePrice       money.Money
	DiscountPercent Percent
	DiscountAmount  money.Money
	TotalPrice      money.Money
}

func ComputeNights(dr daterange.DateRange) int {
	return dr.Nights()
}

// SelectDiscount returns the highest discount among all tiers matching nights.
// Authoring order is irrelevant: overlapping tiers resolve to the larger discount.
func SelectDiscount(nights int, tiers []DiscountTier) Percent {
	var best Percent
	for _, t := range tiers {
		if t.Matches(nights) && t.Percent > best {
			best = t.Percent
		}
	}
	if best > FullPercent {
		best = FullPercent
	}
	return best
}

func Quote(nights int, pricePerNight money.Money, config DiscountConfig) Result {
	if nights < 0 {
		nights = 0
	}
	base := pricePerNight.Multiply(int64(nights))
	var pct Percent
	if config.Enabled {
		pct = SelectDiscount(nights, config.Tiers)
	}
	discount := base.Portion(pct.BasisPoints())
	return Result{
		Nights:          nights,
		BasePrice:       base,
		DiscountPercent: pct,
		DiscountAmount:  discount,
		TotalPrice:      money.Money{Amount: base.Amount - discount.Amount, Currency: base.Currency},
	}
}
