package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the ISO calendar-date format exchanged on the wire.
const Layout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrInvalidDate  = errors.New("daterange: date must be formatted as YYYY-MM-DD")
)

// DateRange represents a half-open interval of calendar days [checkIn, checkOut).
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Day truncates t to midnight UTC of its own calendar day. Zero stays zero.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar day of now as observed in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Day(now.In(loc))
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero time.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

// FormatDate renders a day as YYYY-MM-DD, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return Day(t).Format(Layout)
}

// Of builds a day-normalised range without validating it.
func Of(checkIn, checkOut time.Time) DateRange {
	return DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
}

// Parse builds a day-normalised range from two ISO dates without validating order.
func Parse(start, end string) (DateRange, error) {
	in, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return Of(in, out), nil
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := Of(checkIn, checkOut)
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// MustParse is intended for fixtures and tests.
func MustParse(start, end string) DateRange {
	dr, err := Parse(start, end)
	if err != nil {
		panic(err)
	}
	return dr
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !Day(dr.CheckOut).After(Day(dr.CheckIn)) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) IsZero() bool {
	return dr.CheckIn.IsZero() && dr.CheckOut.IsZero()
}

// Nights counts whole days between check-in and check-out, rounding partial days up.
func (dr DateRange) Nights() int {
	in, out := Day(dr.CheckIn), Day(dr.CheckOut)
	if in.IsZero() || out.IsZero() || !out.After(in) {
		return 0
	}
	hours := out.Sub(in).Hours()
	nights := int(hours / 24)
	if float64(nights*24) < hours {
		nights++
	}
	return nights
}

// Overlaps uses checkout-exclusive semantics: a stay ending on day N does not
// overlap one starting on day N.
func (dr DateRange) Overlaps(other DateRange) bool {
	return Day(dr.CheckIn).Before(Day(other.CheckOut)) && Day(other.CheckIn).Before(Day(dr.CheckOut))
}

// Contains reports whether other lies within dr, both bounds inclusive.
func (dr DateRange) Contains(other DateRange) bool {
	in, out := Day(dr.CheckIn), Day(dr.CheckOut)
	oin, oout := Day(other.CheckIn), Day(other.CheckOut)
	return !oin.Before(in) && !oout.After(out)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Day(t)
	return !t.Before(Day(dr.CheckIn)) && t.Before(Day(dr.CheckOut))
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return Day(dr.CheckOut).Equal(Day(other.CheckIn)) || Day(dr.CheckIn).Equal(Day(other.CheckOut))
}

// Days returns every night of the stay, check-in included and check-out excluded.
func (dr DateRange) Days() []time.Time {
	n := dr.Nights()
	out := make([]time.Time, 0, n)
	start := Day(dr.CheckIn)
	for i := 0; i < n; i++ {
		out = append(out, start.AddDate(0, 0, i))
	}
	return out
}

func (dr DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", FormatDate(dr.CheckIn), FormatDate(dr.CheckOut))
}
