package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"airbrb/internal/domain/shared/daterange"
)

type stay struct {
	period daterange.DateRange
	blocks bool
}

func (s stay) Period() daterange.DateRange { return s.period }
func (s stay) Blocking() bool              { return s.blocks }

func TestWithinWindows(t *testing.T) {
	windows := []daterange.DateRange{
		daterange.MustParse("2024-06-01", "2024-06-30"),
		daterange.MustParse("2024-08-01", "2024-08-15"),
	}

	cases := []struct {
		name      string
		candidate daterange.DateRange
		want      bool
	}{
		{"inside first", daterange.MustParse("2024-06-10", "2024-06-15"), true},
		{"exactly the window", daterange.MustParse("2024-06-01", "2024-06-30"), true},
		{"inside second", daterange.MustParse("2024-08-02", "2024-08-15"), true},
		{"starts before", daterange.MustParse("2024-05-31", "2024-06-05"), false},
		{"ends after", daterange.MustParse("2024-06-25", "2024-07-01"), false},
		{"spans the gap", daterange.MustParse("2024-06-25", "2024-08-05"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WithinWindows(tc.candidate, windows))
		})
	}
}

func TestWithinWindowsUnrestrictedByDefault(t *testing.T) {
	assert.True(t, Unrestricted(nil))
	assert.True(t, WithinWindows(daterange.MustParse("2030-01-01", "2030-02-01"), nil))
	assert.True(t, WithinWindows(daterange.MustParse("2030-01-01", "2030-02-01"), []daterange.DateRange{}))
}

func TestConflictsHalfOpen(t *testing.T) {
	existing := []stay{{period: daterange.MustParse("2024-06-10", "2024-06-15"), blocks: true}}

	_, found := Conflicts(daterange.MustParse("2024-06-15", "2024-06-20"), existing)
	assert.False(t, found, "check-in on the previous checkout day must not overlap")

	_, found = Conflicts(daterange.MustParse("2024-06-05", "2024-06-10"), existing)
	assert.False(t, found)

	conflict, found := Conflicts(daterange.MustParse("2024-06-12", "2024-06-18"), existing)
	assert.True(t, found)
	assert.Equal(t, existing[0], conflict)

	assert.True(t, Overlapping(daterange.MustParse("2024-06-14", "2024-06-15"), existing))
	assert.True(t, Overlapping(daterange.MustParse("2024-06-01", "2024-06-30"), existing))
}

func TestConflictsSkipsNonBlocking(t *testing.T) {
	existing := []stay{{period: daterange.MustParse("2024-06-10", "2024-06-15"), blocks: false}}
	assert.False(t, Overlapping(daterange.MustParse("2024-06-12", "2024-06-18"), existing))
}

func TestIsBookable(t *testing.T) {
	windows := []daterange.DateRange{daterange.MustParse("2024-06-01", "2024-06-30")}
	existing := []stay{{period: daterange.MustParse("2024-06-10", "2024-06-15"), blocks: true}}

	assert.True(t, IsBookable(daterange.MustParse("2024-06-15", "2024-06-20"), windows, existing))
	assert.False(t, IsBookable(daterange.MustParse("2024-06-12", "2024-06-18"), windows, existing))
	assert.False(t, IsBookable(daterange.MustParse("2024-06-25", "2024-07-02"), windows, existing))
	assert.True(t, IsBookable(daterange.MustParse("2024-06-25", "2024-07-02"), nil, existing))
}
