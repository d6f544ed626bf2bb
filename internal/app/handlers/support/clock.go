package support

import (
	"time"

	"airbrb/internal/domain/shared/daterange"
)

// Clock supplies the wall clock and the calendar used to decide "today".
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func (c Clock) Time() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return c.Now().UTC()
}

// Today is the current calendar day in the configured location.
func (c Clock) Today() time.Time {
	return daterange.Today(c.Time(), c.Location)
}

// FixedClock always reports at.
func FixedClock(at time.Time, loc *time.Location) Clock {
	return Clock{Now: func() time.Time { return at }, Location: loc}
}
