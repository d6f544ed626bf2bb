package availability

import "airbrb/internal/domain/shared/daterange"

// Reservation is anything that may hold a listing's nights. Implementations
// should report Blocking false for a nil receiver.
type Reservation interface {
	Period() daterange.DateRange
	Blocking() bool
}

// Unrestricted reports whether the host left availability open. A listing
// without windows accepts any dates.
func Unrestricted(windows []daterange.DateRange) bool {
	return len(windows) == 0
}

// WithinWindows reports whether candidate lies inside at least one window,
// bounds inclusive. It always passes for an unrestricted listing.
func WithinWindows(candidate daterange.DateRange, windows []daterange.DateRange) bool {
	if Unrestricted(windows) {
		return true
	}
	for _, w := range windows {
		if w.Contains(candidate) {
			return true
		}
	}
	return false
}

// Conflicts returns the first blocking reservation overlapping candidate.
// Declined reservations never block, and a stay checking out on the day
// candidate checks in does not overlap.
func Conflicts[R Reservation](candidate daterange.DateRange, existing []R) (R, bool) {
	var zero R
	for _, r := range existing {
		if !r.Blocking() {
			continue
		}
		if candidate.Overlaps(r.Period()) {
			return r, true
		}
	}
	return zero, false
}

func Overlapping[R Reservation](candidate daterange.DateRange, existing []R) bool {
	_, found := Conflicts(candidate, existing)
	return found
}

// IsBookable combines window containment with the overlap check.
func IsBookable[R Reservation](candidate daterange.DateRange, windows []daterange.DateRange, existing []R) bool {
	return WithinWindows(candidate, windows) && !Overlapping(candidate, existing)
}
