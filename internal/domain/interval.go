package domain

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share any instant. Every conflict check in the engine, local
// or external, goes through this single predicate so that adjacent bookings
// ("10:00-11:00" followed by "11:00-12:00") never count as conflicting.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
