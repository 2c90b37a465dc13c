package accounting

import (
	"time"

	"github.com/mamadbah2/rentledger/internal/domain/models"
)

// nights returns the half-open range of calendar dates a booking occupies.
// The first half of a split stay ends on the last instant of the month, which
// is a night of that stay.
func nights(b models.Booking) (time.Time, time.Time) {
	start := DateOnly(b.CheckIn)
	end := start.AddDate(0, 0, BookingDays(b))
	return start, end
}

// Overlaps reports whether two active bookings of the same apartment share a night.
func Overlaps(a, b models.Booking) bool {
	if a.ApartmentID != b.ApartmentID || a.Cancelled() || b.Cancelled() {
		return false
	}
	aStart, aEnd := nights(a)
	bStart, bEnd := nights(b)
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Conflicts returns the existing bookings that share a night with candidate.
// A record is never in conflict with itself.
func Conflicts(existing []models.Booking, candidate models.Booking) []models.Booking {
	var out []models.Booking
	for _, b := range existing {
		if candidate.ID != "" && b.ID == candidate.ID {
			continue
		}
		if Overlaps(b, candidate) {
			out = append(out, b)
		}
	}
	return out
}
