package accounting

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/rentledger/internal/domain/models"
)

// OccupancyRate returns bookedDays as a percentage of the apartment-days
// available in the period, clamped to [0, 100]. Overlapping bookings can push
// the raw ratio above 100.
func OccupancyRate(bookedDays, daysInPeriod, apartmentCount int) float64 {
	if bookedDays <= 0 || daysInPeriod <= 0 || apartmentCount <= 0 {
		return 0
	}
	rate := percent(decimal.NewFromInt(int64(bookedDays)), decimal.NewFromInt(int64(daysInPeriod)*int64(apartmentCount)))
	if rate > 100 {
		return 100
	}
	return rate
}

// Period selects a month of a year, or the whole year when Month is zero.
type Period struct {
	Year  int
	Month int
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	if p.Month == 0 {
		return DaysInYear(p.Year)
	}
	return DaysInMonth(p.Year, p.Month)
}

// Contains reports whether a year/month bucket belongs to the period.
func (p Period) Contains(year, month int) bool {
	return year == p.Year && (p.Month == 0 || month == p.Month)
}

// ComputeOccupancy sums the billable days of active bookings accounted in the
// period and converts them to an occupancy rate over all apartments.
func ComputeOccupancy(bookings []models.Booking, apartmentCount int, p Period) models.Occupancy {
	booked := 0
	for _, b := range bookings {
		if b.Cancelled() {
			continue
		}
		if y, m := b.Bucket(); p.Contains(y, m) {
			booked += BookingDays(b)
		}
	}
	days := p.Days()
	return models.Occupancy{
		Year:          p.Year,
		Month:         p.Month,
		Apartments:    apartmentCount,
		BookedDays:    booked,
		AvailableDays: days * apartmentCount,
		Rate:          OccupancyRate(booked, days, apartmentCount),
	}
}
