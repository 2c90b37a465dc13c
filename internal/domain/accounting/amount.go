package accounting

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/rentledger/internal/domain/models"
)

// BookingDays returns the billable days of a booking record.
//
// A whole stay counts its nights, checkout excluded. The first half of a split
// stay ends on the last instant of the month and that day is counted, so it
// gets one more than DaysBetween. The second half starts on the first of the
// next month and excludes its checkout like a whole stay.
func BookingDays(b models.Booking) int {
	days := DaysBetween(b.CheckIn, b.CheckOut)
	if b.IsPartial && b.PartialType == models.PartialFirst {
		days++
	}
	if days < 0 {
		return 0
	}
	return days
}

// BookingTotal is the daily rate times BookingDays.
func BookingTotal(b models.Booking) decimal.Decimal {
	return decimal.NewFromFloat(b.Amount).Mul(decimal.NewFromInt(int64(BookingDays(b))))
}

// ComputeBookingTotal returns BookingTotal as a float rounded to cents.
func ComputeBookingTotal(b models.Booking) float64 {
	return money(BookingTotal(b))
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// ratio returns num/den rounded to two decimals, or 0 when den is zero.
func ratio(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return 0
	}
	return num.DivRound(den, 8).Round(2).InexactFloat64()
}

// percent returns num/den*100 rounded to two decimals, or 0 when den is zero.
func percent(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return 0
	}
	return num.Mul(decimal.NewFromInt(100)).DivRound(den, 8).Round(2).InexactFloat64()
}

// growth returns the percent change from prev to cur, or 0 when prev is zero.
func growth(cur, prev decimal.Decimal) float64 {
	if prev.IsZero() {
		return 0
	}
	return percent(cur.Sub(prev), prev)
}
