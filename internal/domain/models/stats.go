package models

import "time"

// Figures is the set of measures shared by a month and a whole year.
// Percentages are expressed in the 0-100 range.
type Figures struct {
	TotalBookings            int                   `bson:"total_bookings" json:"totalBookings"`
	CancelledBookings        int                   `bson:"cancelled_bookings" json:"cancelledBookings"`
	TotalRevenue             float64               `bson:"total_revenue" json:"totalRevenue"`
	TotalExpenses            float64               `bson:"total_expenses" json:"totalExpenses"`
	NetIncome                float64               `bson:"net_income" json:"netIncome"`
	ProfitMargin             float64               `bson:"profit_margin" json:"profitMargin"`
	BookingsBySource         map[BookingSource]int `bson:"bookings_by_source" json:"bookingsBySource"`
	OccupancyRate            float64               `bson:"occupancy_rate" json:"occupancyRate"`
	AverageBookingDuration   float64               `bson:"average_booking_duration" json:"averageBookingDuration"`
	AverageRevenuePerBooking float64               `bson:"average_revenue_per_booking" json:"averageRevenuePerBooking"`
	AverageDailyRevenue      float64               `bson:"average_daily_revenue" json:"averageDailyRevenue"`
	AverageDailyRate         float64               `bson:"average_daily_rate" json:"averageDailyRate"`
	TotalBookingDays         int                   `bson:"total_booking_days" json:"totalBookingDays"`
	RevenueGrowth            float64               `bson:"revenue_growth" json:"revenueGrowth"`
	ExpenseGrowth            float64               `bson:"expense_growth" json:"expenseGrowth"`
}

// MonthlyStats holds the figures of one calendar month.
type MonthlyStats struct {
	Year    int `bson:"year" json:"year"`
	Month   int `bson:"month" json:"month"`
	Figures `bson:",inline"`
}

// YearlyTotals holds the figures of a whole year. Additive measures are sums of
// the months, ratios are recomputed from those sums.
type YearlyTotals struct {
	Year    int `bson:"year" json:"year"`
	Figures `bson:",inline"`
}

// ApartmentStats is the yearly activity of a single apartment.
type ApartmentStats struct {
	ApartmentID   string  `json:"apartmentId"`
	Name          string  `json:"name"`
	Bookings      int     `json:"bookings"`
	BookedDays    int     `json:"bookedDays"`
	Revenue       float64 `json:"revenue"`
	OccupancyRate float64 `json:"occupancyRate"`
}

// ExpenseCategory sums the expenses sharing a description.
type ExpenseCategory struct {
	Description string  `json:"description"`
	Count       int     `json:"count"`
	Total       float64 `json:"total"`
}

// YearReport is the full statistics output for one year.
type YearReport struct {
	Year              int               `json:"year"`
	Months            []MonthlyStats    `json:"months"`
	Totals            YearlyTotals      `json:"totals"`
	Apartments        []ApartmentStats  `json:"apartments"`
	MostBooked        string            `json:"mostBookedApartmentId,omitempty"`
	ExpenseCategories []ExpenseCategory `json:"expenseCategories"`
	AverageExpense    float64           `json:"averageExpense"`
	GeneratedAt       time.Time         `json:"generatedAt"`
}

// Occupancy is the occupancy of the portfolio over a month, or a year when
// Month is zero.
type Occupancy struct {
	Year          int     `json:"year"`
	Month         int     `json:"month,omitempty"`
	Apartments    int     `json:"apartments"`
	BookedDays    int     `json:"bookedDays"`
	AvailableDays int     `json:"availableDays"`
	Rate          float64 `json:"rate"`
}

// StatsSnapshot is a month's statistics frozen at month close.
type StatsSnapshot struct {
	ID         string       `bson:"_id" json:"id"`
	Stats      MonthlyStats `bson:"stats" json:"stats"`
	CapturedAt time.Time    `bson:"captured_at" json:"capturedAt"`
}

// SnapshotID is the deterministic key of a month's snapshot.
func SnapshotID(year, month int) string {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}
