package accounting

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/rentledger/internal/domain/models"
)

// Input is everything needed to compute a year of statistics.
type Input struct {
	Year       int
	Bookings   []models.Booking
	Expenses   []models.Expense
	Apartments []models.Apartment
	// Prior, when set, holds the previous year's records and enables
	// year-over-year growth on the totals.
	Prior *Prior
}

// Prior holds the records of the year before Input.Year.
type Prior struct {
	Bookings []models.Booking
	Expenses []models.Expense
}

// ComputeStatistics aggregates bookings and expenses into twelve monthly
// statistics and the yearly totals. Records outside year are ignored.
func ComputeStatistics(bookings []models.Booking, expenses []models.Expense, year, apartmentCount int) ([]models.MonthlyStats, models.YearlyTotals) {
	return aggregate(year, bookings, expenses, apartmentCount, nil)
}

// ComputeYear builds the full year report: monthly statistics, totals and the
// per-apartment and per-expense breakdowns. GeneratedAt is left for the caller.
func ComputeYear(in Input) models.YearReport {
	months, totals := aggregate(in.Year, in.Bookings, in.Expenses, len(in.Apartments), in.Prior)
	apartments, mostBooked := apartmentBreakdown(in.Year, in.Bookings, in.Apartments)
	categories, avgExpense := expenseBreakdown(in.Year, in.Expenses)

	return models.YearReport{
		Year:              in.Year,
		Months:            months,
		Totals:            totals,
		Apartments:        apartments,
		MostBooked:        mostBooked,
		ExpenseCategories: categories,
		AverageExpense:    avgExpense,
	}
}

// ComputeMonth returns the statistics of a single month of in.Year.
func ComputeMonth(in Input, month int) models.MonthlyStats {
	months, _ := aggregate(in.Year, in.Bookings, in.Expenses, len(in.Apartments), nil)
	if month < 1 || month > 12 {
		return models.MonthlyStats{Year: in.Year, Month: month, Figures: emptyFigures()}
	}
	return months[month-1]
}

// bucketTotals accumulates the raw measures of a month or a year.
type bucketTotals struct {
	bookings  int
	cancelled int
	days      int
	revenue   decimal.Decimal
	expenses  decimal.Decimal
	rates     decimal.Decimal
	sources   map[models.BookingSource]int
}

func newBucketTotals() *bucketTotals {
	return &bucketTotals{sources: map[models.BookingSource]int{}}
}

func (t *bucketTotals) addBooking(b models.Booking) {
	if b.Cancelled() {
		t.cancelled++
		return
	}
	t.bookings++
	t.days += BookingDays(b)
	t.revenue = t.revenue.Add(BookingTotal(b))
	t.rates = t.rates.Add(decimal.NewFromFloat(b.Amount))
	t.sources[b.BookingSource.Normalized()]++
}

func (t *bucketTotals) addExpense(e models.Expense) {
	t.expenses = t.expenses.Add(decimal.NewFromFloat(e.Amount))
}

func (t *bucketTotals) merge(o *bucketTotals) {
	t.bookings += o.bookings
	t.cancelled += o.cancelled
	t.days += o.days
	t.revenue = t.revenue.Add(o.revenue)
	t.expenses = t.expenses.Add(o.expenses)
	t.rates = t.rates.Add(o.rates)
	for k, v := range o.sources {
		t.sources[k] += v
	}
}

func (t *bucketTotals) figures(daysInPeriod, apartmentCount int) models.Figures {
	count := decimal.NewFromInt(int64(t.bookings))
	net := t.revenue.Sub(t.expenses)

	sources := make(map[models.BookingSource]int, len(t.sources))
	for k, v := range t.sources {
		sources[k] = v
	}

	return models.Figures{
		TotalBookings:            t.bookings,
		CancelledBookings:        t.cancelled,
		TotalRevenue:             money(t.revenue),
		TotalExpenses:            money(t.expenses),
		NetIncome:                money(net),
		ProfitMargin:             percent(net, t.revenue),
		BookingsBySource:         sources,
		OccupancyRate:            OccupancyRate(t.days, daysInPeriod, apartmentCount),
		AverageBookingDuration:   ratio(decimal.NewFromInt(int64(t.days)), count),
		AverageRevenuePerBooking: ratio(t.revenue, count),
		AverageDailyRevenue:      ratio(t.revenue, decimal.NewFromInt(int64(daysInPeriod))),
		AverageDailyRate:         ratio(t.rates, count),
		TotalBookingDays:         t.days,
	}
}

func emptyFigures() models.Figures {
	return newBucketTotals().figures(0, 0)
}

func collect(year int, bookings []models.Booking, expenses []models.Expense) [12]*bucketTotals {
	var months [12]*bucketTotals
	for i := range months {
		months[i] = newBucketTotals()
	}
	for _, b := range bookings {
		if y, m := b.Bucket(); y == year && m >= 1 && m <= 12 {
			months[m-1].addBooking(b)
		}
	}
	for _, e := range expenses {
		if y, m := e.Bucket(); y == year && m >= 1 && m <= 12 {
			months[m-1].addExpense(e)
		}
	}
	return months
}

func aggregate(year int, bookings []models.Booking, expenses []models.Expense, apartmentCount int, prior *Prior) ([]models.MonthlyStats, models.YearlyTotals) {
	buckets := collect(year, bookings, expenses)
	yearly := newBucketTotals()

	months := make([]models.MonthlyStats, 12)
	for i, bt := range buckets {
		month := i + 1
		f := bt.figures(DaysInMonth(year, month), apartmentCount)
		if i > 0 {
			prev := buckets[i-1]
			f.RevenueGrowth = growth(bt.revenue, prev.revenue)
			f.ExpenseGrowth = growth(bt.expenses, prev.expenses)
		}
		months[i] = models.MonthlyStats{Year: year, Month: month, Figures: f}
		yearly.merge(bt)
	}

	totals := models.YearlyTotals{Year: year, Figures: yearly.figures(DaysInYear(year), apartmentCount)}
	if prior != nil {
		last := newBucketTotals()
		for _, bt := range collect(year-1, prior.Bookings, prior.Expenses) {
			last.merge(bt)
		}
		totals.RevenueGrowth = growth(yearly.revenue, last.revenue)
		totals.ExpenseGrowth = growth(yearly.expenses, last.expenses)
	}
	return months, totals
}
