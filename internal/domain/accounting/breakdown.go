package accounting

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/rentledger/internal/domain/models"
)

type apartmentTotals struct {
	name     string
	bookings int
	days     int
	revenue  decimal.Decimal
}

// apartmentBreakdown returns the yearly activity of every known apartment and
// of any apartment referenced by a booking but no longer listed, ordered by
// revenue. mostBooked is the apartment with the most active records.
func apartmentBreakdown(year int, bookings []models.Booking, apartments []models.Apartment) ([]models.ApartmentStats, string) {
	byID := make(map[string]*apartmentTotals, len(apartments))
	for _, a := range apartments {
		byID[a.ID] = &apartmentTotals{name: a.Name}
	}
	for _, b := range bookings {
		if b.Cancelled() {
			continue
		}
		if y, _ := b.Bucket(); y != year {
			continue
		}
		t, ok := byID[b.ApartmentID]
		if !ok {
			t = &apartmentTotals{}
			byID[b.ApartmentID] = t
		}
		t.bookings++
		t.days += BookingDays(b)
		t.revenue = t.revenue.Add(BookingTotal(b))
	}

	out := make([]models.ApartmentStats, 0, len(byID))
	for id, t := range byID {
		out = append(out, models.ApartmentStats{
			ApartmentID:   id,
			Name:          t.name,
			Bookings:      t.bookings,
			BookedDays:    t.days,
			Revenue:       money(t.revenue),
			OccupancyRate: OccupancyRate(t.days, DaysInYear(year), 1),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].ApartmentID < out[j].ApartmentID
	})

	mostBooked := ""
	best := 0
	for _, s := range out {
		// out is already ordered by revenue, so ties on count keep the higher earner.
		if s.Bookings > best {
			best = s.Bookings
			mostBooked = s.ApartmentID
		}
	}
	return out, mostBooked
}

// expenseBreakdown groups the year's expenses by description, largest first,
// and returns the average expense amount.
func expenseBreakdown(year int, expenses []models.Expense) ([]models.ExpenseCategory, float64) {
	type acc struct {
		count int
		total decimal.Decimal
	}
	groups := map[string]*acc{}
	sum := decimal.Zero
	n := 0
	for _, e := range expenses {
		if y, _ := e.Bucket(); y != year {
			continue
		}
		g, ok := groups[e.Description]
		if !ok {
			g = &acc{}
			groups[e.Description] = g
		}
		g.count++
		g.total = g.total.Add(decimal.NewFromFloat(e.Amount))
		sum = sum.Add(decimal.NewFromFloat(e.Amount))
		n++
	}

	out := make([]models.ExpenseCategory, 0, len(groups))
	for desc, g := range groups {
		out = append(out, models.ExpenseCategory{Description: desc, Count: g.count, Total: money(g.total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Description < out[j].Description
	})
	return out, ratio(sum, decimal.NewFromInt(int64(n)))
}
