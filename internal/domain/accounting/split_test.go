package accounting_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rentledger/internal/domain/accounting"
	"github.com/mamadbah2/rentledger/internal/domain/models"
)

func stay(in, out time.Time, rate float64) models.Booking {
	return models.Booking{
		ApartmentID:   "apt-1",
		ClientName:    "Awa Diallo",
		PhoneNumber:   "+224620000000",
		CheckIn:       in,
		CheckOut:      out,
		Amount:        rate,
		BookingSource: models.SourceAirbnb,
		Receipts: []models.Receipt{
			{ID: "r1", ImageURL: "https://img/r1.jpg", Amount: 100},
		},
	}
}

func TestSplitAcrossMonthBoundary(t *testing.T) {
	b := stay(day(2024, 1, 28), day(2024, 2, 3), 100)

	records, err := accounting.SplitIfCrossesMonth(b)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first, second := records[0], records[1]

	assert.Equal(t, day(2024, 1, 28), first.CheckIn)
	assert.Equal(t, accounting.LastInstantOfMonth(day(2024, 1, 1)), first.CheckOut)
	assert.Equal(t, 2024, first.Year)
	assert.Equal(t, 1, first.Month)
	assert.True(t, first.IsPartial)
	assert.Equal(t, models.PartialFirst, first.PartialType)
	assert.Equal(t, 4, first.NumberOfDays)
	assert.Equal(t, 400.0, accounting.ComputeBookingTotal(first))

	assert.Equal(t, day(2024, 2, 1), second.CheckIn)
	assert.Equal(t, day(2024, 2, 3), second.CheckOut)
	assert.Equal(t, 2, second.Month)
	assert.Equal(t, models.PartialSecond, second.PartialType)
	assert.Equal(t, 2, second.NumberOfDays)
	assert.Equal(t, 200.0, accounting.ComputeBookingTotal(second))

	for _, r := range records {
		assert.Equal(t, b.Amount, r.Amount)
		assert.Equal(t, b.ClientName, r.ClientName)
		assert.Equal(t, b.PhoneNumber, r.PhoneNumber)
		assert.Equal(t, b.ApartmentID, r.ApartmentID)
		assert.Equal(t, b.BookingSource, r.BookingSource)
		assert.Equal(t, models.StatusActive, r.Status)
		assert.Len(t, r.Receipts, 1)
	}
}

func TestSplitConservesDaysAndAmount(t *testing.T) {
	stays := []struct{ in, out time.Time }{
		{day(2024, 1, 28), day(2024, 2, 3)},
		{day(2024, 1, 31), day(2024, 2, 2)},
		{day(2024, 2, 20), day(2024, 3, 10)},
		{day(2023, 12, 25), day(2024, 1, 4)},
		{day(2024, 1, 28), day(2024, 2, 1)},
		{time.Date(2024, 4, 29, 16, 0, 0, 0, time.UTC), time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)},
	}
	for _, s := range stays {
		b := stay(s.in, s.out, 85.5)
		records, err := accounting.SplitIfCrossesMonth(b)
		require.NoError(t, err)
		require.Len(t, records, 2, "%s", s.in)

		whole := accounting.DaysBetween(s.in, s.out)
		assert.Equal(t, whole, records[0].NumberOfDays+records[1].NumberOfDays)
		assert.Equal(t, whole, accounting.BookingDays(records[0])+accounting.BookingDays(records[1]))

		sum := accounting.BookingTotal(records[0]).Add(accounting.BookingTotal(records[1]))
		assert.True(t, accounting.BookingTotal(b).Equal(sum), "total for %s", s.in)
	}
}

func TestSingleMonthStayIsNotSplit(t *testing.T) {
	b := stay(day(2024, 3, 5), day(2024, 3, 10), 200)

	d, err := accounting.NewDraft(b)
	require.NoError(t, err)

	single, ok := d.(accounting.SingleMonth)
	require.True(t, ok)
	assert.False(t, single.Booking.IsPartial)
	assert.Empty(t, single.Booking.PartialType)
	assert.Equal(t, 5, single.Booking.NumberOfDays)
	assert.Equal(t, 2024, single.Booking.Year)
	assert.Equal(t, 3, single.Booking.Month)
	assert.Equal(t, 1000.0, accounting.ComputeBookingTotal(single.Booking))
}

func TestCheckoutOnFirstOfMonthStillSplits(t *testing.T) {
	b := stay(day(2024, 1, 28), day(2024, 2, 1), 50)

	records, err := accounting.SplitIfCrossesMonth(b)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first, second := records[0], records[1]
	assert.Equal(t, 4, first.NumberOfDays)
	assert.Equal(t, 1, first.Month)
	assert.Equal(t, 200.0, accounting.ComputeBookingTotal(first))

	assert.Equal(t, models.PartialSecond, second.PartialType)
	assert.Equal(t, 2, second.Month)
	assert.Equal(t, day(2024, 2, 1), second.CheckIn)
	assert.Equal(t, day(2024, 2, 1), second.CheckOut)
	assert.Zero(t, second.NumberOfDays)
	assert.Zero(t, accounting.ComputeBookingTotal(second))
	assert.NoError(t, second.Validate())
}

func TestSplitAcrossYearEnd(t *testing.T) {
	records, err := accounting.SplitIfCrossesMonth(stay(day(2023, 12, 30), day(2024, 1, 2), 10))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2023, records[0].Year)
	assert.Equal(t, 12, records[0].Month)
	assert.Equal(t, 2024, records[1].Year)
	assert.Equal(t, 1, records[1].Month)
}

func TestSplitHalvesOwnReceiptCopies(t *testing.T) {
	records, err := accounting.SplitIfCrossesMonth(stay(day(2024, 1, 28), day(2024, 2, 3), 100))
	require.NoError(t, err)

	records[0].Receipts[0].Note = "changed"
	assert.Empty(t, records[1].Receipts[0].Note)
}

func TestDraftRejectsLongSpan(t *testing.T) {
	tests := []struct {
		name    string
		in, out time.Time
		months  int
	}{
		{"three months", day(2024, 1, 20), day(2024, 3, 5), 3},
		{"checkout on the first two months later", day(2024, 1, 28), day(2024, 3, 1), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := accounting.NewDraft(stay(tt.in, tt.out, 100))

			var span *models.ErrUnsupportedSpan
			require.True(t, errors.As(err, &span), "got %v", err)
			assert.Equal(t, tt.months, span.Months)
		})
	}
}

func TestDraftValidation(t *testing.T) {
	base := stay(day(2024, 3, 5), day(2024, 3, 10), 100)

	tests := []struct {
		name  string
		edit  func(b *models.Booking)
		field string
	}{
		{"checkout before checkin", func(b *models.Booking) { b.CheckOut = day(2024, 3, 1) }, "checkOut"},
		{"checkout equals checkin", func(b *models.Booking) { b.CheckOut = b.CheckIn }, "checkOut"},
		{"same day", func(b *models.Booking) { b.CheckOut = b.CheckIn.Add(3 * time.Hour) }, "checkOut"},
		{"negative rate", func(b *models.Booking) { b.Amount = -1 }, "amount"},
		{"missing apartment", func(b *models.Booking) { b.ApartmentID = "" }, "apartmentId"},
		{"missing client", func(b *models.Booking) { b.ClientName = "" }, "clientName"},
		{"unknown source", func(b *models.Booking) { b.BookingSource = "fax" }, "bookingSource"},
		{"unknown status", func(b *models.Booking) { b.Status = "pending" }, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := base
			tt.edit(&b)
			_, err := accounting.NewDraft(b)

			var verr *models.ErrValidation
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestBookingDaysForLegacyRecords(t *testing.T) {
	b := stay(day(2024, 3, 10), day(2024, 3, 5), 100)
	assert.Equal(t, 0, accounting.BookingDays(b))
	assert.Equal(t, 0.0, accounting.ComputeBookingTotal(b))
}
