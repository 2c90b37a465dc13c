package accounting

import (
	"github.com/mamadbah2/rentledger/internal/domain/models"
)

// Draft is a validated booking ready to be stored. It is either a SingleMonth
// or a CrossMonth; callers switch on the concrete type.
type Draft interface {
	// Records returns the booking records to persist, in write order.
	Records() []models.Booking
	draft()
}

// SingleMonth is a stay that checks in and out in the same calendar month.
type SingleMonth struct {
	Booking models.Booking
}

func (d SingleMonth) Records() []models.Booking { return []models.Booking{d.Booking} }
func (SingleMonth) draft()                       {}

// CrossMonth is a stay that checks out in the month after check-in, stored as
// two independent partial records.
type CrossMonth struct {
	First  models.Booking
	Second models.Booking
}

func (d CrossMonth) Records() []models.Booking { return []models.Booking{d.First, d.Second} }
func (CrossMonth) draft()                       {}

// NewDraft validates b and applies the month-split policy.
//
// A stay checking out in the month after its check-in month becomes two
// partial records. This holds for a checkout on the first of that month too:
// the second half then carries no night and bills zero days. A checkout two or
// more months after check-in is rejected with *models.ErrUnsupportedSpan.
func NewDraft(b models.Booking) (Draft, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if DaysBetween(b.CheckIn, b.CheckOut) < 1 {
		return nil, &models.ErrValidation{Field: "checkOut", Message: "stay must cover at least one night"}
	}
	if b.Status == "" {
		b.Status = models.StatusActive
	}
	b.IsPartial = false
	b.PartialType = ""

	span := MonthsSpanned(b.CheckIn, b.CheckOut)
	switch {
	case span == 1:
		b.Year, b.Month = b.CheckIn.Year(), int(b.CheckIn.Month())
		b.NumberOfDays = BookingDays(b)
		return SingleMonth{Booking: b}, nil
	case span == 2:
		return splitAtMonthEnd(b), nil
	default:
		return nil, &models.ErrUnsupportedSpan{CheckIn: b.CheckIn, CheckOut: b.CheckOut, Months: span}
	}
}

func splitAtMonthEnd(b models.Booking) CrossMonth {
	first := b
	first.CheckOut = LastInstantOfMonth(b.CheckIn)
	first.Year, first.Month = b.CheckIn.Year(), int(b.CheckIn.Month())
	first.IsPartial = true
	first.PartialType = models.PartialFirst
	first.NumberOfDays = BookingDays(first)
	first.Receipts = cloneReceipts(b.Receipts)

	second := b
	second.CheckIn = FirstInstantOfNextMonth(b.CheckIn)
	second.Year, second.Month = second.CheckIn.Year(), int(second.CheckIn.Month())
	second.IsPartial = true
	second.PartialType = models.PartialSecond
	second.NumberOfDays = BookingDays(second)
	second.Receipts = cloneReceipts(b.Receipts)

	return CrossMonth{First: first, Second: second}
}

func cloneReceipts(in []models.Receipt) []models.Receipt {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Receipt, len(in))
	copy(out, in)
	return out
}

// SplitIfCrossesMonth returns the records b must be stored as: one when the
// stay fits a month, two partial records when it crosses a month boundary.
func SplitIfCrossesMonth(b models.Booking) ([]models.Booking, error) {
	d, err := NewDraft(b)
	if err != nil {
		return nil, err
	}
	return d.Records(), nil
}
