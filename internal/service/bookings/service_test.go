package bookings_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rentledger/internal/domain/models"
	"github.com/mamadbah2/rentledger/internal/repository"
	"github.com/mamadbah2/rentledger/internal/repository/memory"
	"github.com/mamadbah2/rentledger/internal/service/bookings"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type countingRecorder struct {
	mu        sync.Mutex
	records   map[string]int
	rollbacks map[string]int
}

func newRecorder() *countingRecorder {
	return &countingRecorder{records: map[string]int{}, rollbacks: map[string]int{}}
}

func (r *countingRecorder) IncBookingRecord(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[kind]++
}

func (r *countingRecorder) IncSplitRollback(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollbacks[outcome]++
}

type fakeUploader struct {
	url      string
	err      error
	filename string
	body     string
}

func (u *fakeUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	data, _ := io.ReadAll(r)
	u.filename, u.body = filename, string(data)
	return u.url, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stay(in, out time.Time) models.Booking {
	return models.Booking{
		ApartmentID:   "apt-1",
		ClientName:    "Mariama Bah",
		PhoneNumber:   "+224621000000",
		CheckIn:       in,
		CheckOut:      out,
		Amount:        100,
		BookingSource: models.SourceBooking,
	}
}

func newService(store *memory.Store, opts ...bookings.Option) *bookings.Service {
	opts = append([]bookings.Option{bookings.WithClock(func() time.Time { return fixedNow })}, opts...)
	return bookings.NewService(store, time.UTC, nil, opts...)
}

// failNth fails the nth call of op, counting from 1.
func failNth(op string, n int, err error) func(string) error {
	var mu sync.Mutex
	calls := 0
	return func(got string) error {
		if got != op {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == n {
			return err
		}
		return nil
	}
}

func TestCreateBookingWithinMonth(t *testing.T) {
	store := memory.New()
	rec := newRecorder()
	svc := newService(store, bookings.WithRecorder(rec))

	records, err := svc.CreateBooking(context.Background(), stay(day(2024, 3, 10), day(2024, 3, 15)))
	require.NoError(t, err)
	require.Len(t, records, 1)

	b := records[0]
	assert.NotEmpty(t, b.ID)
	assert.False(t, b.IsPartial)
	assert.Equal(t, models.StatusActive, b.Status)
	assert.Equal(t, 2024, b.Year)
	assert.Equal(t, 3, b.Month)
	assert.Equal(t, 5, b.NumberOfDays)
	assert.Equal(t, fixedNow, b.CreatedAt)
	assert.Equal(t, 1, rec.records["whole"])

	stored, err := store.GetBooking(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.NumberOfDays, stored.NumberOfDays)
}

func TestCreateBookingSplitsAcrossMonths(t *testing.T) {
	store := memory.New()
	rec := newRecorder()
	svc := newService(store, bookings.WithRecorder(rec))

	in := stay(day(2024, 1, 28), day(2024, 2, 3))
	in.Receipts = []models.Receipt{{ImageURL: "https://img/1.jpg", Amount: 600}}

	records, err := svc.CreateBooking(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first, second := records[0], records[1]
	assert.Equal(t, models.PartialFirst, first.PartialType)
	assert.Equal(t, 1, first.Month)
	assert.Equal(t, 4, first.NumberOfDays)
	assert.Equal(t, models.PartialSecond, second.PartialType)
	assert.Equal(t, 2, second.Month)
	assert.Equal(t, 2, second.NumberOfDays)

	for _, r := range records {
		require.Len(t, r.Receipts, 1)
		assert.NotEmpty(t, r.Receipts[0].ID)
		assert.Equal(t, r.ID, r.Receipts[0].BookingID)
	}
	assert.Empty(t, in.Receipts[0].ID, "caller's receipts must not be modified")

	jan, err := store.ListBookings(context.Background(), repository.Filter{Year: 2024, Month: 1})
	require.NoError(t, err)
	assert.Len(t, jan, 1)
	feb, err := store.ListBookings(context.Background(), repository.Filter{Year: 2024, Month: 2})
	require.NoError(t, err)
	assert.Len(t, feb, 1)

	assert.Equal(t, 1, rec.records["first"])
	assert.Equal(t, 1, rec.records["second"])
}

func TestCreateBookingRollsBackFirstHalf(t *testing.T) {
	store := memory.New()
	rec := newRecorder()
	svc := newService(store, bookings.WithRecorder(rec))
	boom := errors.New("write refused")
	store.Fail = failNth("create booking", 2, boom)

	_, err := svc.CreateBooking(context.Background(), stay(day(2024, 1, 28), day(2024, 2, 3)))
	require.Error(t, err)

	var sw *models.ErrSplitWrite
	require.ErrorAs(t, err, &sw)
	assert.NoError(t, sw.Compensation)
	assert.ErrorIs(t, err, boom)

	store.Fail = nil
	left, err := store.ListBookings(context.Background(), repository.Filter{})
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Equal(t, 1, rec.rollbacks["rolled_back"])
}

func TestCreateBookingReportsOrphanedHalf(t *testing.T) {
	store := memory.New()
	rec := newRecorder()
	svc := newService(store, bookings.WithRecorder(rec))
	boom := errors.New("write refused")
	gone := errors.New("connection lost")
	createFail := failNth("create booking", 2, boom)
	store.Fail = func(op string) error {
		if op == "delete booking" {
			return gone
		}
		return createFail(op)
	}

	_, err := svc.CreateBooking(context.Background(), stay(day(2024, 1, 28), day(2024, 2, 3)))

	var sw *models.ErrSplitWrite
	require.ErrorAs(t, err, &sw)
	assert.ErrorIs(t, err, gone)
	assert.NotEmpty(t, sw.FirstID)
	assert.Equal(t, 1, rec.rollbacks["orphaned"])
}

func TestCreateBookingRollbackSurvivesCancelledContext(t *testing.T) {
	store := memory.New()
	svc := newService(store)
	ctx, cancel := context.WithCancel(context.Background())

	createFail := failNth("create booking", 2, context.Canceled)
	store.Fail = func(op string) error {
		err := createFail(op)
		if err != nil {
			cancel()
		}
		return err
	}

	_, err := svc.CreateBooking(ctx, stay(day(2024, 1, 28), day(2024, 2, 3)))
	var sw *models.ErrSplitWrite
	require.ErrorAs(t, err, &sw)
	assert.NoError(t, sw.Compensation)

	store.Fail = nil
	left, err := store.ListBookings(context.Background(), repository.Filter{})
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestSplitHalvesGetDistinctReceiptIDs(t *testing.T) {
	store := memory.New()
	svc := newService(store)

	in := stay(day(2024, 1, 28), day(2024, 2, 3))
	in.Receipts = []models.Receipt{
		{ImageURL: "https://img/1.jpg", Amount: 300},
		{ID: "given", ImageURL: "https://img/2.jpg", Amount: 300},
	}
	records, err := svc.CreateBooking(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, records, 2)

	ids := map[string]bool{}
	for _, r := range records {
		require.Len(t, r.Receipts, 2)
		for _, rc := range r.Receipts {
			assert.NotEmpty(t, rc.ID)
			assert.False(t, ids[rc.ID], "receipt id %s reused", rc.ID)
			ids[rc.ID] = true
		}
	}
	assert.Equal(t, "given", records[0].Receipts[1].ID)

	require.NoError(t, svc.RemoveReceipt(context.Background(), records[1].ID, records[1].Receipts[0].ID))
	first, err := svc.GetBooking(context.Background(), records[0].ID)
	require.NoError(t, err)
	assert.Len(t, first.Receipts, 2)
}

func TestCheckoutOnFirstOfMonthStoresEmptySecondHalf(t *testing.T) {
	store := memory.New()
	svc := newService(store)

	records, err := svc.CreateBooking(context.Background(), stay(day(2024, 1, 28), day(2024, 2, 1)))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 4, records[0].NumberOfDays)
	assert.Zero(t, records[1].NumberOfDays)

	name := "Mariama Diallo"
	updated, err := svc.UpdateBooking(context.Background(), records[1].ID, models.BookingPatch{ClientName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.ClientName)
	assert.Zero(t, updated.NumberOfDays)
}

func TestReadsUseServiceLocation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.DecodeUTC = true
	newYork := time.FixedZone("EST", -5*3600)
	svc := bookings.NewService(store, newYork, nil, bookings.WithClock(func() time.Time { return fixedNow }))

	in := stay(time.Date(2024, 1, 28, 0, 0, 0, 0, newYork), time.Date(2024, 2, 3, 0, 0, 0, 0, newYork))
	records, err := svc.CreateBooking(ctx, in)
	require.NoError(t, err)
	require.Len(t, records, 2)

	raw, err := store.GetBooking(ctx, records[0].ID)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, raw.CheckIn.Location())

	total, err := svc.BookingTotal(ctx, records[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 4, total.Days)
	assert.Equal(t, 400.0, total.Total)

	second, err := svc.BookingTotal(ctx, records[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, second.Total)

	got, err := svc.GetBooking(ctx, records[0].ID)
	require.NoError(t, err)
	assert.Equal(t, newYork, got.CheckIn.Location())
	assert.Equal(t, 28, got.CheckIn.Day())

	listed, err := svc.ListBookings(ctx, repository.Filter{Year: 2024, Month: 1})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 31, listed[0].CheckOut.Day())

	e, err := svc.CreateExpense(ctx, models.Expense{Description: "Water", Amount: 20, Date: time.Date(2024, 1, 31, 22, 30, 0, 0, newYork)})
	require.NoError(t, err)
	assert.Equal(t, 1, e.Month)
	stored, err := svc.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, time.January, stored.Date.Month())
	assert.Equal(t, 31, stored.Date.Day())
}

func TestCreateBookingValidation(t *testing.T) {
	svc := newService(memory.New())

	cases := map[string]struct {
		booking models.Booking
		field   string
	}{
		"missing apartment": {booking: func() models.Booking { b := stay(day(2024, 3, 1), day(2024, 3, 2)); b.ApartmentID = ""; return b }(), field: "apartmentId"},
		"checkout before":   {booking: stay(day(2024, 3, 5), day(2024, 3, 2)), field: "checkOut"},
		"same day":          {booking: stay(day(2024, 3, 5), day(2024, 3, 5).Add(3*time.Hour)), field: "checkOut"},
		"negative rate":     {booking: func() models.Booking { b := stay(day(2024, 3, 1), day(2024, 3, 2)); b.Amount = -1; return b }(), field: "amount"},
		"unknown source":    {booking: func() models.Booking { b := stay(day(2024, 3, 1), day(2024, 3, 2)); b.BookingSource = "fax"; return b }(), field: "bookingSource"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateBooking(context.Background(), tc.booking)
			var ve *models.ErrValidation
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestCreateBookingRejectsLongSpan(t *testing.T) {
	svc := newService(memory.New())

	_, err := svc.CreateBooking(context.Background(), stay(day(2024, 1, 30), day(2024, 3, 2)))
	var span *models.ErrUnsupportedSpan
	require.ErrorAs(t, err, &span)
	assert.Equal(t, 3, span.Months)
}

func TestPreviewBookingStoresNothing(t *testing.T) {
	store := memory.New()
	svc := newService(store)

	records, err := svc.PreviewBooking(stay(day(2024, 1, 28), day(2024, 2, 3)))
	require.NoError(t, err)
	assert.Len(t, records, 2)

	all, err := store.ListBookings(context.Background(), repository.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateBooking(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newService(store)

	records, err := svc.CreateBooking(ctx, stay(day(2024, 3, 10), day(2024, 3, 15)))
	require.NoError(t, err)
	id := records[0].ID

	t.Run("moves within the month", func(t *testing.T) {
		out := day(2024, 3, 20)
		updated, err := svc.UpdateBooking(ctx, id, models.BookingPatch{CheckOut: &out})
		require.NoError(t, err)
		assert.Equal(t, 10, updated.NumberOfDays)
		assert.Equal(t, 3, updated.Month)
	})

	t.Run("moves to another month", func(t *testing.T) {
		in, out := day(2024, 5, 1), day(2024, 5, 4)
		updated, err := svc.UpdateBooking(ctx, id, models.BookingPatch{CheckIn: &in, CheckOut: &out})
		require.NoError(t, err)
		assert.Equal(t, 5, updated.Month)
		assert.Equal(t, 3, updated.NumberOfDays)
	})

	t.Run("rejects a month crossing", func(t *testing.T) {
		out := day(2024, 6, 3)
		_, err := svc.UpdateBooking(ctx, id, models.BookingPatch{CheckOut: &out})
		var ve *models.ErrValidation
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "checkOut", ve.Field)
	})

	t.Run("cancels", func(t *testing.T) {
		cancelled := models.StatusCancelled
		updated, err := svc.UpdateBooking(ctx, id, models.BookingPatch{Status: &cancelled})
		require.NoError(t, err)
		assert.True(t, updated.Cancelled())

		stored, err := store.GetBooking(ctx, id)
		require.NoError(t, err)
		assert.True(t, stored.Cancelled())
	})

	t.Run("unknown id", func(t *testing.T) {
		name := "x"
		_, err := svc.UpdateBooking(ctx, "missing", models.BookingPatch{ClientName: &name})
		var nf *models.ErrNotFound
		assert.ErrorAs(t, err, &nf)
	})
}

func TestUpdateBookingKeepsPartialDates(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New())

	records, err := svc.CreateBooking(ctx, stay(day(2024, 1, 28), day(2024, 2, 3)))
	require.NoError(t, err)

	in := day(2024, 1, 27)
	_, err = svc.UpdateBooking(ctx, records[0].ID, models.BookingPatch{CheckIn: &in})
	var ve *models.ErrValidation
	require.ErrorAs(t, err, &ve)

	rate := 120.0
	updated, err := svc.UpdateBooking(ctx, records[0].ID, models.BookingPatch{Amount: &rate})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.NumberOfDays)
	assert.Equal(t, 120.0, updated.Amount)
}

func TestDeleteBookingLeavesSibling(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newService(store)

	records, err := svc.CreateBooking(ctx, stay(day(2024, 1, 28), day(2024, 2, 3)))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBooking(ctx, records[0].ID))
	_, err = svc.GetBooking(ctx, records[1].ID)
	assert.NoError(t, err)

	var nf *models.ErrNotFound
	assert.ErrorAs(t, svc.DeleteBooking(ctx, records[0].ID), &nf)
}

func TestBookingTotal(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New())

	records, err := svc.CreateBooking(ctx, stay(day(2024, 1, 28), day(2024, 2, 3)))
	require.NoError(t, err)

	first, err := svc.BookingTotal(ctx, records[0].ID)
	require.NoError(t, err)
	second, err := svc.BookingTotal(ctx, records[1].ID)
	require.NoError(t, err)

	assert.Equal(t, 400.0, first.Total)
	assert.Equal(t, 200.0, second.Total)
	assert.Equal(t, 6, first.Days+second.Days)
}

func TestAvailability(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New())

	_, err := svc.CreateBooking(ctx, stay(day(2024, 3, 10), day(2024, 3, 15)))
	require.NoError(t, err)

	busy, err := svc.Availability(ctx, "apt-1", day(2024, 3, 14), day(2024, 3, 16))
	require.NoError(t, err)
	assert.Len(t, busy, 1)

	free, err := svc.Availability(ctx, "apt-1", day(2024, 3, 15), day(2024, 3, 18))
	require.NoError(t, err)
	assert.Empty(t, free)

	_, err = svc.Availability(ctx, "apt-1", day(2024, 3, 15), day(2024, 3, 15))
	var ve *models.ErrValidation
	assert.ErrorAs(t, err, &ve)
}

func TestReceipts(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	uploader := &fakeUploader{url: "https://cdn/receipt.jpg"}
	svc := newService(store, bookings.WithUploader(uploader))

	records, err := svc.CreateBooking(ctx, stay(day(2024, 3, 10), day(2024, 3, 15)))
	require.NoError(t, err)
	id := records[0].ID

	added, err := svc.AddReceipt(ctx, id, models.Receipt{ImageURL: "https://cdn/a.jpg", Amount: 250})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, fixedNow, added.UploadedAt)

	uploaded, err := svc.UploadReceipt(ctx, id, "transfer.jpg", strings.NewReader("jpeg"), 250, "wave")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/receipt.jpg", uploaded.ImageURL)
	assert.Equal(t, "transfer.jpg", uploader.filename)
	assert.Equal(t, "jpeg", uploader.body)

	b, err := svc.GetBooking(ctx, id)
	require.NoError(t, err)
	assert.Len(t, b.Receipts, 2)

	require.NoError(t, svc.RemoveReceipt(ctx, id, added.ID))
	var nf *models.ErrNotFound
	assert.ErrorAs(t, svc.RemoveReceipt(ctx, id, added.ID), &nf)

	_, err = svc.AddReceipt(ctx, id, models.Receipt{})
	var ve *models.ErrValidation
	assert.ErrorAs(t, err, &ve)
}

func TestUploadReceiptErrors(t *testing.T) {
	ctx := context.Background()

	_, err := newService(memory.New()).UploadReceipt(ctx, "b", "x.jpg", strings.NewReader(""), 0, "")
	assert.ErrorIs(t, err, bookings.ErrUploadsDisabled)

	uploader := &fakeUploader{url: "u"}
	svc := newService(memory.New(), bookings.WithUploader(uploader))
	_, err = svc.UploadReceipt(ctx, "missing", "x.jpg", strings.NewReader(""), 0, "")
	var nf *models.ErrNotFound
	assert.ErrorAs(t, err, &nf)
	assert.Empty(t, uploader.filename)
}

func TestApartments(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New())

	a, err := svc.CreateApartment(ctx, models.Apartment{Name: "Kipé studio", PricePerNight: 350})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.NotNil(t, a.Amenities)

	price := 400.0
	updated, err := svc.UpdateApartment(ctx, a.ID, models.ApartmentPatch{PricePerNight: &price})
	require.NoError(t, err)
	assert.Equal(t, 400.0, updated.PricePerNight)
	assert.Equal(t, "Kipé studio", updated.Name)

	empty := ""
	_, err = svc.UpdateApartment(ctx, a.ID, models.ApartmentPatch{Name: &empty})
	var ve *models.ErrValidation
	assert.ErrorAs(t, err, &ve)

	list, err := svc.ListApartments(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteApartment(ctx, a.ID))
	var nf *models.ErrNotFound
	_, err = svc.GetApartment(ctx, a.ID)
	assert.ErrorAs(t, err, &nf)
}

func TestExpensesAreBucketedByDate(t *testing.T) {
	ctx := context.Background()
	conakry := time.FixedZone("GMT", 0)
	tokyo := time.FixedZone("JST", 9*3600)
	svc := bookings.NewService(memory.New(), conakry, nil)

	// 2024-04-01 01:00 in Tokyo is still March 31 in the service location.
	e, err := svc.CreateExpense(ctx, models.Expense{Description: "Electricity", Amount: 80, Date: time.Date(2024, 4, 1, 1, 0, 0, 0, tokyo)})
	require.NoError(t, err)
	assert.Equal(t, 2024, e.Year)
	assert.Equal(t, 3, e.Month)

	moved := time.Date(2024, 5, 10, 0, 0, 0, 0, conakry)
	updated, err := svc.UpdateExpense(ctx, e.ID, models.ExpensePatch{Date: &moved})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Month)

	may, err := svc.ListExpenses(ctx, repository.Filter{Year: 2024, Month: 5})
	require.NoError(t, err)
	assert.Len(t, may, 1)

	_, err = svc.CreateExpense(ctx, models.Expense{Amount: 1, Date: moved})
	var ve *models.ErrValidation
	assert.ErrorAs(t, err, &ve)

	require.NoError(t, svc.DeleteExpense(ctx, e.ID))
	var nf *models.ErrNotFound
	assert.ErrorAs(t, svc.DeleteExpense(ctx, e.ID), &nf)
}
