// Package memory provides an in-memory implementation of repository.Store for
// tests. It orders results the way the MongoDB repository does, can hand times
// back as the MongoDB driver decodes them and lets tests inject failures per
// operation. Production wiring always uses the mongodb package.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/rentledger/internal/domain/models"
	"github.com/mamadbah2/rentledger/internal/repository"
)

// Store implements repository.Store with maps guarded by a mutex.
type Store struct {
	mu         sync.RWMutex
	apartments map[string]models.Apartment
	bookings   map[string]models.Booking
	expenses   map[string]models.Expense
	snapshots  map[string]models.StatsSnapshot
	seq        int
	clock      func() time.Time

	// Fail, when set, is called with the operation name before each call
	// ("create booking", "list expenses", ...). A non-nil result is returned
	// as the call's error.
	Fail func(op string) error

	// DecodeUTC returns booking and expense times as UTC instants truncated
	// to milliseconds, the way BSON datetimes are decoded.
	DecodeUTC bool
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock returns an empty store with an injected clock.
func NewWithClock(clock func() time.Time) *Store {
	return &Store{
		apartments: make(map[string]models.Apartment),
		bookings:   make(map[string]models.Booking),
		expenses:   make(map[string]models.Expense),
		snapshots:  make(map[string]models.StatsSnapshot),
		clock:      clock,
	}
}

func (s *Store) check(op string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op)
}

func (s *Store) nextID(kind string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", kind, s.seq)
}

func (s *Store) stamp(created, updated *time.Time) {
	now := s.clock()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = now
	}
}

func matches(f repository.Filter, year, month int, apartmentID string) bool {
	if f.Year != 0 && year != f.Year {
		return false
	}
	if f.Month != 0 && month != f.Month {
		return false
	}
	return f.ApartmentID == "" || f.ApartmentID == apartmentID
}

func (s *Store) ListApartments(ctx context.Context) ([]models.Apartment, error) {
	if err := s.check("list apartments"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Apartment, 0, len(s.apartments))
	for _, a := range s.apartments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetApartment(ctx context.Context, id string) (models.Apartment, error) {
	if err := s.check("get apartment"); err != nil {
		return models.Apartment{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.apartments[id]
	if !ok {
		return models.Apartment{}, &models.ErrNotFound{Resource: "apartment", ID: id}
	}
	return a, nil
}

func (s *Store) CreateApartment(ctx context.Context, a models.Apartment) (string, error) {
	if err := s.check("create apartment"); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.nextID("apartment")
	s.stamp(&a.CreatedAt, &a.UpdatedAt)
	s.apartments[a.ID] = a
	return a.ID, nil
}

func (s *Store) UpdateApartment(ctx context.Context, a models.Apartment) error {
	if err := s.check("update apartment"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apartments[a.ID]; !ok {
		return &models.ErrNotFound{Resource: "apartment", ID: a.ID}
	}
	s.apartments[a.ID] = a
	return nil
}

func (s *Store) DeleteApartment(ctx context.Context, id string) error {
	if err := s.check("delete apartment"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apartments[id]; !ok {
		return &models.ErrNotFound{Resource: "apartment", ID: id}
	}
	delete(s.apartments, id)
	return nil
}

func (s *Store) ListBookings(ctx context.Context, f repository.Filter) ([]models.Booking, error) {
	if err := s.check("list bookings"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Booking{}
	for _, b := range s.bookings {
		if matches(f, b.Year, b.Month, b.ApartmentID) {
			out = append(out, s.decodeBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckIn.Equal(out[j].CheckIn) {
			return out[i].CheckIn.Before(out[j].CheckIn)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	if err := s.check("get booking"); err != nil {
		return models.Booking{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return models.Booking{}, &models.ErrNotFound{Resource: "booking", ID: id}
	}
	return s.decodeBooking(b), nil
}

func (s *Store) CreateBooking(ctx context.Context, b models.Booking) (string, error) {
	if err := s.check("create booking"); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b = cloneBooking(b)
	b.ID = s.nextID("booking")
	s.stamp(&b.CreatedAt, &b.UpdatedAt)
	for i := range b.Receipts {
		if b.Receipts[i].ID == "" {
			b.Receipts[i].ID = s.nextID("receipt")
		}
		b.Receipts[i].BookingID = b.ID
	}
	s.bookings[b.ID] = b
	return b.ID, nil
}

func (s *Store) UpdateBooking(ctx context.Context, b models.Booking) error {
	if err := s.check("update booking"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[b.ID]; !ok {
		return &models.ErrNotFound{Resource: "booking", ID: b.ID}
	}
	s.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	if err := s.check("delete booking"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[id]; !ok {
		return &models.ErrNotFound{Resource: "booking", ID: id}
	}
	delete(s.bookings, id)
	return nil
}

func (s *Store) PushReceipt(ctx context.Context, bookingID string, r models.Receipt) error {
	if err := s.check("push receipt"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return &models.ErrNotFound{Resource: "booking", ID: bookingID}
	}
	if r.ID == "" {
		r.ID = s.nextID("receipt")
	}
	r.BookingID = bookingID
	b.Receipts = append(b.Receipts, r)
	b.UpdatedAt = s.clock()
	s.bookings[bookingID] = b
	return nil
}

func (s *Store) PullReceipt(ctx context.Context, bookingID, receiptID string) error {
	if err := s.check("pull receipt"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return &models.ErrNotFound{Resource: "receipt", ID: receiptID}
	}
	kept := make([]models.Receipt, 0, len(b.Receipts))
	for _, r := range b.Receipts {
		if r.ID != receiptID {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(b.Receipts) {
		return &models.ErrNotFound{Resource: "receipt", ID: receiptID}
	}
	b.Receipts = kept
	b.UpdatedAt = s.clock()
	s.bookings[bookingID] = b
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, f repository.Filter) ([]models.Expense, error) {
	if err := s.check("list expenses"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f.ApartmentID = ""
	out := []models.Expense{}
	for _, e := range s.expenses {
		if matches(f, e.Year, e.Month, "") {
			out = append(out, s.decodeExpense(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (models.Expense, error) {
	if err := s.check("get expense"); err != nil {
		return models.Expense{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[id]
	if !ok {
		return models.Expense{}, &models.ErrNotFound{Resource: "expense", ID: id}
	}
	return s.decodeExpense(e), nil
}

func (s *Store) CreateExpense(ctx context.Context, e models.Expense) (string, error) {
	if err := s.check("create expense"); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.nextID("expense")
	s.stamp(&e.CreatedAt, &e.UpdatedAt)
	s.expenses[e.ID] = e
	return e.ID, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e models.Expense) error {
	if err := s.check("update expense"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[e.ID]; !ok {
		return &models.ErrNotFound{Resource: "expense", ID: e.ID}
	}
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	if err := s.check("delete expense"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[id]; !ok {
		return &models.ErrNotFound{Resource: "expense", ID: id}
	}
	delete(s.expenses, id)
	return nil
}

// SaveSnapshot replaces the snapshot with the same id.
func (s *Store) SaveSnapshot(ctx context.Context, snap models.StatsSnapshot) error {
	if err := s.check("save snapshot"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.ID == "" {
		snap.ID = models.SnapshotID(snap.Stats.Year, snap.Stats.Month)
	}
	s.snapshots[snap.ID] = snap
	return nil
}

func (s *Store) ListSnapshots(ctx context.Context, year int) ([]models.StatsSnapshot, error) {
	if err := s.check("list snapshots"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.StatsSnapshot{}
	for _, snap := range s.snapshots {
		if snap.Stats.Year == year {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stats.Month < out[j].Stats.Month })
	return out, nil
}

func cloneBooking(b models.Booking) models.Booking {
	receipts := make([]models.Receipt, len(b.Receipts))
	copy(receipts, b.Receipts)
	b.Receipts = receipts
	return b
}

func (s *Store) decodeBooking(b models.Booking) models.Booking {
	b = cloneBooking(b)
	if s.DecodeUTC {
		b.CheckIn = bsonTime(b.CheckIn)
		b.CheckOut = bsonTime(b.CheckOut)
	}
	return b
}

func (s *Store) decodeExpense(e models.Expense) models.Expense {
	if s.DecodeUTC {
		e.Date = bsonTime(e.Date)
	}
	return e
}

func bsonTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
