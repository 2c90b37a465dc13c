package bookings

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mamadbah2/rentledger/internal/domain/accounting"
	"github.com/mamadbah2/rentledger/internal/domain/models"
	"github.com/mamadbah2/rentledger/internal/repository"
)

// Total is the billing view of a booking record.
type Total struct {
	BookingID string  `json:"bookingId"`
	Days      int     `json:"days"`
	DailyRate float64 `json:"dailyRate"`
	Total     float64 `json:"total"`
}

// ListBookings returns the bookings matching f.
func (s *Service) ListBookings(ctx context.Context, f repository.Filter) ([]models.Booking, error) {
	out, err := s.store.ListBookings(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	for i := range out {
		out[i] = out[i].In(s.loc)
	}
	return out, nil
}

// GetBooking returns one booking record.
func (s *Service) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return models.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b.In(s.loc), nil
}

// BookingTotal returns the billable days and amount of a stored record.
func (s *Service) BookingTotal(ctx context.Context, id string) (Total, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return Total{}, err
	}
	return Total{
		BookingID: b.ID,
		Days:      accounting.BookingDays(b),
		DailyRate: b.Amount,
		Total:     accounting.ComputeBookingTotal(b),
	}, nil
}

// PreviewBooking applies validation and the month-split policy without storing anything.
func (s *Service) PreviewBooking(b models.Booking) ([]models.Booking, error) {
	return accounting.SplitIfCrossesMonth(b.In(s.loc))
}

// CreateBooking stores b, split into two partial records when the stay
// crosses a month boundary. The stored records are returned in write order.
//
// The halves are written one after the other. When the second write fails the
// first half is deleted again and *models.ErrSplitWrite is returned.
func (s *Service) CreateBooking(ctx context.Context, b models.Booking) ([]models.Booking, error) {
	ctx, span := tracer.Start(ctx, "Bookings.Create")
	defer span.End()

	b = b.In(s.loc)
	now := s.now()
	b.CreatedAt, b.UpdatedAt = now, now
	b.Receipts = append([]models.Receipt(nil), b.Receipts...)
	for i := range b.Receipts {
		if b.Receipts[i].UploadedAt.IsZero() {
			b.Receipts[i].UploadedAt = now
		}
	}

	draft, err := accounting.NewDraft(b)
	if err != nil {
		return nil, fail(span, err)
	}
	s.warnOnConflicts(ctx, b)

	switch d := draft.(type) {
	case accounting.SingleMonth:
		span.SetAttributes(attribute.Bool("booking.split", false))
		s.assignReceiptIDs(map[string]bool{}, &d.Booking)
		id, err := s.store.CreateBooking(ctx, d.Booking)
		if err != nil {
			return nil, fail(span, fmt.Errorf("store booking: %w", err))
		}
		s.count("whole")
		return []models.Booking{withID(d.Booking, id)}, nil
	case accounting.CrossMonth:
		span.SetAttributes(attribute.Bool("booking.split", true))
		seen := map[string]bool{}
		s.assignReceiptIDs(seen, &d.First)
		s.assignReceiptIDs(seen, &d.Second)
		records, err := s.createSplit(ctx, d)
		if err != nil {
			return nil, fail(span, err)
		}
		return records, nil
	default:
		return nil, fail(span, fmt.Errorf("unexpected draft %T", draft))
	}
}

func (s *Service) createSplit(ctx context.Context, d accounting.CrossMonth) ([]models.Booking, error) {
	firstID, err := s.store.CreateBooking(ctx, d.First)
	if err != nil {
		return nil, fmt.Errorf("store first half: %w", err)
	}
	s.count("first")

	secondID, err := s.store.CreateBooking(ctx, d.Second)
	if err != nil {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
		defer cancel()

		cerr := s.store.DeleteBooking(cctx, firstID)
		if cerr != nil {
			s.rollback("orphaned")
			s.logger.Error("split booking left half-written",
				zap.String("first_id", firstID),
				zap.NamedError("cause", err),
				zap.NamedError("rollback", cerr))
		} else {
			s.rollback("rolled_back")
			s.logger.Warn("split booking rolled back", zap.String("first_id", firstID), zap.Error(err))
		}
		return nil, &models.ErrSplitWrite{FirstID: firstID, Cause: err, Compensation: cerr}
	}
	s.count("second")

	return []models.Booking{withID(d.First, firstID), withID(d.Second, secondID)}, nil
}

// UpdateBooking applies patch to a stored record.
//
// The stay of a whole record may move as long as it stays within one month;
// a change that would need a split is rejected. The dates of a partial record
// are fixed because its sibling is not updated with it.
func (s *Service) UpdateBooking(ctx context.Context, id string, patch models.BookingPatch) (models.Booking, error) {
	ctx, span := tracer.Start(ctx, "Bookings.Update")
	defer span.End()

	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return models.Booking{}, fail(span, err)
	}

	if patch.TouchesDates() && current.IsPartial {
		return models.Booking{}, fail(span, &models.ErrValidation{
			Field:   "checkIn",
			Message: "dates of a split booking half cannot be edited; delete both halves and create the stay again",
		})
	}

	updated := patch.Apply(current).In(s.loc)
	if err := updated.Validate(); err != nil {
		return models.Booking{}, fail(span, err)
	}

	if patch.TouchesDates() {
		draft, err := accounting.NewDraft(updated)
		if err != nil {
			return models.Booking{}, fail(span, err)
		}
		single, ok := draft.(accounting.SingleMonth)
		if !ok {
			return models.Booking{}, fail(span, &models.ErrValidation{
				Field:   "checkOut",
				Message: "the new stay crosses a month boundary; delete the booking and create it again",
			})
		}
		updated = single.Booking
		s.warnOnConflicts(ctx, updated)
	}
	updated.NumberOfDays = accounting.BookingDays(updated)
	updated.UpdatedAt = s.now()

	if err := s.store.UpdateBooking(ctx, updated); err != nil {
		return models.Booking{}, fail(span, fmt.Errorf("store booking: %w", err))
	}
	return updated, nil
}

// DeleteBooking removes a record and its receipts. The sibling half of a split
// stay is left untouched.
func (s *Service) DeleteBooking(ctx context.Context, id string) error {
	if err := s.store.DeleteBooking(ctx, id); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return nil
}

// Availability lists the active bookings of an apartment sharing a night with [from, to).
func (s *Service) Availability(ctx context.Context, apartmentID string, from, to time.Time) ([]models.Booking, error) {
	candidate := models.Booking{ApartmentID: apartmentID, CheckIn: from, CheckOut: to, Status: models.StatusActive}.In(s.loc)
	if accounting.DaysBetween(candidate.CheckIn, candidate.CheckOut) < 1 {
		return nil, &models.ErrValidation{Field: "to", Message: "must be at least one day after from"}
	}

	existing, err := s.ListBookings(ctx, repository.Filter{ApartmentID: apartmentID})
	if err != nil {
		return nil, err
	}
	conflicts := accounting.Conflicts(existing, candidate)
	if conflicts == nil {
		conflicts = []models.Booking{}
	}
	return conflicts, nil
}

// warnOnConflicts logs double bookings. They are not rejected: the occupancy
// figures clamp and the owner fixes the data by hand.
func (s *Service) warnOnConflicts(ctx context.Context, b models.Booking) {
	existing, err := s.ListBookings(ctx, repository.Filter{ApartmentID: b.ApartmentID})
	if err != nil {
		s.logger.Debug("skip conflict check", zap.Error(err))
		return
	}
	for _, c := range accounting.Conflicts(existing, b) {
		s.logger.Warn("booking overlaps an existing stay",
			zap.String("apartment_id", b.ApartmentID),
			zap.String("existing_id", c.ID),
			zap.Time("check_in", b.CheckIn),
			zap.Time("check_out", b.CheckOut))
	}
}

// assignReceiptIDs gives every receipt of b an id not used by another record
// of the same stay. The halves of a split stay get distinct ids.
func (s *Service) assignReceiptIDs(seen map[string]bool, b *models.Booking) {
	for i := range b.Receipts {
		if b.Receipts[i].ID == "" || seen[b.Receipts[i].ID] {
			b.Receipts[i].ID = s.newID()
		}
		seen[b.Receipts[i].ID] = true
	}
}

func withID(b models.Booking, id string) models.Booking {
	b.ID = id
	for i := range b.Receipts {
		b.Receipts[i].BookingID = id
	}
	return b
}
