package bookings

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/mamadbah2/rentledger/internal/domain/models"
)

// AddReceipt attaches r to a booking record and returns the stored receipt.
func (s *Service) AddReceipt(ctx context.Context, bookingID string, r models.Receipt) (models.Receipt, error) {
	if err := r.Validate(); err != nil {
		return models.Receipt{}, err
	}
	if r.ID == "" {
		r.ID = s.newID()
	}
	r.BookingID = bookingID
	if r.UploadedAt.IsZero() {
		r.UploadedAt = s.now()
	}
	if err := s.store.PushReceipt(ctx, bookingID, r); err != nil {
		return models.Receipt{}, fmt.Errorf("attach receipt: %w", err)
	}
	return r, nil
}

// RemoveReceipt detaches a receipt from a booking record.
func (s *Service) RemoveReceipt(ctx context.Context, bookingID, receiptID string) error {
	if err := s.store.PullReceipt(ctx, bookingID, receiptID); err != nil {
		return fmt.Errorf("remove receipt: %w", err)
	}
	return nil
}

// UploadReceipt stores the image through the configured uploader and attaches
// the resulting URL as a new receipt.
func (s *Service) UploadReceipt(ctx context.Context, bookingID, filename string, image io.Reader, amount float64, note string) (models.Receipt, error) {
	if s.uploader == nil {
		return models.Receipt{}, ErrUploadsDisabled
	}
	ctx, span := tracer.Start(ctx, "Bookings.UploadReceipt")
	defer span.End()

	if _, err := s.store.GetBooking(ctx, bookingID); err != nil {
		return models.Receipt{}, fail(span, fmt.Errorf("get booking: %w", err))
	}

	url, err := s.uploader.Upload(ctx, filename, image)
	if err != nil {
		s.logger.Error("receipt upload failed", zap.String("booking_id", bookingID), zap.Error(err))
		return models.Receipt{}, fail(span, fmt.Errorf("upload receipt: %w", err))
	}

	r, err := s.AddReceipt(ctx, bookingID, models.Receipt{ImageURL: url, Amount: amount, Note: note})
	if err != nil {
		return models.Receipt{}, fail(span, err)
	}
	return r, nil
}
