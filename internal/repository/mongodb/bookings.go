package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/rentledger/internal/domain/models"
	"github.com/mamadbah2/rentledger/internal/repository"
)

// ListBookings returns the bookings matching f ordered by check-in.
func (r *MongoDBRepository) ListBookings(ctx context.Context, f repository.Filter) ([]models.Booking, error) {
	return guard(r, "list bookings", func() ([]models.Booking, error) {
		opts := options.Find().SetSort(bson.D{{Key: "check_in", Value: 1}})
		cursor, err := r.collection(bookingsCollection).Find(ctx, bucketQuery(f), opts)
		if err != nil {
			return nil, fmt.Errorf("failed to query bookings: %w", err)
		}
		out := []models.Booking{}
		if err := cursor.All(ctx, &out); err != nil {
			return nil, fmt.Errorf("failed to decode bookings: %w", err)
		}
		return out, nil
	})
}

// GetBooking loads a single booking.
func (r *MongoDBRepository) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	return guard(r, "get booking", func() (models.Booking, error) {
		var b models.Booking
		err := r.collection(bookingsCollection).FindOne(ctx, byID(id)).Decode(&b)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return b, &models.ErrNotFound{Resource: "booking", ID: id}
		}
		if err != nil {
			return b, fmt.Errorf("failed to load booking %s: %w", id, err)
		}
		return b, nil
	})
}

// CreateBooking inserts b and returns its generated id.
func (r *MongoDBRepository) CreateBooking(ctx context.Context, b models.Booking) (string, error) {
	return guard(r, "create booking", func() (string, error) {
		now := r.now()
		b.ID = r.newID()
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
		// Always an array, never null, so $push can append to it.
		receipts := make([]models.Receipt, len(b.Receipts))
		for i, rc := range b.Receipts {
			if rc.ID == "" {
				rc.ID = r.newID()
			}
			rc.BookingID = b.ID
			receipts[i] = rc
		}
		b.Receipts = receipts
		if _, err := r.collection(bookingsCollection).InsertOne(ctx, b); err != nil {
			return "", fmt.Errorf("failed to insert booking: %w", err)
		}
		return b.ID, nil
	})
}

// UpdateBooking replaces the stored booking with b, keeping its creation time.
func (r *MongoDBRepository) UpdateBooking(ctx context.Context, b models.Booking) error {
	return guardErr(r, "update booking", func() error {
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = r.now()
		}
		if b.Receipts == nil {
			b.Receipts = []models.Receipt{}
		}
		res, err := r.collection(bookingsCollection).ReplaceOne(ctx, byID(b.ID), b)
		if err != nil {
			return fmt.Errorf("failed to update booking %s: %w", b.ID, err)
		}
		if res.MatchedCount == 0 {
			return &models.ErrNotFound{Resource: "booking", ID: b.ID}
		}
		return nil
	})
}

// DeleteBooking removes a booking together with its receipts.
func (r *MongoDBRepository) DeleteBooking(ctx context.Context, id string) error {
	return guardErr(r, "delete booking", func() error {
		res, err := r.collection(bookingsCollection).DeleteOne(ctx, byID(id))
		if err != nil {
			return fmt.Errorf("failed to delete booking %s: %w", id, err)
		}
		if res.DeletedCount == 0 {
			return &models.ErrNotFound{Resource: "booking", ID: id}
		}
		return nil
	})
}

// PushReceipt appends a receipt to a booking.
func (r *MongoDBRepository) PushReceipt(ctx context.Context, bookingID string, rc models.Receipt) error {
	return guardErr(r, "push receipt", func() error {
		if rc.ID == "" {
			rc.ID = r.newID()
		}
		rc.BookingID = bookingID
		if rc.UploadedAt.IsZero() {
			rc.UploadedAt = r.now()
		}
		update := bson.M{
			"$push": bson.M{"receipts": rc},
			"$set":  bson.M{"updated_at": r.now()},
		}
		res, err := r.collection(bookingsCollection).UpdateOne(ctx, byID(bookingID), update)
		if err != nil {
			return fmt.Errorf("failed to attach receipt to booking %s: %w", bookingID, err)
		}
		if res.MatchedCount == 0 {
			return &models.ErrNotFound{Resource: "booking", ID: bookingID}
		}
		return nil
	})
}

// PullReceipt removes a receipt from a booking.
func (r *MongoDBRepository) PullReceipt(ctx context.Context, bookingID, receiptID string) error {
	return guardErr(r, "pull receipt", func() error {
		update := bson.M{
			"$pull": bson.M{"receipts": bson.M{"id": receiptID}},
			"$set":  bson.M{"updated_at": r.now()},
		}
		filter := bson.M{"_id": bookingID, "receipts.id": receiptID}
		res, err := r.collection(bookingsCollection).UpdateOne(ctx, filter, update)
		if err != nil {
			return fmt.Errorf("failed to remove receipt %s: %w", receiptID, err)
		}
		if res.MatchedCount == 0 {
			return &models.ErrNotFound{Resource: "receipt", ID: receiptID}
		}
		return nil
	})
}
