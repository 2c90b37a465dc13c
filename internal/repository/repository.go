// Package repository declares the storage ports used by the services. The
// mongodb package provides the production implementation.
package repository

import (
	"context"

	"github.com/mamadbah2/rentledger/internal/domain/models"
)

// Filter narrows list queries to a year/month bucket and optionally an
// apartment. Zero values mean "any".
type Filter struct {
	Year        int
	Month       int
	ApartmentID string
}

// ApartmentStore persists apartments.
type ApartmentStore interface {
	ListApartments(ctx context.Context) ([]models.Apartment, error)
	GetApartment(ctx context.Context, id string) (models.Apartment, error)
	CreateApartment(ctx context.Context, a models.Apartment) (string, error)
	UpdateApartment(ctx context.Context, a models.Apartment) error
	DeleteApartment(ctx context.Context, id string) error
}

// BookingStore persists bookings and their embedded receipts.
type BookingStore interface {
	ListBookings(ctx context.Context, f Filter) ([]models.Booking, error)
	GetBooking(ctx context.Context, id string) (models.Booking, error)
	CreateBooking(ctx context.Context, b models.Booking) (string, error)
	UpdateBooking(ctx context.Context, b models.Booking) error
	DeleteBooking(ctx context.Context, id string) error
	PushReceipt(ctx context.Context, bookingID string, r models.Receipt) error
	PullReceipt(ctx context.Context, bookingID, receiptID string) error
}

// ExpenseStore persists expenses.
type ExpenseStore interface {
	ListExpenses(ctx context.Context, f Filter) ([]models.Expense, error)
	GetExpense(ctx context.Context, id string) (models.Expense, error)
	CreateExpense(ctx context.Context, e models.Expense) (string, error)
	UpdateExpense(ctx context.Context, e models.Expense) error
	DeleteExpense(ctx context.Context, id string) error
}

// SnapshotStore persists month-close statistics snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s models.StatsSnapshot) error
	ListSnapshots(ctx context.Context, year int) ([]models.StatsSnapshot, error)
}

// Store bundles every port; the MongoDB repository implements it.
type Store interface {
	ApartmentStore
	BookingStore
	ExpenseStore
	SnapshotStore
}
