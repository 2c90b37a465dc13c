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

// ListExpenses returns the expenses matching f ordered by date.
func (r *MongoDBRepository) ListExpenses(ctx context.Context, f repository.Filter) ([]models.Expense, error) {
	return guard(r, "list expenses", func() ([]models.Expense, error) {
		f.ApartmentID = ""
		opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
		cursor, err := r.collection(expensesCollection).Find(ctx, bucketQuery(f), opts)
		if err != nil {
			return nil, fmt.Errorf("failed to query expenses: %w", err)
		}
		out := []models.Expense{}
		if err := cursor.All(ctx, &out); err != nil {
			return nil, fmt.Errorf("failed to decode expenses: %w", err)
		}
		return out, nil
	})
}

// GetExpense loads a single expense.
func (r *MongoDBRepository) GetExpense(ctx context.Context, id string) (models.Expense, error) {
	return guard(r, "get expense", func() (models.Expense, error) {
		var e models.Expense
		err := r.collection(expensesCollection).FindOne(ctx, byID(id)).Decode(&e)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return e, &models.ErrNotFound{Resource: "expense", ID: id}
		}
		if err != nil {
			return e, fmt.Errorf("failed to load expense %s: %w", id, err)
		}
		return e, nil
	})
}

// CreateExpense inserts e and returns its generated id.
func (r *MongoDBRepository) CreateExpense(ctx context.Context, e models.Expense) (string, error) {
	return guard(r, "create expense", func() (string, error) {
		now := r.now()
		e.ID = r.newID()
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = now
		}
		if _, err := r.collection(expensesCollection).InsertOne(ctx, e); err != nil {
			return "", fmt.Errorf("failed to insert expense: %w", err)
		}
		return e.ID, nil
	})
}

// UpdateExpense replaces the stored expense with e.
func (r *MongoDBRepository) UpdateExpense(ctx context.Context, e models.Expense) error {
	return guardErr(r, "update expense", func() error {
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = r.now()
		}
		res, err := r.collection(expensesCollection).ReplaceOne(ctx, byID(e.ID), e)
		if err != nil {
			return fmt.Errorf("failed to update expense %s: %w", e.ID, err)
		}
		if res.MatchedCount == 0 {
			return &models.ErrNotFound{Resource: "expense", ID: e.ID}
		}
		return nil
	})
}

// DeleteExpense removes an expense.
func (r *MongoDBRepository) DeleteExpense(ctx context.Context, id string) error {
	return guardErr(r, "delete expense", func() error {
		res, err := r.collection(expensesCollection).DeleteOne(ctx, byID(id))
		if err != nil {
			return fmt.Errorf("failed to delete expense %s: %w", id, err)
		}
		if res.DeletedCount == 0 {
			return &models.ErrNotFound{Resource: "expense", ID: id}
		}
		return nil
	})
}
