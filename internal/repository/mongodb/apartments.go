package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/rentledger/internal/domain/models"
)

// ListApartments returns every apartment ordered by name.
func (r *MongoDBRepository) ListApartments(ctx context.Context) ([]models.Apartment, error) {
	return guard(r, "list apartments", func() ([]models.Apartment, error) {
		opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
		cursor, err := r.collection(apartmentsCollection).Find(ctx, bson.M{}, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to query apartments: %w", err)
		}
		out := []models.Apartment{}
		if err := cursor.All(ctx, &out); err != nil {
			return nil, fmt.Errorf("failed to decode apartments: %w", err)
		}
		return out, nil
	})
}

// GetApartment loads a single apartment.
func (r *MongoDBRepository) GetApartment(ctx context.Context, id string) (models.Apartment, error) {
	return guard(r, "get apartment", func() (models.Apartment, error) {
		var a models.Apartment
		err := r.collection(apartmentsCollection).FindOne(ctx, byID(id)).Decode(&a)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return a, &models.ErrNotFound{Resource: "apartment", ID: id}
		}
		if err != nil {
			return a, fmt.Errorf("failed to load apartment %s: %w", id, err)
		}
		return a, nil
	})
}

// CreateApartment inserts a and returns its generated id.
func (r *MongoDBRepository) CreateApartment(ctx context.Context, a models.Apartment) (string, error) {
	return guard(r, "create apartment", func() (string, error) {
		now := r.now()
		a.ID = r.newID()
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
		if _, err := r.collection(apartmentsCollection).InsertOne(ctx, a); err != nil {
			return "", fmt.Errorf("failed to insert apartment: %w", err)
		}
		return a.ID, nil
	})
}

// UpdateApartment replaces the stored apartment with a.
func (r *MongoDBRepository) UpdateApartment(ctx context.Context, a models.Apartment) error {
	return guardErr(r, "update apartment", func() error {
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = r.now()
		}
		res, err := r.collection(apartmentsCollection).ReplaceOne(ctx, byID(a.ID), a)
		if err != nil {
			return fmt.Errorf("failed to update apartment %s: %w", a.ID, err)
		}
		if res.MatchedCount == 0 {
			return &models.ErrNotFound{Resource: "apartment", ID: a.ID}
		}
		return nil
	})
}

// DeleteApartment removes an apartment. Its bookings are kept.
func (r *MongoDBRepository) DeleteApartment(ctx context.Context, id string) error {
	return guardErr(r, "delete apartment", func() error {
		res, err := r.collection(apartmentsCollection).DeleteOne(ctx, byID(id))
		if err != nil {
			return fmt.Errorf("failed to delete apartment %s: %w", id, err)
		}
		if res.DeletedCount == 0 {
			return &models.ErrNotFound{Resource: "apartment", ID: id}
		}
		return nil
	})
}
