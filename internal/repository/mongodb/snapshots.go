package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/rentledger/internal/domain/models"
)

// SaveSnapshot upserts the snapshot of a month. Saving the same month twice
// keeps the latest capture.
func (r *MongoDBRepository) SaveSnapshot(ctx context.Context, s models.StatsSnapshot) error {
	return guardErr(r, "save snapshot", func() error {
		if s.ID == "" {
			s.ID = models.SnapshotID(s.Stats.Year, s.Stats.Month)
		}
		if s.CapturedAt.IsZero() {
			s.CapturedAt = r.now()
		}
		opts := options.Replace().SetUpsert(true)
		if _, err := r.collection(snapshotsCollection).ReplaceOne(ctx, byID(s.ID), s, opts); err != nil {
			return fmt.Errorf("failed to save snapshot %s: %w", s.ID, err)
		}
		return nil
	})
}

// ListSnapshots returns the snapshots captured for a year ordered by month.
func (r *MongoDBRepository) ListSnapshots(ctx context.Context, year int) ([]models.StatsSnapshot, error) {
	return guard(r, "list snapshots", func() ([]models.StatsSnapshot, error) {
		opts := options.Find().SetSort(bson.D{{Key: "stats.month", Value: 1}})
		cursor, err := r.collection(snapshotsCollection).Find(ctx, bson.M{"stats.year": year}, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to query snapshots: %w", err)
		}
		out := []models.StatsSnapshot{}
		if err := cursor.All(ctx, &out); err != nil {
			return nil, fmt.Errorf("failed to decode snapshots: %w", err)
		}
		return out, nil
	})
}
