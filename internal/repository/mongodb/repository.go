package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/rentledger/internal/config"
	"github.com/mamadbah2/rentledger/internal/domain/models"
	"github.com/mamadbah2/rentledger/internal/repository"
)

const (
	apartmentsCollection = "apartments"
	bookingsCollection   = "bookings"
	expensesCollection   = "expenses"
	snapshotsCollection  = "stats_snapshots"
)

var _ repository.Store = (*MongoDBRepository)(nil)

// MongoDBRepository implements repository.Store on top of MongoDB. Every call
// goes through a circuit breaker so a failing cluster is not hammered.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// Option customizes a MongoDBRepository.
type Option func(*MongoDBRepository)

// WithCircuitBreaker replaces the default circuit breaker.
func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(r *MongoDBRepository) { r.cb = cb }
}

// WithClock sets the time source used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *MongoDBRepository) { r.now = now }
}

// WithIDGenerator sets the generator of document ids.
func WithIDGenerator(fn func() string) Option {
	return func(r *MongoDBRepository) { r.newID = fn }
}

// NewMongoDBRepository connects to MongoDB and returns a repository bound to cfg.DBName.
func NewMongoDBRepository(ctx context.Context, cfg config.MongoDBConfig, logger *zap.Logger, opts ...Option) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		clientOptions.SetTimeout(cfg.Timeout)
	}
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := NewFromDatabase(client.Database(cfg.DBName), logger, opts...)
	r.client = client
	return r, nil
}

// NewFromDatabase builds a repository on an existing database handle.
func NewFromDatabase(db *mongo.Database, logger *zap.Logger, opts ...Option) *MongoDBRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &MongoDBRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cb == nil {
		r.cb = NewCircuitBreaker("mongodb", logger)
	}
	return r
}

// NewCircuitBreaker returns the breaker used around store calls. It opens when
// at least 60% of 5 or more requests fail within 30s and probes again after 10s.
func NewCircuitBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: isHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// isHealthy tells the breaker which errors say nothing about the store's health.
func isHealthy(err error) bool {
	if err == nil {
		return true
	}
	var nf *models.ErrNotFound
	var ve *models.ErrValidation
	return errors.As(err, &nf) || errors.As(err, &ve) || errors.Is(err, context.Canceled)
}

// EnsureIndexes creates the indexes the list queries rely on.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	bucket := mongo.IndexModel{Keys: bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}}}

	if _, err := r.db.Collection(bookingsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		bucket,
		{Keys: bson.D{{Key: "apartment_id", Value: 1}, {Key: "check_in", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("create booking indexes: %w", err)
	}
	if _, err := r.db.Collection(expensesCollection).Indexes().CreateOne(ctx, bucket); err != nil {
		return fmt.Errorf("create expense indexes: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.db.Collection(name)
}

// guard runs fn through the circuit breaker and maps an open breaker to
// *models.ErrStoreUnavailable.
func guard[T any](r *MongoDBRepository, op string, fn func() (T, error)) (T, error) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			r.logger.Warn("store call rejected", zap.String("operation", op), zap.Error(err))
			return zero, &models.ErrStoreUnavailable{Operation: op, Err: err}
		}
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

func guardErr(r *MongoDBRepository, op string, fn func() error) error {
	_, err := guard(r, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func bucketQuery(f repository.Filter) bson.M {
	q := bson.M{}
	if f.Year != 0 {
		q["year"] = f.Year
	}
	if f.Month != 0 {
		q["month"] = f.Month
	}
	if f.ApartmentID != "" {
		q["apartment_id"] = f.ApartmentID
	}
	return q
}

func byID(id string) bson.M {
	return bson.M{"_id": id}
}
