package bookings

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mamadbah2/rentledger/internal/repository"
)

// ErrUploadsDisabled is returned by UploadReceipt when no image uploader is configured.
var ErrUploadsDisabled = errors.New("receipt uploads are not configured")

// compensationTimeout bounds the rollback of a half-written split booking. The
// rollback runs detached from the request context.
const compensationTimeout = 10 * time.Second

var tracer = otel.Tracer("service/bookings")

// Store is the subset of the repository the service writes to.
type Store interface {
	repository.ApartmentStore
	repository.BookingStore
	repository.ExpenseStore
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Recorder receives the counters emitted by the service.
type Recorder interface {
	IncBookingRecord(kind string)
	IncSplitRollback(outcome string)
}

// Service implements the write side: apartments, bookings with the month-split
// policy, receipts and expenses.
type Service struct {
	store    Store
	uploader Uploader
	recorder Recorder
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithUploader enables UploadReceipt.
func WithUploader(u Uploader) Option {
	return func(s *Service) { s.uploader = u }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs the service. Booking and expense dates are read in loc.
func NewService(store Store, loc *time.Location, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{
		store:  store,
		loc:    loc,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the calendar location dates are interpreted in.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) count(kind string) {
	if s.recorder != nil {
		s.recorder.IncBookingRecord(kind)
	}
}

func (s *Service) rollback(outcome string) {
	if s.recorder != nil {
		s.recorder.IncSplitRollback(outcome)
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
