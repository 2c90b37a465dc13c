package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/rentledger/internal/domain/models"
	"github.com/mamadbah2/rentledger/internal/service/reporting"
)

const jobTimeout = 2 * time.Minute

// Reporter is the part of the reporting service used by the month-close job.
type Reporter interface {
	SnapshotMonth(ctx context.Context, year, month int) (models.StatsSnapshot, error)
	ExportYear(ctx context.Context, year int) (int, error)
}

// Notifier delivers the month-close summary to the owner.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Recorder counts job runs by outcome.
type Recorder interface {
	IncScheduledReport(status string)
}

// Scheduler runs the month-close job: snapshot the month that just ended,
// export the year to the spreadsheet and message the owner.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	loc      *time.Location
	reporter Reporter
	notifier Notifier
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance. notifier and recorder may be nil.
func NewScheduler(schedule string, loc *time.Location, reporter Reporter, notifier Notifier, recorder Recorder, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: schedule,
		loc:      loc,
		reporter: reporter,
		notifier: notifier,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the month-close job and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.String("location", s.loc.String()))

	if _, err := s.cron.AddFunc(s.schedule, s.runMonthClose); err != nil {
		return fmt.Errorf("schedule month close: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runMonthClose() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.CloseMonth(ctx, s.now()); err != nil {
		s.logger.Error("month close failed", zap.Error(err))
	}
}

// CloseMonth snapshots the month before now, exports its year and notifies the
// owner. Export and notification failures are logged and do not fail the job
// once the snapshot is saved.
func (s *Scheduler) CloseMonth(ctx context.Context, now time.Time) error {
	year, month := PreviousMonth(now.In(s.loc))
	log := s.logger.With(zap.Int("year", year), zap.Int("month", month))
	log.Info("closing month")

	snap, err := s.reporter.SnapshotMonth(ctx, year, month)
	if err != nil {
		s.record("failed")
		return fmt.Errorf("snapshot %04d-%02d: %w", year, month, err)
	}

	status := "ok"
	rows, err := s.reporter.ExportYear(ctx, year)
	switch {
	case errors.Is(err, reporting.ErrExportDisabled):
		log.Debug("statistics export disabled")
	case err != nil:
		status = "partial"
		log.Error("statistics export failed", zap.Error(err))
	default:
		log.Info("statistics exported", zap.Int("rows", rows))
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, reporting.FormatSummary(snap.Stats, s.loc)); err != nil {
			status = "partial"
			log.Error("failed to send month summary", zap.Error(err))
		} else {
			log.Info("month summary sent")
		}
	}

	s.record(status)
	return nil
}

func (s *Scheduler) record(status string) {
	if s.recorder != nil {
		s.recorder.IncScheduledReport(status)
	}
}

// PreviousMonth returns the calendar month before the one containing t.
func PreviousMonth(t time.Time) (int, int) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	prev := first.AddDate(0, -1, 0)
	return prev.Year(), int(prev.Month())
}
