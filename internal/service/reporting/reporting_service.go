package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/rentledger/internal/domain/accounting"
	"github.com/mamadbah2/rentledger/internal/domain/models"
	"github.com/mamadbah2/rentledger/internal/repository"
	repo "github.com/mamadbah2/rentledger/internal/repository/sheets"
)

const monthLayout = "2006-01"

// ErrExportDisabled is returned by ExportYear when no spreadsheet is configured.
var ErrExportDisabled = errors.New("statistics export is not configured")

var tracer = otel.Tracer("service/reporting")

// Store is the read side of the repository plus snapshot persistence.
type Store interface {
	ListApartments(ctx context.Context) ([]models.Apartment, error)
	ListBookings(ctx context.Context, f repository.Filter) ([]models.Booking, error)
	ListExpenses(ctx context.Context, f repository.Filter) ([]models.Expense, error)
	repository.SnapshotStore
}

// Recorder receives the timings and failures emitted by the service.
type Recorder interface {
	ObserveStatistics(scope string, d time.Duration)
	IncExternalError(service string)
}

// Service computes statistics and occupancy from stored records, freezes
// month snapshots and exports them to a spreadsheet.
type Service struct {
	store      Store
	sheet      repo.Repository
	sheetRange string
	recorder   Recorder
	loc        *time.Location
	logger     *zap.Logger
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithSheet enables ExportYear against sheetRange.
func WithSheet(sheet repo.Repository, sheetRange string) Option {
	return func(s *Service) {
		s.sheet = sheet
		s.sheetRange = sheetRange
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a new reporting service instance.
func NewService(store Store, loc *time.Location, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{store: store, loc: loc, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// dataset is the raw material of one statistics request.
type dataset struct {
	apartments []models.Apartment
	bookings   []models.Booking
	expenses   []models.Expense
	prior      *accounting.Prior
}

// load fetches the apartments and the year's records concurrently. With
// withPrior the previous year is loaded too.
func (s *Service) load(ctx context.Context, year int, withPrior bool) (dataset, error) {
	var ds dataset
	var priorBookings []models.Booking
	var priorExpenses []models.Expense

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a, err := s.store.ListApartments(gCtx)
		if err != nil {
			return fmt.Errorf("list apartments: %w", err)
		}
		ds.apartments = a
		return nil
	})
	g.Go(func() error {
		b, err := s.store.ListBookings(gCtx, repository.Filter{Year: year})
		if err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}
		ds.bookings = b
		return nil
	})
	g.Go(func() error {
		e, err := s.store.ListExpenses(gCtx, repository.Filter{Year: year})
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		ds.expenses = e
		return nil
	})
	if withPrior {
		g.Go(func() error {
			b, err := s.store.ListBookings(gCtx, repository.Filter{Year: year - 1})
			if err != nil {
				return fmt.Errorf("list prior bookings: %w", err)
			}
			priorBookings = b
			return nil
		})
		g.Go(func() error {
			e, err := s.store.ListExpenses(gCtx, repository.Filter{Year: year - 1})
			if err != nil {
				return fmt.Errorf("list prior expenses: %w", err)
			}
			priorExpenses = e
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load statistics data", zap.Int("year", year), zap.Error(err))
		return dataset{}, err
	}
	s.localize(ds.bookings, ds.expenses)
	if withPrior {
		s.localize(priorBookings, priorExpenses)
		ds.prior = &accounting.Prior{Bookings: priorBookings, Expenses: priorExpenses}
	}
	return ds, nil
}

// localize reads stored times in the reporting location. The store returns
// UTC instants and the first half of a split stay ends at the last instant of
// the month in that location.
func (s *Service) localize(bookings []models.Booking, expenses []models.Expense) {
	for i := range bookings {
		bookings[i] = bookings[i].In(s.loc)
	}
	for i := range expenses {
		expenses[i] = expenses[i].In(s.loc)
	}
}

func (s *Service) observe(scope string, start time.Time) {
	if s.recorder != nil {
		s.recorder.ObserveStatistics(scope, time.Since(start))
	}
}

// YearStatistics returns the twelve months, the totals with year-over-year
// growth and the apartment and expense breakdowns of year.
func (s *Service) YearStatistics(ctx context.Context, year int) (models.YearReport, error) {
	if err := validYear(year); err != nil {
		return models.YearReport{}, err
	}
	ctx, span := tracer.Start(ctx, "Reporting.YearStatistics")
	defer span.End()
	span.SetAttributes(attribute.Int("stats.year", year))
	defer s.observe("year", time.Now())

	ds, err := s.load(ctx, year, true)
	if err != nil {
		span.RecordError(err)
		return models.YearReport{}, err
	}

	report := accounting.ComputeYear(accounting.Input{
		Year:       year,
		Bookings:   ds.bookings,
		Expenses:   ds.expenses,
		Apartments: ds.apartments,
		Prior:      ds.prior,
	})
	report.GeneratedAt = s.now()
	return report, nil
}

// MonthStatistics returns the statistics of one month. Growth compares with
// the previous month of the same year.
func (s *Service) MonthStatistics(ctx context.Context, year, month int) (models.MonthlyStats, error) {
	if err := validPeriod(year, month); err != nil {
		return models.MonthlyStats{}, err
	}
	ctx, span := tracer.Start(ctx, "Reporting.MonthStatistics")
	defer span.End()
	defer s.observe("month", time.Now())

	ds, err := s.load(ctx, year, false)
	if err != nil {
		span.RecordError(err)
		return models.MonthlyStats{}, err
	}
	return accounting.ComputeMonth(accounting.Input{
		Year:       year,
		Bookings:   ds.bookings,
		Expenses:   ds.expenses,
		Apartments: ds.apartments,
	}, month), nil
}

// Occupancy returns the portfolio occupancy of a month, or of the whole year
// when month is zero.
func (s *Service) Occupancy(ctx context.Context, year, month int) (models.Occupancy, error) {
	if err := validYear(year); err != nil {
		return models.Occupancy{}, err
	}
	if month != 0 {
		if err := validPeriod(year, month); err != nil {
			return models.Occupancy{}, err
		}
	}
	defer s.observe("occupancy", time.Now())

	ds, err := s.load(ctx, year, false)
	if err != nil {
		return models.Occupancy{}, err
	}
	return accounting.ComputeOccupancy(ds.bookings, len(ds.apartments), accounting.Period{Year: year, Month: month}), nil
}

// SnapshotMonth freezes the statistics of a month. Running it again for the
// same month replaces the earlier snapshot.
func (s *Service) SnapshotMonth(ctx context.Context, year, month int) (models.StatsSnapshot, error) {
	stats, err := s.MonthStatistics(ctx, year, month)
	if err != nil {
		return models.StatsSnapshot{}, err
	}
	snap := models.StatsSnapshot{
		ID:         models.SnapshotID(year, month),
		Stats:      stats,
		CapturedAt: s.now(),
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return models.StatsSnapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.logger.Info("statistics snapshot saved", zap.String("id", snap.ID))
	return snap, nil
}

// Snapshots lists the snapshots captured for year.
func (s *Service) Snapshots(ctx context.Context, year int) ([]models.StatsSnapshot, error) {
	if err := validYear(year); err != nil {
		return nil, err
	}
	out, err := s.store.ListSnapshots(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

// ExportYear appends one row per month of year to the statistics sheet and
// returns the number of months written. Months already present in the sheet are
// skipped, so the export can be run repeatedly. An empty sheet gets a header row.
func (s *Service) ExportYear(ctx context.Context, year int) (int, error) {
	if s.sheet == nil {
		return 0, ErrExportDisabled
	}
	ctx, span := tracer.Start(ctx, "Reporting.ExportYear")
	defer span.End()

	report, err := s.YearStatistics(ctx, year)
	if err != nil {
		return 0, err
	}

	existing, err := s.sheet.ReadRange(ctx, s.sheetRange)
	if err != nil {
		s.externalError()
		span.RecordError(err)
		return 0, fmt.Errorf("read statistics sheet: %w", err)
	}
	exported := exportedMonths(existing)

	rows := make([][]interface{}, 0, len(report.Months)+1)
	if len(existing) == 0 {
		rows = append(rows, sheetHeader)
	}
	months := 0
	for _, m := range report.Months {
		key := models.SnapshotID(m.Year, m.Month)
		if exported[key] {
			continue
		}
		rows = append(rows, sheetRow(key, m.Figures))
		months++
	}
	if months == 0 {
		return 0, nil
	}

	if err := s.sheet.WriteRows(ctx, s.sheetRange, rows); err != nil {
		s.externalError()
		span.RecordError(err)
		return 0, fmt.Errorf("write statistics sheet: %w", err)
	}
	s.logger.Info("statistics exported", zap.Int("year", year), zap.Int("months", months))
	return months, nil
}

func (s *Service) externalError() {
	if s.recorder != nil {
		s.recorder.IncExternalError("sheets")
	}
}

// MonthlySummary renders the statistics of a month as a short text message.
func (s *Service) MonthlySummary(ctx context.Context, year, month int) (string, error) {
	stats, err := s.MonthStatistics(ctx, year, month)
	if err != nil {
		return "", err
	}
	return FormatSummary(stats, s.loc), nil
}

// FormatSummary renders stats as the owner's month-close message.
func FormatSummary(stats models.MonthlyStats, loc *time.Location) string {
	label := time.Date(stats.Year, time.Month(stats.Month), 1, 0, 0, 0, 0, loc).Format("January 2006")
	if stats.TotalBookings == 0 && stats.TotalExpenses == 0 {
		return fmt.Sprintf("%s: no bookings or expenses recorded.", label)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s summary\n", label)
	fmt.Fprintf(&b, "Bookings: %d (%d cancelled), %d nights\n", stats.TotalBookings, stats.CancelledBookings, stats.TotalBookingDays)
	fmt.Fprintf(&b, "Revenue: %.2f (%+.2f%%)\n", stats.TotalRevenue, stats.RevenueGrowth)
	fmt.Fprintf(&b, "Expenses: %.2f (%+.2f%%)\n", stats.TotalExpenses, stats.ExpenseGrowth)
	fmt.Fprintf(&b, "Net income: %.2f, margin %.2f%%\n", stats.NetIncome, stats.ProfitMargin)
	fmt.Fprintf(&b, "Occupancy: %.2f%%", stats.OccupancyRate)
	return b.String()
}

var sheetHeader = []interface{}{
	"Month", "Bookings", "Cancelled", "Nights", "Revenue",
	"Expenses", "Net income", "Margin %", "Occupancy %", "Average daily rate",
}

func sheetRow(key string, f models.Figures) []interface{} {
	return []interface{}{
		key,
		f.TotalBookings,
		f.CancelledBookings,
		f.TotalBookingDays,
		f.TotalRevenue,
		f.TotalExpenses,
		f.NetIncome,
		f.ProfitMargin,
		f.OccupancyRate,
		f.AverageDailyRate,
	}
}

func exportedMonths(rows [][]interface{}) map[string]bool {
	out := make(map[string]bool, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		key, err := parseMonth(row[0])
		if err != nil {
			continue
		}
		out[key] = true
	}
	return out
}

func parseMonth(value interface{}) (string, error) {
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return "", fmt.Errorf("empty month")
	}
	t, err := time.Parse(monthLayout, str)
	if err != nil {
		return "", err
	}
	return t.Format(monthLayout), nil
}

func validYear(year int) error {
	if year < 1970 || year > 9999 {
		return &models.ErrValidation{Field: "year", Message: fmt.Sprintf("%d is out of range", year)}
	}
	return nil
}

func validPeriod(year, month int) error {
	if err := validYear(year); err != nil {
		return err
	}
	if month < 1 || month > 12 {
		return &models.ErrValidation{Field: "month", Message: fmt.Sprintf("%d is not between 1 and 12", month)}
	}
	return nil
}
