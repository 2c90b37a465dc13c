package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rentledger/internal/domain/models"
	"github.com/mamadbah2/rentledger/internal/service/reporting"
)

type fakeReporter struct {
	snapErr   error
	exportErr error
	periods   [][2]int
	exported  []int
}

func (f *fakeReporter) SnapshotMonth(ctx context.Context, year, month int) (models.StatsSnapshot, error) {
	f.periods = append(f.periods, [2]int{year, month})
	if f.snapErr != nil {
		return models.StatsSnapshot{}, f.snapErr
	}
	return models.StatsSnapshot{
		ID:    models.SnapshotID(year, month),
		Stats: models.MonthlyStats{Year: year, Month: month, Figures: models.Figures{TotalBookings: 2, TotalRevenue: 700}},
	}, nil
}

func (f *fakeReporter) ExportYear(ctx context.Context, year int) (int, error) {
	f.exported = append(f.exported, year)
	return 12, f.exportErr
}

type fakeNotifier struct {
	err      error
	messages []string
}

func (f *fakeNotifier) Notify(ctx context.Context, message string) error {
	f.messages = append(f.messages, message)
	return f.err
}

type statusRecorder struct{ statuses []string }

func (r *statusRecorder) IncScheduledReport(status string) { r.statuses = append(r.statuses, status) }

func TestPreviousMonth(t *testing.T) {
	cases := []struct {
		now         time.Time
		year, month int
	}{
		{time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), 2024, 2},
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2023, 12},
		{time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC), 2024, 2},
	}
	for _, tc := range cases {
		y, m := PreviousMonth(tc.now)
		assert.Equal(t, tc.year, y, tc.now.String())
		assert.Equal(t, tc.month, m, tc.now.String())
	}
}

func TestCloseMonthUsesSchedulerLocation(t *testing.T) {
	rep := &fakeReporter{}
	tokyo := time.FixedZone("JST", 9*3600)
	s := NewScheduler("0 8 1 * *", tokyo, rep, nil, nil, nil)

	// 2024-03-31 16:00 UTC is already April 1st in Tokyo.
	require.NoError(t, s.CloseMonth(context.Background(), time.Date(2024, 3, 31, 16, 0, 0, 0, time.UTC)))
	assert.Equal(t, [][2]int{{2024, 3}}, rep.periods)
}

func TestCloseMonthNotifiesOwner(t *testing.T) {
	rep := &fakeReporter{}
	notifier := &fakeNotifier{}
	rec := &statusRecorder{}
	s := NewScheduler("0 8 1 * *", time.UTC, rep, notifier, rec, nil)

	require.NoError(t, s.CloseMonth(context.Background(), time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))

	assert.Equal(t, [][2]int{{2023, 12}}, rep.periods)
	assert.Equal(t, []int{2023}, rep.exported)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "December 2023 summary")
	assert.Equal(t, []string{"ok"}, rec.statuses)
}

func TestCloseMonthWithoutExport(t *testing.T) {
	rep := &fakeReporter{exportErr: reporting.ErrExportDisabled}
	rec := &statusRecorder{}
	s := NewScheduler("0 8 1 * *", time.UTC, rep, nil, rec, nil)

	require.NoError(t, s.CloseMonth(context.Background(), time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"ok"}, rec.statuses)
}

func TestCloseMonthPartialFailures(t *testing.T) {
	rep := &fakeReporter{exportErr: errors.New("sheets down")}
	notifier := &fakeNotifier{err: errors.New("whatsapp down")}
	rec := &statusRecorder{}
	s := NewScheduler("0 8 1 * *", time.UTC, rep, notifier, rec, nil)

	require.NoError(t, s.CloseMonth(context.Background(), time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)))
	assert.Len(t, notifier.messages, 1)
	assert.Equal(t, []string{"partial"}, rec.statuses)
}

func TestCloseMonthSnapshotFailure(t *testing.T) {
	boom := errors.New("store down")
	rep := &fakeReporter{snapErr: boom}
	notifier := &fakeNotifier{}
	rec := &statusRecorder{}
	s := NewScheduler("0 8 1 * *", time.UTC, rep, notifier, rec, nil)

	err := s.CloseMonth(context.Background(), time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, rep.exported)
	assert.Empty(t, notifier.messages)
	assert.Equal(t, []string{"failed"}, rec.statuses)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler("not a schedule", time.UTC, &fakeReporter{}, nil, nil, nil)
	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler("0 8 1 * *", time.UTC, &fakeReporter{}, nil, nil, nil)
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}
