package forecast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prophetd/prophetd/internal/engine"
	"github.com/prophetd/prophetd/internal/models"
)

type fakeStore struct {
	runs       map[string]string // runID -> status
	summaries  map[string]string
	lastRuns   []string
	seq        int
	failCreate bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		runs:      make(map[string]string),
		summaries: make(map[string]string),
	}
}

func (s *fakeStore) CreateRun(ctx context.Context, modelID string) (string, error) {
	if s.failCreate {
		return "", errors.New("store unavailable")
	}
	s.seq++
	id := fmt.Sprintf("run-%s-%d", modelID, s.seq)
	s.runs[id] = models.RunStatusPending
	return id, nil
}

func (s *fakeStore) CompleteRun(ctx context.Context, runID string, table *engine.PredictionTable, summary string) error {
	s.runs[runID] = models.RunStatusCompleted
	s.summaries[runID] = summary
	return nil
}

func (s *fakeStore) FailRun(ctx context.Context, runID, errorMsg string) error {
	s.runs[runID] = models.RunStatusFailed
	return nil
}

func (s *fakeStore) UpdateModelLastRun(ctx context.Context, modelID string) error {
	s.lastRuns = append(s.lastRuns, modelID)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dailyFrame(start time.Time, n int) *models.TimeSeriesFrame {
	frame := &models.TimeSeriesFrame{
		Dates:  make([]time.Time, n),
		Values: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		frame.Dates[i] = start.AddDate(0, 0, i)
		frame.Values[i] = float64(i)
	}
	return frame
}

func testService(store *fakeStore) *Service {
	return New(store, func() engine.Engine { return engine.NewMock() }, nil, nil, testLogger())
}

func testRecord() *models.ModelRecord {
	return &models.ModelRecord{
		ID:        "m1",
		Name:      "sales",
		Growth:    "linear",
		Frequency: "D",
		Periods:   7,
	}
}

func TestFitThenPredict(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	record := testRecord()

	frame := dailyFrame(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 30)
	if err := svc.Fit(context.Background(), record, frame); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if len(store.lastRuns) != 1 || store.lastRuns[0] != "m1" {
		t.Errorf("expected last-run stamp for m1, got %v", store.lastRuns)
	}

	result, err := svc.Predict(context.Background(), record, nil, false)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(result.Table.Dates) != 7 {
		t.Errorf("expected 7 forecast rows, got %d", len(result.Table.Dates))
	}
	if store.runs[result.RunID] != models.RunStatusCompleted {
		t.Errorf("expected run %s completed, got %s", result.RunID, store.runs[result.RunID])
	}
}

type fakeSummarizer struct {
	calls int
}

func (f *fakeSummarizer) Enabled() bool { return true }

func (f *fakeSummarizer) Summarize(ctx context.Context, modelName string, table *engine.PredictionTable) (string, error) {
	f.calls++
	return fmt.Sprintf("summary %d for %s", f.calls, modelName), nil
}

func TestPredictReturnsOwnSummary(t *testing.T) {
	store := newFakeStore()
	summarizer := &fakeSummarizer{}
	svc := New(store, func() engine.Engine { return engine.NewMock() }, summarizer, nil, testLogger())
	record := testRecord()

	frame := dailyFrame(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 30)
	if err := svc.Fit(context.Background(), record, frame); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	first, err := svc.Predict(context.Background(), record, nil, true)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	second, err := svc.Predict(context.Background(), record, nil, true)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if first.Summary != "summary 1 for sales" || second.Summary != "summary 2 for sales" {
		t.Errorf("summaries = %q, %q", first.Summary, second.Summary)
	}
	if store.summaries[second.RunID] != second.Summary {
		t.Errorf("persisted summary %q does not match returned %q",
			store.summaries[second.RunID], second.Summary)
	}
}

func TestPredictBeforeFit(t *testing.T) {
	svc := testService(newFakeStore())

	_, err := svc.Predict(context.Background(), testRecord(), nil, false)
	if !errors.Is(err, models.ErrPrerequisite) {
		t.Fatalf("expected prerequisite error, got %v", err)
	}
}

func TestFutureBeforeFit(t *testing.T) {
	svc := testService(newFakeStore())

	_, err := svc.Future(testRecord(), models.ForecastHorizon{Periods: 7, Frequency: "D"})
	if !errors.Is(err, models.ErrPrerequisite) {
		t.Fatalf("expected prerequisite error, got %v", err)
	}
}

func TestFutureUsesMonthlyRule(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	record := testRecord()

	frame := dailyFrame(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 10)
	if err := svc.Fit(context.Background(), record, frame); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	future, err := svc.Future(record, models.ForecastHorizon{Periods: 1, Frequency: "M"})
	if err != nil {
		t.Fatalf("Future failed: %v", err)
	}
	if future.Len() != 30 {
		t.Errorf("expected 30 future rows for one month, got %d", future.Len())
	}
}

func TestFitRejectsCapColumn(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	record := testRecord()

	frame := dailyFrame(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 10)
	frame.Regressors = map[string][]float64{"cap": make([]float64, 10)}

	err := svc.Fit(context.Background(), record, frame)
	if !errors.Is(err, models.ErrUnsupportedFeature) {
		t.Fatalf("expected unsupported-feature error, got %v", err)
	}
}

func TestPredictMarksRunFailed(t *testing.T) {
	store := newFakeStore()
	mock := engine.NewMock()
	svc := New(store, func() engine.Engine { return mock }, nil, nil, testLogger())
	record := testRecord()

	frame := dailyFrame(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 10)
	if err := svc.Fit(context.Background(), record, frame); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	mock.PredictErr = errors.New("engine down")
	_, err := svc.Predict(context.Background(), record, nil, false)
	if err == nil {
		t.Fatal("expected predict error")
	}
	if len(store.runs) != 1 {
		t.Fatalf("expected one run, got %v", store.runs)
	}
	for id, status := range store.runs {
		if status != models.RunStatusFailed {
			t.Errorf("expected run %s marked failed, got %s", id, status)
		}
	}
}

func TestRunScheduledSkipsUnfittedModel(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)

	if err := svc.RunScheduled(context.Background(), testRecord()); err != nil {
		t.Fatalf("expected unfitted model to be skipped, got %v", err)
	}
	if len(store.runs) != 0 {
		t.Errorf("expected no runs recorded, got %v", store.runs)
	}
}
