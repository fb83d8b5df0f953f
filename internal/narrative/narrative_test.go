package narrative

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prophetd/prophetd/internal/engine"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSummarizerDisabledWithoutKey(t *testing.T) {
	s := New("", "gpt-4o-mini", testLogger())

	if s.Enabled() {
		t.Error("expected summarizer to be disabled")
	}

	table := &engine.PredictionTable{
		Dates: []string{"2023-01-01"},
		Yhat:  []float64{10},
	}
	summary, err := s.Summarize(context.Background(), "sales", table)
	if err != nil {
		t.Fatalf("disabled summarizer should not error, got %v", err)
	}
	if summary != "" {
		t.Errorf("expected empty summary, got %q", summary)
	}
}

func TestBuildSummaryPrompt(t *testing.T) {
	s := New("", "gpt-4o-mini", testLogger())

	table := &engine.PredictionTable{
		Dates:     []string{"2023-01-01", "2023-01-02", "2023-01-03"},
		Yhat:      []float64{10, 11, 12},
		YhatLower: []float64{8, 9, 10},
		YhatUpper: []float64{12, 13, 14},
	}

	prompt := s.buildSummaryPrompt("sales", table)

	for _, want := range []string{
		`model "sales"`,
		"3 rows",
		"Range: 2023-01-01 to 2023-01-03",
		"First yhat: 10.00 (interval 8.00 to 12.00)",
		"Last yhat: 12.00 (interval 10.00 to 14.00)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildSummaryPromptWithoutIntervals(t *testing.T) {
	s := New("", "gpt-4o-mini", testLogger())

	table := &engine.PredictionTable{
		Dates: []string{"2023-01-01", "2023-01-02"},
		Yhat:  []float64{10, 11},
	}

	prompt := s.buildSummaryPrompt("sales", table)

	for _, want := range []string{
		"First yhat: 10.00\n",
		"Last yhat: 11.00\n",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "interval") {
		t.Errorf("prompt should omit intervals when the table has none:\n%s", prompt)
	}
}

func TestBuildSummaryPromptSamplesLongTables(t *testing.T) {
	s := New("", "gpt-4o-mini", testLogger())

	n := 365
	table := &engine.PredictionTable{
		Dates:     make([]string, n),
		Yhat:      make([]float64, n),
		YhatLower: make([]float64, n),
		YhatUpper: make([]float64, n),
	}
	for i := range table.Dates {
		table.Dates[i] = "2023-01-01"
	}

	prompt := s.buildSummaryPrompt("sales", table)

	lines := strings.Count(prompt, "\n")
	if lines > maxSummaryRows+10 {
		t.Errorf("expected sampled prompt, got %d lines", lines)
	}
}
