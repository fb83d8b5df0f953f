package engine

import (
	"context"
	"math"
	"sort"

	"github.com/prophetd/prophetd/internal/models"
)

// Mock is a deterministic in-memory engine for tests and for running the
// service without a real engine deployment. Its "forecast" is the mean of
// the fitted values plus a fixed bump per active event; the point is a
// faithful boundary shape, not model quality.
type Mock struct {
	Cfg           Config
	Seasonalities []Seasonality
	Regressors    []string
	FitCalls      int
	PredictCalls  int
	PredictErr    error

	fitted bool
	mean   float64
}

// NewMock returns an unconfigured mock engine.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Configure(cfg Config) error {
	m.Cfg = cfg
	return nil
}

func (m *Mock) AddSeasonality(s Seasonality) error {
	m.Seasonalities = append(m.Seasonalities, s)
	return nil
}

func (m *Mock) AddRegressor(name string) error {
	m.Regressors = append(m.Regressors, name)
	return nil
}

func (m *Mock) Fit(ctx context.Context, frame *models.TimeSeriesFrame) error {
	m.FitCalls++

	var sum float64
	var n int
	for _, v := range frame.Values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n > 0 {
		m.mean = sum / float64(n)
	}
	m.fitted = true
	return nil
}

func (m *Mock) Predict(ctx context.Context, frame *models.TimeSeriesFrame) (*PredictionTable, error) {
	if !m.fitted {
		return nil, models.NewPrerequisiteError("mock engine: predict before fit")
	}
	if m.PredictErr != nil {
		return nil, m.PredictErr
	}
	m.PredictCalls++

	n := frame.Len()
	table := &PredictionTable{
		Dates:      make([]string, n),
		Yhat:       make([]float64, n),
		YhatLower:  make([]float64, n),
		YhatUpper:  make([]float64, n),
		Components: map[string][]float64{"trend": make([]float64, n)},
	}

	eventNames := make([]string, 0, len(frame.Events))
	for name := range frame.Events {
		eventNames = append(eventNames, name)
	}
	sort.Strings(eventNames)
	for _, name := range eventNames {
		table.Components[EventPrefix+name] = make([]float64, n)
	}

	for i, d := range frame.Dates {
		table.Dates[i] = d.Format("2006-01-02")
		yhat := m.mean
		table.Components["trend"][i] = m.mean
		for _, name := range eventNames {
			if frame.Events[name][i] {
				table.Components[EventPrefix+name][i] = 1
				yhat++
			}
		}
		table.Yhat[i] = yhat
		table.YhatLower[i] = yhat - 1
		table.YhatUpper[i] = yhat + 1
	}

	return table, nil
}
