package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/prophetd/prophetd/internal/database"
	"github.com/prophetd/prophetd/internal/forecast"
)

// refreshInterval controls how often stored schedules are re-read so that
// newly created or deleted models are picked up without a restart.
const refreshInterval = 1 * time.Minute

// Scheduler runs stored models with cron expressions on their schedule.
type Scheduler struct {
	repo     *database.ModelRepository
	service  *forecast.Service
	logger   *slog.Logger
	stopChan chan struct{}

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
}

// New creates a scheduler backed by the model repository.
func New(repo *database.ModelRepository, service *forecast.Service, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		repo:     repo,
		service:  service,
		logger:   logger,
		stopChan: make(chan struct{}),
		cron:     cron.New(),
		entries:  make(map[string]cron.EntryID),
	}
}

// Start begins the scheduler loop. It blocks until Stop is called or the
// context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("starting forecast scheduler", "refresh_interval", refreshInterval)

	s.refresh(ctx)
	s.cron.Start()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refresh(ctx)
		case <-s.stopChan:
			s.logger.Info("forecast scheduler stopped")
			<-s.cron.Stop().Done()
			return
		case <-ctx.Done():
			s.logger.Info("forecast scheduler stopping due to context cancellation")
			<-s.cron.Stop().Done()
			return
		}
	}
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// refresh reconciles cron entries with the stored schedules.
func (s *Scheduler) refresh(ctx context.Context) {
	records, err := s.repo.ListScheduledModels(ctx)
	if err != nil {
		s.logger.Error("failed to list scheduled models", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(records))
	for _, record := range records {
		record := record
		seen[record.ID] = true

		if _, ok := s.entries[record.ID]; ok {
			continue
		}

		entryID, err := s.cron.AddFunc(record.ScheduleCron, func() {
			runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			if err := s.service.RunScheduled(runCtx, &record); err != nil {
				s.logger.Error("scheduled run failed",
					"model_id", record.ID,
					"name", record.Name,
					"error", err,
				)
			}
		})
		if err != nil {
			s.logger.Error("invalid cron expression",
				"model_id", record.ID,
				"cron", record.ScheduleCron,
				"error", err,
			)
			continue
		}

		s.entries[record.ID] = entryID
		s.logger.Info("scheduled model registered",
			"model_id", record.ID,
			"name", record.Name,
			"cron", record.ScheduleCron,
		)
	}

	for id, entryID := range s.entries {
		if !seen[id] {
			s.cron.Remove(entryID)
			delete(s.entries, id)
			s.logger.Info("scheduled model removed", "model_id", id)
		}
	}
}
