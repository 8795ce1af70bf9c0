// Package scheduler запускает фоновые задачи процесса по расписанию cron.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler обёртка над cron.Cron с явными Start и Stop.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// New создаёт планировщик. Паника внутри задачи не роняет процесс.
func New(log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger))),
		log:  log,
	}
}

// AddJob регистрирует fn под именем name по выражению spec (например "@every 5m").
func (s *Scheduler) AddJob(spec, name string, fn func()) error {
	const op = "scheduler.AddJob"
	_, err := s.cron.AddFunc(spec, func() {
		started := time.Now()
		fn()
		s.log.Debug("job finished",
			slog.String("job", name),
			slog.Duration("took", time.Since(started)),
		)
	})
	if err != nil {
		return fmt.Errorf("%s: %s: %w", op, name, err)
	}
	return nil
}

// Every регистрирует fn с периодом interval.
func (s *Scheduler) Every(interval time.Duration, name string, fn func()) error {
	return s.AddJob("@every "+interval.String(), name, fn)
}

// Start запускает планировщик в отдельной горутине.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", slog.Int("jobs", len(s.cron.Entries())))
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}
