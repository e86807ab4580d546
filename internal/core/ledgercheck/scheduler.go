package ledgercheck

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the ledger audit on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	checker *Checker
}

// NewScheduler creates a new scheduler
func NewScheduler(checker *Checker) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		checker: checker,
	}
}

// Start schedules the audit and starts the cron loop.
// schedule is a standard cron expression (e.g. "0 3 * * *" for 3 AM daily).
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.checker.Run(context.Background()); err != nil {
			log.Printf("❌ Ledger audit failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule ledger audit: %w", err)
	}

	s.cron.Start()
	log.Printf("⏰ Ledger audit scheduled: %s", schedule)
	return nil
}

// Stop stops the cron loop.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("⏰ Ledger audit scheduler stopped")
}
