package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/openroad/driveadmin/internal/config"
	"github.com/openroad/driveadmin/internal/tasks"
)

// AuditCleanupScheduler enqueues the audit retention task on a cron
// schedule. The heavy lifting happens in the task queue so a slow delete
// never blocks the cron loop.
type AuditCleanupScheduler struct {
	taskClient *tasks.Client
	cfg        config.Audit

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

func NewAuditCleanupScheduler(taskClient *tasks.Client, cfg config.Audit) *AuditCleanupScheduler {
	return &AuditCleanupScheduler{
		taskClient: taskClient,
		cfg:        cfg,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler. A nil task client or an empty schedule
// disables it without error.
func (s *AuditCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.taskClient == nil || s.cfg.CleanupSchedule == "" {
		log.Printf("Audit cleanup scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.cfg.CleanupSchedule, s.enqueueCleanup)
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.cfg.CleanupSchedule, err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true
	log.Printf("Audit cleanup scheduler: started with schedule %q, retention %d days",
		s.cfg.CleanupSchedule, s.cfg.RetentionDays)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running invocation to finish.
func (s *AuditCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.isRunning = false

	log.Printf("Audit cleanup scheduler: stopped")
}

// RunNow enqueues a cleanup immediately, outside the schedule.
func (s *AuditCleanupScheduler) RunNow() error {
	return s.enqueue()
}

// NextRunTime reports when the next scheduled cleanup fires.
func (s *AuditCleanupScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

func (s *AuditCleanupScheduler) enqueueCleanup() {
	if err := s.enqueue(); err != nil {
		log.Printf("Audit cleanup scheduler: enqueue failed: %v", err)
	}
}

func (s *AuditCleanupScheduler) enqueue() error {
	_, err := s.taskClient.Add(tasks.CleanupAuditEventsTask{
		RetentionDays: s.cfg.RetentionDays,
	}).Save()
	return err
}
