package scheduler

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openroad/driveadmin/internal/config"
	"github.com/openroad/driveadmin/internal/tasks"
)

func newTestTaskClient(t *testing.T) *tasks.Client {
	t.Helper()

	cfg := tasks.DefaultConfig()
	cfg.Workers = 1

	client, err := tasks.NewClient(filepath.Join(t.TempDir(), "test.db"), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestSchedulerDisabledWithoutSchedule(t *testing.T) {
	s := NewAuditCleanupScheduler(newTestTaskClient(t), config.Audit{})

	require.NoError(t, s.Start(context.Background()))
	assert.Nil(t, s.NextRunTime())
	s.Stop()
}

func TestSchedulerDisabledWithoutClient(t *testing.T) {
	s := NewAuditCleanupScheduler(nil, config.Audit{CleanupSchedule: "0 3 * * *"})

	require.NoError(t, s.Start(context.Background()))
	assert.Nil(t, s.NextRunTime())
}

func TestSchedulerRejectsInvalidSchedule(t *testing.T) {
	s := NewAuditCleanupScheduler(newTestTaskClient(t), config.Audit{CleanupSchedule: "not a cron expression"})

	assert.Error(t, s.Start(context.Background()))
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewAuditCleanupScheduler(newTestTaskClient(t), config.Audit{
		CleanupSchedule: "0 3 * * *",
		RetentionDays:   90,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	next := s.NextRunTime()
	require.NotNil(t, next)
	assert.False(t, next.IsZero())

	// Starting twice is a no-op
	require.NoError(t, s.Start(ctx))

	s.Stop()
	assert.Nil(t, s.NextRunTime())
}

func TestSchedulerRunNow(t *testing.T) {
	s := NewAuditCleanupScheduler(newTestTaskClient(t), config.Audit{RetentionDays: 30})

	assert.NoError(t, s.RunNow())
}
