package job

import (
	"context"
	"time"

	"github.com/yamdb/api-yamdb/logger"
)

// AuditCleaner deletes audit entries older than a number of days.
type AuditCleaner interface {
	CleanOldLogs(ctx context.Context, days int) (int64, error)
}

// AuditCleanupJob enforces the audit log retention period.
type AuditCleanupJob struct {
	ctx           context.Context
	cleaner       AuditCleaner
	retentionDays int
}

// NewAuditCleanupJob creates the job. Runs are bounded by ctx, so a
// cleanup in flight is abandoned when the server stops.
func NewAuditCleanupJob(ctx context.Context, cleaner AuditCleaner, retentionDays int) *AuditCleanupJob {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &AuditCleanupJob{ctx: ctx, cleaner: cleaner, retentionDays: retentionDays}
}

// Run is called by cron.
func (j *AuditCleanupJob) Run() {
	logger.Debug("audit cleanup job started")
	if err := j.ctx.Err(); err != nil {
		logger.Debug("audit cleanup skipped: ", err)
		return
	}
	ctx, cancel := context.WithTimeout(j.ctx, time.Minute)
	defer cancel()

	n, err := j.cleaner.CleanOldLogs(ctx, j.retentionDays)
	if err != nil {
		logger.Warning("failed to clean old audit logs: ", err)
		return
	}
	logger.Debugf("audit cleanup removed %d entries (retention: %d days)", n, j.retentionDays)
}
