package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/store"
)

// PurgeRevokedJob deletes revocation entries that have expired.
type PurgeRevokedJob struct {
	store store.RevocationStore
	now   func() time.Time
}

// NewPurgeRevokedJob creates a purge job for revocations. A nil now uses
// time.Now.
func NewPurgeRevokedJob(revocations store.RevocationStore, now func() time.Time) *PurgeRevokedJob {
	if now == nil {
		now = time.Now
	}
	return &PurgeRevokedJob{store: revocations, now: now}
}

// Name implements Job.
func (j *PurgeRevokedJob) Name() string {
	return "purge-revoked-tokens"
}

// Run implements Job.
func (j *PurgeRevokedJob) Run(ctx context.Context) error {
	n, err := j.store.PurgeExpired(ctx, j.now())
	if err != nil {
		return fmt.Errorf("failed to purge expired revocations: %w", err)
	}
	logger.FromContext(ctx).Info("purged expired revocations", slog.Int64("count", n))
	return nil
}
