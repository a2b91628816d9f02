package jobs

import (
	"context"
	"fmt"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/presence"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// ResetCampusJob empties the on-campus set overnight so students who never
// signalled CTG do not linger into the next day.
type ResetCampusJob struct {
	campus presence.CampusTracker
}

// NewResetCampusJob creates the job.
func NewResetCampusJob(campus presence.CampusTracker) *ResetCampusJob {
	return &ResetCampusJob{campus: campus}
}

// Name implements scheduler.Job.
func (j *ResetCampusJob) Name() string { return "reset_campus" }

// Description implements scheduler.Job.
func (j *ResetCampusJob) Description() string { return "Clears the on-campus tracker" }

// Run implements scheduler.Job.
func (j *ResetCampusJob) Run(ctx context.Context) error {
	if err := j.campus.Reset(ctx); err != nil {
		return fmt.Errorf("reset_campus: %w", err)
	}
	logger.FromContext(ctx).Info("campus tracker reset")
	return nil
}
