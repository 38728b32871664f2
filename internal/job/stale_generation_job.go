package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/MohitNilvarn/TAP/internal/model"
	"github.com/MohitNilvarn/TAP/internal/repo"
)

const staleGenerationBatch = 50

// StaleGenerationJob fails lectures stuck in the generating state, which
// happens when the process dies mid-run. Without it the status flag
// would block regeneration forever.
type StaleGenerationJob struct {
	lectures   *repo.LectureRepo
	staleAfter time.Duration
}

func NewStaleGenerationJob(lectures *repo.LectureRepo, staleAfterMins int) *StaleGenerationJob {
	if staleAfterMins <= 0 {
		staleAfterMins = 30
	}
	return &StaleGenerationJob{
		lectures:   lectures,
		staleAfter: time.Duration(staleAfterMins) * time.Minute,
	}
}

func (j *StaleGenerationJob) Name() string {
	return "stale_generation_reset"
}

func (j *StaleGenerationJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.staleAfter).UnixMilli()
	stuck, err := j.lectures.ListStuckGenerating(ctx, cutoff, staleGenerationBatch)
	if err != nil {
		return err
	}
	for _, lec := range stuck {
		err := j.lectures.UpdateGenerationStatus(ctx, lec.ID, model.GenerationStatusGenerating, map[string]interface{}{
			"generation_status": model.GenerationStatusFailed,
			"generation_error":  "generation timed out",
		})
		if err != nil {
			logutil.GetLogger(ctx).Warn("failed to reset stale generation",
				zap.String("lecture_id", lec.ID), zap.Error(err))
			continue
		}
		logutil.GetLogger(ctx).Info("stale generation reset",
			zap.String("lecture_id", lec.ID))
	}
	return nil
}
