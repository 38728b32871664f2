package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/MohitNilvarn/TAP/internal/repo"
	"github.com/MohitNilvarn/TAP/internal/service"
)

const materialSweepBatch = 20

// MaterialSweepJob picks up pending materials and runs them through the
// ingestion path. Failures are recorded on the material itself, so the
// sweep keeps going through the batch.
type MaterialSweepJob struct {
	materials *repo.MaterialRepo
	svc       *service.MaterialService
}

func NewMaterialSweepJob(materials *repo.MaterialRepo, svc *service.MaterialService) *MaterialSweepJob {
	return &MaterialSweepJob{materials: materials, svc: svc}
}

func (j *MaterialSweepJob) Name() string {
	return "material_sweep"
}

func (j *MaterialSweepJob) Run(ctx context.Context) error {
	pending, err := j.materials.ListPending(ctx, materialSweepBatch)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	processed := 0
	for _, mat := range pending {
		if err := j.svc.Process(ctx, mat.ID); err != nil {
			logutil.GetLogger(ctx).Error("material sweep item failed",
				zap.String("material_id", mat.ID), zap.Error(err))
			continue
		}
		processed++
	}
	logutil.GetLogger(ctx).Info("material sweep done",
		zap.Int("pending", len(pending)), zap.Int("processed", processed))
	return nil
}
