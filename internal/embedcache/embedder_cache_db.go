package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/MohitNilvarn/TAP/internal/ai"
	"github.com/MohitNilvarn/TAP/internal/model"
	appErr "github.com/MohitNilvarn/TAP/internal/pkg/errors"
	"github.com/MohitNilvarn/TAP/internal/repo"
)

func WrapDBCacheToEmbedder(e ai.IEmbedder, cacheRepo *repo.EmbeddingCacheRepo) ai.IEmbedder {
	if e == nil || cacheRepo == nil {
		return e
	}
	return &dbEmbedder{next: e, repo: cacheRepo}
}

type dbEmbedder struct {
	next ai.IEmbedder
	repo *repo.EmbeddingCacheRepo
}

func (d *dbEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if d == nil || d.next == nil {
		return nil, nil
	}
	_, contentHash, modelName := buildCacheKey(d.next.ModelName(), taskType, text)
	if d.repo != nil {
		entry, err := d.repo.Get(ctx, modelName, taskType, contentHash)
		if err != nil && !appErr.IsNotFound(err) {
			return nil, err
		}
		if err == nil {
			logutil.GetLogger(ctx).Debug("embedding cache hit (db)", zap.String("task_type", taskType))
			return entry.Embedding, nil
		}
	}
	res, err := d.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if d.repo != nil {
		if err := d.repo.Put(ctx, &model.EmbeddingCache{
			ModelName:   modelName,
			TaskType:    taskType,
			ContentHash: contentHash,
			Embedding:   res,
			Ctime:       time.Now().UnixMilli(),
		}); err != nil {
			logutil.GetLogger(ctx).Warn("failed to cache embedding", zap.Error(err))
		}
	}
	return res, nil
}

func (d *dbEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if d == nil || d.next == nil {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		_, contentHash, modelName := buildCacheKey(d.next.ModelName(), taskType, text)
		if d.repo != nil {
			entry, err := d.repo.Get(ctx, modelName, taskType, contentHash)
			if err != nil && !appErr.IsNotFound(err) {
				return nil, err
			}
			if err == nil {
				out[i] = entry.Embedding
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) > 0 {
		vectors, err := d.next.EmbedBatch(ctx, missTexts, taskType)
		if err != nil {
			return nil, err
		}
		for j, i := range missIdx {
			out[i] = vectors[j]
			if d.repo == nil {
				continue
			}
			_, contentHash, modelName := buildCacheKey(d.next.ModelName(), taskType, texts[i])
			if err := d.repo.Put(ctx, &model.EmbeddingCache{
				ModelName:   modelName,
				TaskType:    taskType,
				ContentHash: contentHash,
				Embedding:   vectors[j],
				Ctime:       time.Now().UnixMilli(),
			}); err != nil {
				logutil.GetLogger(ctx).Warn("failed to cache embedding", zap.Error(err))
			}
		}
	}
	return out, nil
}

func (d *dbEmbedder) ModelName() string {
	if d == nil || d.next == nil {
		return ""
	}
	return d.next.ModelName()
}

func buildCacheKey(modelName, taskType, text string) (string, string, string) {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	hash := sha256.Sum256([]byte(text))
	contentHash := hex.EncodeToString(hash[:])
	return "embed:" + modelName + ":" + taskType + ":" + contentHash, contentHash, modelName
}
