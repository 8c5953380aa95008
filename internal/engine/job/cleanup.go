package job

import (
	"context"
	"fmt"
	"time"

	"web3-trader/internal/engine/repository"

	"go.uber.org/zap"
)

const historyRetentionDays = 30

// CleanupJob 清理过旧历史数据的周期任务
type CleanupJob struct {
	repo   repository.Repository
	logger *zap.Logger
}

func NewCleanupJob(repo repository.Repository, logger *zap.Logger) *CleanupJob {
	return &CleanupJob{repo: repo, logger: logger}
}

// Run 删除保留期之外的模拟、评估与执行历史
func (j *CleanupJob) Run(ctx context.Context) error {
	db := j.repo.GetDB()
	if db == nil {
		return fmt.Errorf("db is nil")
	}
	cutoff := time.Now().Add(-historyRetentionDays * 24 * time.Hour).UnixMilli()

	tables := []struct {
		name   string
		column string
	}{
		{"trader.simulation_history", "simulated_at"},
		{"trader.assessment_history", "assessed_at"},
		{"trader.execution_history", "started_at"},
	}

	for _, t := range tables {
		res := db.WithContext(ctx).
			Exec(fmt.Sprintf("DELETE FROM %s WHERE %s < ?", t.name, t.column), cutoff)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			j.logger.Info("cleaned old history rows",
				zap.String("table", t.name),
				zap.Int64("cutoff", cutoff),
				zap.Int64("rows", res.RowsAffected))
		}
	}
	return nil
}
