package history

import (
	"context"
	"time"

	"web3-trader/internal/engine/model"
	"web3-trader/internal/engine/writer"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	RETRY_COUNT = 3
)

// DbSimulationWriter 蜜罐模拟历史落库。
// 历史是追加式的：同 token+timestamp 冲突直接忽略，不覆盖
type DbSimulationWriter struct {
	db *gorm.DB
	tl *zap.Logger
}

func NewDbSimulationWriter(db *gorm.DB, tl *zap.Logger) writer.BatchWriter[model.SimulationRecord] {
	return &DbSimulationWriter{db: db, tl: tl}
}

func (w *DbSimulationWriter) BWrite(ctx context.Context, records []model.SimulationRecord) error {
	if len(records) == 0 {
		return nil
	}

	newCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var err error
	for attempt := 0; attempt < RETRY_COUNT; attempt++ {
		err = w.db.WithContext(newCtx).Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "chain"},
				{Name: "token_address"},
				{Name: "simulated_at"},
			},
			DoNothing: true,
		}).CreateInBatches(records, 500).Error

		if err == nil {
			break
		}
	}
	if err != nil {
		w.tl.Error("❌ write simulation history failed", zap.Int("count", len(records)), zap.Error(err))
	}
	return err
}

func (w *DbSimulationWriter) Close() error {
	return nil
}

// DbAssessmentWriter 风险评估历史落库
type DbAssessmentWriter struct {
	db *gorm.DB
	tl *zap.Logger
}

func NewDbAssessmentWriter(db *gorm.DB, tl *zap.Logger) writer.BatchWriter[model.AssessmentRecord] {
	return &DbAssessmentWriter{db: db, tl: tl}
}

func (w *DbAssessmentWriter) BWrite(ctx context.Context, records []model.AssessmentRecord) error {
	if len(records) == 0 {
		return nil
	}

	newCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var err error
	for attempt := 0; attempt < RETRY_COUNT; attempt++ {
		err = w.db.WithContext(newCtx).CreateInBatches(records, 500).Error
		if err == nil {
			break
		}
	}
	if err != nil {
		w.tl.Error("❌ write assessment history failed", zap.Int("count", len(records)), zap.Error(err))
	}
	return err
}

func (w *DbAssessmentWriter) Close() error {
	return nil
}

// DbExecutionWriter 交易执行历史落库，按 proposal_id 幂等
type DbExecutionWriter struct {
	db *gorm.DB
	tl *zap.Logger
}

func NewDbExecutionWriter(db *gorm.DB, tl *zap.Logger) writer.BatchWriter[model.ExecutionRecord] {
	return &DbExecutionWriter{db: db, tl: tl}
}

func (w *DbExecutionWriter) BWrite(ctx context.Context, records []model.ExecutionRecord) error {
	if len(records) == 0 {
		return nil
	}

	newCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var err error
	for attempt := 0; attempt < RETRY_COUNT; attempt++ {
		err = w.db.WithContext(newCtx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "proposal_id"}},
			// 终态可能在超时后被补录，保留最后一次写入的状态
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "fail_kind", "tx_hash", "attempts", "ended_at",
			}),
		}).CreateInBatches(records, 500).Error

		if err == nil {
			break
		}
	}
	if err != nil {
		w.tl.Error("❌ write execution history failed", zap.Int("count", len(records)), zap.Error(err))
	}
	return err
}

func (w *DbExecutionWriter) Close() error {
	return nil
}
