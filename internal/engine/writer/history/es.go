package history

import (
	"context"
	"fmt"
	"time"

	"web3-trader/internal/engine/model"
	"web3-trader/internal/engine/writer"
	"web3-trader/pkg/elasticsearch"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// EsAssessmentWriter 风险评估写入 ES，供风控后台按因子/等级检索
type EsAssessmentWriter struct {
	es    *elasticsearch.Client
	index string
	tl    *zap.Logger
}

func NewEsAssessmentWriter(es *elasticsearch.Client, index string, tl *zap.Logger) writer.BatchWriter[model.AssessmentRecord] {
	return &EsAssessmentWriter{es: es, index: index, tl: tl}
}

func (w *EsAssessmentWriter) BWrite(ctx context.Context, records []model.AssessmentRecord) error {
	if len(records) == 0 || w.es == nil {
		return nil
	}

	operations := make([]elasticsearch.BulkOperation, 0, len(records))
	for _, rec := range records {
		doc, err := toDocument(rec)
		if err != nil {
			w.tl.Warn("skip unserializable assessment", zap.String("token", rec.TokenAddress), zap.Error(err))
			continue
		}
		operations = append(operations, elasticsearch.BulkOperation{
			Action:   "index",
			Index:    w.index,
			ID:       fmt.Sprintf("%s:%s:%d", rec.Chain, rec.TokenAddress, rec.AssessedAt),
			Document: doc,
		})
	}

	newCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := w.es.BulkWrite(newCtx, operations); err != nil {
		w.tl.Error("❌ bulk write assessments to es failed", zap.Int("count", len(operations)), zap.Error(err))
		return err
	}
	return nil
}

func (w *EsAssessmentWriter) Close() error {
	return nil
}

func toDocument(rec model.AssessmentRecord) (map[string]interface{}, error) {
	raw, err := sonic.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
