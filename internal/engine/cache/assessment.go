package cache

import (
	"context"
	"errors"
	"time"

	"web3-trader/internal/engine/model"
	"web3-trader/pkg/utils"

	"github.com/bytedance/sonic"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// 评估的可信窗口：超过这个时长的评估视为过期，确认前必须重评
	assessmentTTL = 5 * time.Minute
	// 本地缓存比 redis 略短，保证本地不会比远端新鲜度差
	localTTL = 2 * time.Minute
	// redis 里模拟快照的保留时长，完整历史在 DB
	simulationTTL = 24 * time.Hour
)

// AssessmentCache 最新风险评估缓存：本地 go-cache 挡热点，redis 做跨实例共享。
// 只存"最新"，历史走 DB/ES
type AssessmentCache struct {
	local  *gocache.Cache
	rdb    *redis.Client
	logger *zap.Logger
}

func NewAssessmentCache(rdb *redis.Client, logger *zap.Logger) *AssessmentCache {
	return &AssessmentCache{
		local:  gocache.New(localTTL, 10*time.Minute),
		rdb:    rdb,
		logger: logger,
	}
}

// Get 取最新评估，本地优先。过期或不存在返回 nil
func (c *AssessmentCache) Get(ctx context.Context, chain, token string) *model.RiskAssessment {
	key := utils.AssessmentKey(chain, token)

	if v, ok := c.local.Get(key); ok {
		if a, ok := v.(*model.RiskAssessment); ok && fresh(a) {
			return a
		}
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("assessment cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}

	var a model.RiskAssessment
	if err := sonic.Unmarshal(raw, &a); err != nil {
		c.logger.Warn("assessment cache decode failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !fresh(&a) {
		return nil
	}

	c.local.SetDefault(key, &a)
	return &a
}

// Set 写入最新评估，本地与 redis 双写
func (c *AssessmentCache) Set(ctx context.Context, a *model.RiskAssessment) {
	key := utils.AssessmentKey(a.Token.Chain, a.Token.Address)
	c.local.SetDefault(key, a)

	raw, err := sonic.Marshal(a)
	if err != nil {
		c.logger.Warn("assessment cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, raw, assessmentTTL).Err(); err != nil {
		c.logger.Warn("assessment cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// RecordSimulation 把一次模拟快照追加进 redis（key 带时间戳，不覆盖），
// 排障时不用翻库就能看到最近的场景结果
func (c *AssessmentCache) RecordSimulation(ctx context.Context, sim *model.SimulationResult) {
	key := utils.SimulationHistoryKey(sim.Token.Chain, sim.Token.Address, sim.SimulatedAt.UnixMilli())
	raw, err := sonic.Marshal(sim)
	if err != nil {
		c.logger.Warn("simulation snapshot encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, raw, simulationTTL).Err(); err != nil {
		c.logger.Warn("simulation snapshot write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate 主动失效（例如代币进黑名单后）
func (c *AssessmentCache) Invalidate(ctx context.Context, chain, token string) {
	key := utils.AssessmentKey(chain, token)
	c.local.Delete(key)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("assessment cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}

func fresh(a *model.RiskAssessment) bool {
	return time.Since(a.AssessedAt) <= assessmentTTL
}
