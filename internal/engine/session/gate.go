package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"web3-trader/internal/engine/config"
	"web3-trader/internal/engine/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrProposalNotFound 提案不存在或已被清理
	ErrProposalNotFound = errors.New("proposal not found")
	// ErrProposalNotPending 提案已离开 PROPOSED 状态
	ErrProposalNotPending = errors.New("proposal not pending")
)

// Gate 交易确认闸门。提案在 TTL 窗口内等待人工确认，
// 确认与过期在同一把锁下互斥：同一提案绝不可能既被确认又被过期
type Gate struct {
	mu        sync.Mutex
	proposals map[string]*model.TradeProposal

	trading config.TradingConfig
	logger  *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup

	// 确认成功后的回调，由 core 接到 executor
	onConfirmed func(ctx context.Context, p *model.TradeProposal)
	onExpired   func(p *model.TradeProposal)
}

func NewGate(trading config.TradingConfig, logger *zap.Logger) *Gate {
	return &Gate{
		proposals: make(map[string]*model.TradeProposal),
		trading:   trading,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

// OnConfirmed 注册确认回调
func (g *Gate) OnConfirmed(fn func(ctx context.Context, p *model.TradeProposal)) {
	g.onConfirmed = fn
}

// OnExpired 注册过期回调（用于通知）
func (g *Gate) OnExpired(fn func(p *model.TradeProposal)) {
	g.onExpired = fn
}

// Start 启动过期清扫
func (g *Gate) Start() {
	g.wg.Add(1)
	go g.sweepLoop()
}

func (g *Gate) Stop() {
	close(g.stopCh)
	g.wg.Wait()
}

// Submit 登记新提案，进入确认等待窗口
func (g *Gate) Submit(p *model.TradeProposal) *model.TradeProposal {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Status = model.ProposalProposed
	p.CreatedAt = time.Now()

	g.mu.Lock()
	g.proposals[p.ID] = p
	g.mu.Unlock()

	g.logger.Info("⌛ proposal awaiting confirmation",
		zap.String("id", p.ID),
		zap.String("side", string(p.Side)),
		zap.String("token", p.Token.Key()),
		zap.String("amount", p.Amount.String()),
	)
	return p
}

// Get 查询提案
func (g *Gate) Get(id string) (*model.TradeProposal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.proposals[id]
	if !ok {
		return nil, ErrProposalNotFound
	}
	return p, nil
}

// Pending 当前等待确认的提案
func (g *Gate) Pending() []*model.TradeProposal {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*model.TradeProposal, 0, len(g.proposals))
	for _, p := range g.proposals {
		if p.Status == model.ProposalProposed {
			out = append(out, p)
		}
	}
	return out
}

// Confirm 确认提案。TTL 内且仍为 PROPOSED 才放行；
// safe-mode 下确认时再验一次分数门槛，评估过期的风险不转嫁给执行
func (g *Gate) Confirm(ctx context.Context, id string) (*model.TradeProposal, error) {
	g.mu.Lock()
	p, ok := g.proposals[id]
	if !ok {
		g.mu.Unlock()
		return nil, ErrProposalNotFound
	}
	if p.Status != model.ProposalProposed {
		g.mu.Unlock()
		return nil, fmt.Errorf("%w: %s is %s", ErrProposalNotPending, id, p.Status)
	}
	if g.expired(p) {
		p.Status = model.ProposalExpired
		g.mu.Unlock()
		return nil, fmt.Errorf("%w: %s expired", ErrProposalNotPending, id)
	}

	if err := g.policyCheck(p); err != nil {
		g.mu.Unlock()
		return nil, err
	}

	p.Status = model.ProposalConfirmed
	g.mu.Unlock()

	g.logger.Info("✅ proposal confirmed", zap.String("id", p.ID), zap.String("token", p.Token.Key()))
	if g.onConfirmed != nil {
		g.onConfirmed(ctx, p)
	}
	return p, nil
}

// Cancel 主动取消提案
func (g *Gate) Cancel(id string) (*model.TradeProposal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.proposals[id]
	if !ok {
		return nil, ErrProposalNotFound
	}
	if p.Status != model.ProposalProposed {
		return nil, fmt.Errorf("%w: %s is %s", ErrProposalNotPending, id, p.Status)
	}
	p.Status = model.ProposalCancelled
	return p, nil
}

// policyCheck 确认时点的策略复核。镜像卖出豁免分数门槛：
// 持有问题代币时，卖出是唯一的逃生通道
func (g *Gate) policyCheck(p *model.TradeProposal) error {
	if p.Side == model.SideSell {
		return nil
	}
	if p.Assessment == nil {
		return &model.PolicyError{Token: p.Token, Threshold: g.trading.BlockScore}
	}

	threshold := g.trading.BlockScore
	if g.trading.SafeMode && threshold < g.trading.SafeModeScore {
		threshold = g.trading.SafeModeScore
	}
	if p.Assessment.Score < threshold {
		return &model.PolicyError{
			Token:     p.Token,
			Score:     p.Assessment.Score,
			Threshold: threshold,
			Level:     p.Assessment.Level,
			Factors:   p.Assessment.Factors,
		}
	}
	return nil
}

func (g *Gate) expired(p *model.TradeProposal) bool {
	ttl := time.Duration(g.trading.ProposalTTLSec) * time.Second
	return time.Since(p.CreatedAt) > ttl
}

func (g *Gate) sweepLoop() {
	defer g.wg.Done()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopCh:
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

// sweep 过期清扫。过期与确认持同一把锁，二者互斥
func (g *Gate) sweep() {
	var expired []*model.TradeProposal
	cutoff := time.Now().Add(-24 * time.Hour)

	g.mu.Lock()
	for id, p := range g.proposals {
		if p.Status == model.ProposalProposed && g.expired(p) {
			p.Status = model.ProposalExpired
			expired = append(expired, p)
		}
		// 终态提案保留一天供查询，之后清理
		if p.Status != model.ProposalProposed && p.CreatedAt.Before(cutoff) {
			delete(g.proposals, id)
		}
	}
	g.mu.Unlock()

	for _, p := range expired {
		g.logger.Info("proposal expired", zap.String("id", p.ID), zap.String("token", p.Token.Key()))
		if g.onExpired != nil {
			g.onExpired(p)
		}
	}
}
