package executor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"web3-trader/internal/engine/chain"
	"web3-trader/internal/engine/config"
	"web3-trader/internal/engine/keyring"
	"web3-trader/internal/engine/model"
	"web3-trader/internal/engine/quote"

	"go.uber.org/zap"
)

var (
	// ErrAlreadyRunning 同一提案同时只允许一次执行
	ErrAlreadyRunning = errors.New("execution already running for proposal")
)

// 重试退避基数，指数增长
const backoffBase = 500 * time.Millisecond

// Order 已确认、金额已折算成链上最小单位的执行单
type Order struct {
	Proposal  *model.TradeProposal
	SellToken string
	BuyToken  string
	Amount    *big.Int
}

// Executor 交易执行器。每次执行走固定状态机
// QUOTING -> BUILDING -> SIGNING -> BROADCASTING -> CONFIRMING，
// 失败按类型决定重试：限流/基础设施退避重试，无路由/确认超时立即终态。
// 签名 key 在单次尝试内借出，签完立即归还抹零
type Executor struct {
	registry *chain.Registry
	quotes   quote.Provider
	keys     *keyring.Keyring
	trading  config.TradingConfig
	logger   *zap.Logger

	mu       sync.Mutex
	inflight map[string]struct{}

	backoff    time.Duration
	onFinished func(*model.TradeExecution)
}

func NewExecutor(registry *chain.Registry, quotes quote.Provider, keys *keyring.Keyring, trading config.TradingConfig, logger *zap.Logger) *Executor {
	return &Executor{
		registry: registry,
		quotes:   quotes,
		keys:     keys,
		trading:  trading,
		logger:   logger,
		inflight: make(map[string]struct{}),
		backoff:  backoffBase,
	}
}

// OnFinished 注册终态回调（落库、告警）
func (e *Executor) OnFinished(fn func(*model.TradeExecution)) {
	e.onFinished = fn
}

// Execute 执行一个已确认的交易单。同一提案并发调用只有一个会真正执行
func (e *Executor) Execute(ctx context.Context, order Order) (*model.TradeExecution, error) {
	e.mu.Lock()
	if _, running := e.inflight[order.Proposal.ID]; running {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, order.Proposal.ID)
	}
	e.inflight[order.Proposal.ID] = struct{}{}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.inflight, order.Proposal.ID)
		e.mu.Unlock()
	}()

	exec := &model.TradeExecution{
		Proposal:  order.Proposal,
		Status:    model.ExecRunning,
		StartedAt: time.Now(),
	}

	adapter, err := e.registry.Get(order.Proposal.Chain)
	if err != nil {
		e.finish(exec, model.ExecAborted, model.FailInfra)
		return exec, err
	}

	maxAttempts := e.trading.MaxAttempts
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		retryable, err := e.attempt(ctx, exec, adapter, order, attempt)
		if err == nil {
			e.finish(exec, model.ExecSuccess, "")
			return exec, nil
		}
		if !retryable || attempt == maxAttempts {
			e.finish(exec, model.ExecFailed, failKind(err))
			return exec, err
		}

		backoff := e.backoff * time.Duration(1<<(attempt-1))
		e.logger.Warn("attempt failed, backing off",
			zap.String("proposal", order.Proposal.ID),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			e.finish(exec, model.ExecAborted, model.FailInfra)
			return exec, ctx.Err()
		case <-time.After(backoff):
		}
	}

	// unreachable
	return exec, nil
}

// attempt 单次尝试走完整个状态机。返回 (是否可重试, 错误)
func (e *Executor) attempt(ctx context.Context, exec *model.TradeExecution, adapter chain.Adapter, order Order, attempt int) (bool, error) {
	rec := model.AttemptRecord{Attempt: attempt, State: model.StateQuoting}
	fail := func(retryable bool, err error) (bool, error) {
		rec.Error = err.Error()
		exec.AppendAttempt(rec)
		return retryable, err
	}

	// 借 key：报价 taker、构建 from、签名共用同一身份
	borrowed, err := e.keys.Acquire(order.Proposal.Chain)
	if err != nil {
		return fail(false, err)
	}
	released := false
	release := func() {
		if !released {
			borrowed.Release()
			released = true
		}
	}
	defer release()

	// QUOTING
	q, err := e.quotes.GetQuote(ctx, quote.Request{
		Chain:     order.Proposal.Chain,
		SellToken: order.SellToken,
		BuyToken:  order.BuyToken,
		Amount:    order.Amount,
		Slippage:  order.Proposal.Slippage,
		Taker:     borrowed.Address,
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInsufficientLiquidity):
			return fail(false, err)
		case errors.Is(err, model.ErrRateLimited):
			return fail(true, err)
		default:
			return fail(true, err)
		}
	}
	rec.QuotePrice = q.Price
	rec.QuoteExpiry = q.ExpiresAt

	// BUILDING
	rec.State = model.StateBuilding
	prepared, err := adapter.BuildSwapTx(ctx, q, borrowed.Address)
	if err != nil {
		return fail(true, err)
	}
	rec.GasParams = prepared.GasParams

	// 报价在构建期间过期则整轮重来，不拿过期价格上链
	if q.Expired() {
		return fail(true, fmt.Errorf("%w: quote expired before signing", model.ErrQuoteUnavailable))
	}

	// SIGNING：key 材料只在这一步可见，签完立即归还
	rec.State = model.StateSigning
	signed, err := adapter.SignTx(ctx, prepared, borrowed.Material())
	release()
	if err != nil {
		e.keys.MarkFailure(borrowed.ID)
		return fail(false, err)
	}

	// BROADCASTING
	rec.State = model.StateBroadcasting
	txHash, err := adapter.Broadcast(ctx, signed)
	if err != nil {
		e.keys.MarkFailure(borrowed.ID)
		return fail(true, err)
	}
	rec.TxHash = txHash
	exec.TxHash = txHash
	e.keys.MarkSuccess(borrowed.ID)

	e.logger.Info("tx broadcast",
		zap.String("proposal", order.Proposal.ID),
		zap.String("tx", txHash),
		zap.Int("attempt", attempt),
	)

	// CONFIRMING
	rec.State = model.StateConfirming
	receipt, err := adapter.WaitReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, model.ErrExecutionTimeout) {
			// 资金去向不明，绝不能重试：重试可能重复成交
			rec.ReceiptStatus = "timeout"
			return fail(false, err)
		}
		return fail(false, err)
	}
	if receipt.Reverted {
		rec.ReceiptStatus = "reverted"
		return fail(true, fmt.Errorf("%w: tx %s", model.ErrExecutionReverted, txHash))
	}

	rec.ReceiptStatus = "confirmed"
	exec.AppendAttempt(rec)
	return false, nil
}

func (e *Executor) finish(exec *model.TradeExecution, status model.ExecStatus, kind model.FailKind) {
	exec.Status = status
	exec.Kind = kind
	exec.EndedAt = time.Now()

	switch status {
	case model.ExecSuccess:
		e.logger.Info("✅ execution confirmed",
			zap.String("proposal", exec.Proposal.ID),
			zap.String("tx", exec.TxHash),
			zap.Int("attempts", len(exec.Attempts)),
		)
	default:
		e.logger.Error("❌ execution finished without success",
			zap.String("proposal", exec.Proposal.ID),
			zap.String("status", string(status)),
			zap.String("kind", string(kind)),
		)
	}

	if e.onFinished != nil {
		e.onFinished(exec)
	}
}

// failKind 错误到失败分类的映射，超时与 revert 必须区分上报
func failKind(err error) model.FailKind {
	switch {
	case errors.Is(err, model.ErrExecutionTimeout):
		return model.FailTimeout
	case errors.Is(err, model.ErrExecutionReverted):
		return model.FailReverted
	case errors.Is(err, model.ErrInsufficientLiquidity):
		return model.FailNoRoute
	case errors.Is(err, model.ErrRateLimited):
		return model.FailRateLimited
	default:
		return model.FailInfra
	}
}
