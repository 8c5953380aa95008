package executor

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"web3-trader/internal/engine/chain"
	"web3-trader/internal/engine/config"
	"web3-trader/internal/engine/keyring"
	"web3-trader/internal/engine/model"
	"web3-trader/internal/engine/quote"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

// fakeQuotes 按调用顺序返回预设结果
type fakeQuotes struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (f *fakeQuotes) GetQuote(ctx context.Context, req quote.Request) (*quote.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	now := time.Now()
	return &quote.Quote{
		Chain:      req.Chain,
		SellToken:  req.SellToken,
		BuyToken:   req.BuyToken,
		SellAmount: req.Amount,
		BuyAmount:  big.NewInt(1000),
		Price:      decimal.NewFromFloat(0.5),
		FetchedAt:  now,
		ExpiresAt:  now.Add(30 * time.Second),
	}, nil
}

// fakeAdapter 可编程的链适配器
type fakeAdapter struct {
	mu            sync.Mutex
	broadcastErrs []error
	receipts      []receiptOutcome
	broadcasts    int
}

type receiptOutcome struct {
	receipt *chain.Receipt
	err     error
}

func (f *fakeAdapter) Chain() string              { return model.ChainBSC }
func (f *fakeAdapter) Params() config.ChainConfig { return config.ChainConfig{ChainID: 56} }
func (f *fakeAdapter) Balance(ctx context.Context, addr string) (*big.Int, error) {
	return new(big.Int), nil
}
func (f *fakeAdapter) Nonce(ctx context.Context, addr string) (uint64, error) { return 7, nil }
func (f *fakeAdapter) FeeEstimate(ctx context.Context) (*chain.FeeEstimate, error) {
	return &chain.FeeEstimate{EIP1559: false, GasPrice: big.NewInt(3_000_000_000)}, nil
}
func (f *fakeAdapter) SimulateCall(ctx context.Context, call chain.SimCall) (*chain.SimOutcome, error) {
	return &chain.SimOutcome{Success: true}, nil
}
func (f *fakeAdapter) BuildSwapTx(ctx context.Context, q *quote.Quote, from string) (*chain.PreparedTx, error) {
	return &chain.PreparedTx{Chain: model.ChainBSC, GasParams: "gasPrice=3000000000"}, nil
}
func (f *fakeAdapter) SignTx(ctx context.Context, tx *chain.PreparedTx, key []byte) (*chain.SignedTx, error) {
	return &chain.SignedTx{Chain: model.ChainBSC, Hash: "0xsigned"}, nil
}
func (f *fakeAdapter) Broadcast(ctx context.Context, tx *chain.SignedTx) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts++
	if len(f.broadcastErrs) > 0 {
		err := f.broadcastErrs[0]
		f.broadcastErrs = f.broadcastErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return "0xbroadcast", nil
}
func (f *fakeAdapter) WaitReceipt(ctx context.Context, txHash string) (*chain.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.receipts) > 0 {
		out := f.receipts[0]
		f.receipts = f.receipts[1:]
		return out.receipt, out.err
	}
	return &chain.Receipt{TxHash: txHash, Confirmed: true, BlockNumber: 100}, nil
}

func newTestExecutor(t *testing.T, adapter chain.Adapter, quotes quote.Provider) *Executor {
	t.Helper()
	keys, err := keyring.New(map[string][]string{model.ChainBSC: {testKey}}, zap.NewNop())
	require.NoError(t, err)

	e := NewExecutor(
		chain.NewRegistry(adapter),
		quotes,
		keys,
		config.TradingConfig{MaxAttempts: 3},
		zap.NewNop(),
	)
	e.backoff = time.Millisecond
	return e
}

func testOrder() Order {
	return Order{
		Proposal: &model.TradeProposal{
			ID:       "prop-1",
			Chain:    model.ChainBSC,
			Side:     model.SideBuy,
			Token:    model.TokenIdentity{Chain: model.ChainBSC, Address: "0xabc"},
			Slippage: decimal.NewFromFloat(0.05),
			Status:   model.ProposalConfirmed,
		},
		SellToken: "0xwbnb",
		BuyToken:  "0xabc",
		Amount:    big.NewInt(1e15),
	}
}

func TestExecuteSuccessFirstAttempt(t *testing.T) {
	e := newTestExecutor(t, &fakeAdapter{}, &fakeQuotes{})

	exec, err := e.Execute(context.Background(), testOrder())
	require.NoError(t, err)

	assert.Equal(t, model.ExecSuccess, exec.Status)
	assert.Equal(t, "0xbroadcast", exec.TxHash)
	require.Len(t, exec.Attempts, 1)
	assert.Equal(t, model.StateConfirming, exec.Attempts[0].State)
	assert.Equal(t, "confirmed", exec.Attempts[0].ReceiptStatus)
	assert.True(t, exec.Terminal())
}

func TestExecuteNoRouteFailsFast(t *testing.T) {
	quotes := &fakeQuotes{errs: []error{model.ErrInsufficientLiquidity}}
	e := newTestExecutor(t, &fakeAdapter{}, quotes)

	exec, err := e.Execute(context.Background(), testOrder())
	require.ErrorIs(t, err, model.ErrInsufficientLiquidity)

	assert.Equal(t, model.ExecFailed, exec.Status)
	assert.Equal(t, model.FailNoRoute, exec.Kind)
	// 无路由不消耗重试额度
	assert.Equal(t, 1, quotes.calls)
}

func TestExecuteRetriesRateLimit(t *testing.T) {
	quotes := &fakeQuotes{errs: []error{model.ErrRateLimited, nil}}
	e := newTestExecutor(t, &fakeAdapter{}, quotes)

	exec, err := e.Execute(context.Background(), testOrder())
	require.NoError(t, err)

	assert.Equal(t, model.ExecSuccess, exec.Status)
	assert.Equal(t, 2, quotes.calls)
	require.Len(t, exec.Attempts, 2)
	assert.Equal(t, model.StateQuoting, exec.Attempts[0].State)
}

func TestExecuteBroadcastRateLimitedThenSucceeds(t *testing.T) {
	adapter := &fakeAdapter{
		broadcastErrs: []error{model.ErrRateLimited, model.ErrRateLimited, nil},
	}
	e := newTestExecutor(t, adapter, &fakeQuotes{})

	exec, err := e.Execute(context.Background(), testOrder())
	require.NoError(t, err)

	assert.Equal(t, model.ExecSuccess, exec.Status)
	assert.Equal(t, "0xbroadcast", exec.TxHash)
	assert.Equal(t, 3, adapter.broadcasts)

	// 每次被限流的尝试都留下广播态记录，第三次走到确认
	require.Len(t, exec.Attempts, 3)
	assert.Equal(t, model.StateBroadcasting, exec.Attempts[0].State)
	assert.Equal(t, model.StateBroadcasting, exec.Attempts[1].State)
	assert.Equal(t, model.StateConfirming, exec.Attempts[2].State)
	assert.Equal(t, "confirmed", exec.Attempts[2].ReceiptStatus)
}

func TestExecuteTimeoutNeverRetries(t *testing.T) {
	adapter := &fakeAdapter{
		receipts: []receiptOutcome{{err: model.ErrExecutionTimeout}},
	}
	e := newTestExecutor(t, adapter, &fakeQuotes{})

	exec, err := e.Execute(context.Background(), testOrder())
	require.ErrorIs(t, err, model.ErrExecutionTimeout)

	assert.Equal(t, model.ExecFailed, exec.Status)
	assert.Equal(t, model.FailTimeout, exec.Kind)
	// 资金去向不明时绝不能再广播
	assert.Equal(t, 1, adapter.broadcasts)
}

func TestExecuteRevertedRetriesUpToLimit(t *testing.T) {
	adapter := &fakeAdapter{
		receipts: []receiptOutcome{
			{receipt: &chain.Receipt{TxHash: "0x1", Reverted: true}},
			{receipt: &chain.Receipt{TxHash: "0x2", Reverted: true}},
			{receipt: &chain.Receipt{TxHash: "0x3", Reverted: true}},
		},
	}
	e := newTestExecutor(t, adapter, &fakeQuotes{})

	exec, err := e.Execute(context.Background(), testOrder())
	require.ErrorIs(t, err, model.ErrExecutionReverted)

	assert.Equal(t, model.ExecFailed, exec.Status)
	assert.Equal(t, model.FailReverted, exec.Kind)
	assert.Equal(t, 3, adapter.broadcasts)
	assert.Len(t, exec.Attempts, 3)
}

func TestExecuteRejectsConcurrentSameProposal(t *testing.T) {
	e := newTestExecutor(t, &fakeAdapter{}, &fakeQuotes{})

	e.mu.Lock()
	e.inflight["prop-1"] = struct{}{}
	e.mu.Unlock()

	_, err := e.Execute(context.Background(), testOrder())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestFailKindMapping(t *testing.T) {
	assert.Equal(t, model.FailTimeout, failKind(model.ErrExecutionTimeout))
	assert.Equal(t, model.FailReverted, failKind(model.ErrExecutionReverted))
	assert.Equal(t, model.FailNoRoute, failKind(model.ErrInsufficientLiquidity))
	assert.Equal(t, model.FailRateLimited, failKind(model.ErrRateLimited))
	assert.Equal(t, model.FailInfra, failKind(context.Canceled))
}
