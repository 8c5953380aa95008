package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"web3-trader/internal/engine/config"
	"web3-trader/internal/engine/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testTrading() config.TradingConfig {
	return config.TradingConfig{
		SafeMode:       false,
		BlockScore:     3.0,
		SafeModeScore:  6.0,
		ProposalTTLSec: 120,
	}
}

func newBuyProposal(score float64) *model.TradeProposal {
	return &model.TradeProposal{
		Requester: "user-1",
		Chain:     model.ChainBSC,
		Side:      model.SideBuy,
		Token:     model.TokenIdentity{Chain: model.ChainBSC, Address: "0xabc", Symbol: "TEST"},
		Amount:    decimal.NewFromInt(50),
		Slippage:  decimal.NewFromFloat(0.05),
		Assessment: &model.RiskAssessment{
			Score: score,
			Level: model.LevelFor(score, model.DefaultBoundaries()),
		},
	}
}

func TestConfirmHappyPath(t *testing.T) {
	g := NewGate(testTrading(), zap.NewNop())

	var confirmed *model.TradeProposal
	g.OnConfirmed(func(ctx context.Context, p *model.TradeProposal) { confirmed = p })

	p := g.Submit(newBuyProposal(9.0))
	require.NotEmpty(t, p.ID)
	require.Equal(t, model.ProposalProposed, p.Status)

	got, err := g.Confirm(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalConfirmed, got.Status)
	require.NotNil(t, confirmed)
	assert.Equal(t, p.ID, confirmed.ID)
}

func TestConfirmUnknownProposal(t *testing.T) {
	g := NewGate(testTrading(), zap.NewNop())
	_, err := g.Confirm(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrProposalNotFound)
}

func TestConfirmAfterCancelRejected(t *testing.T) {
	g := NewGate(testTrading(), zap.NewNop())
	p := g.Submit(newBuyProposal(9.0))

	_, err := g.Cancel(p.ID)
	require.NoError(t, err)

	_, err = g.Confirm(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrProposalNotPending)
}

func TestConfirmExpiredProposal(t *testing.T) {
	trading := testTrading()
	trading.ProposalTTLSec = 1
	g := NewGate(trading, zap.NewNop())

	p := g.Submit(newBuyProposal(9.0))
	p.CreatedAt = time.Now().Add(-2 * time.Second)

	_, err := g.Confirm(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrProposalNotPending)
	assert.Equal(t, model.ProposalExpired, p.Status)
}

func TestConfirmBlockedByScore(t *testing.T) {
	g := NewGate(testTrading(), zap.NewNop())
	p := g.Submit(newBuyProposal(2.0)) // 低于 BlockScore 3.0

	_, err := g.Confirm(context.Background(), p.ID)
	require.ErrorIs(t, err, model.ErrPolicyBlocked)

	var pe *model.PolicyError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2.0, pe.Score)
	assert.Equal(t, 3.0, pe.Threshold)
}

func TestSafeModeRaisesThreshold(t *testing.T) {
	trading := testTrading()
	trading.SafeMode = true
	g := NewGate(trading, zap.NewNop())

	// 4.5 过普通门槛但不过 safe-mode 门槛 6.0
	p := g.Submit(newBuyProposal(4.5))
	_, err := g.Confirm(context.Background(), p.ID)
	assert.ErrorIs(t, err, model.ErrPolicyBlocked)
}

func TestSellExemptFromScoreGate(t *testing.T) {
	trading := testTrading()
	trading.SafeMode = true
	g := NewGate(trading, zap.NewNop())

	p := newBuyProposal(0.5)
	p.Side = model.SideSell
	g.Submit(p)

	// 卖出是逃生通道，分数再低也放行
	_, err := g.Confirm(context.Background(), p.ID)
	assert.NoError(t, err)
}

func TestConfirmExpireMutualExclusion(t *testing.T) {
	trading := testTrading()
	trading.ProposalTTLSec = 1
	g := NewGate(trading, zap.NewNop())

	for i := 0; i < 50; i++ {
		p := g.Submit(newBuyProposal(9.0))
		p.CreatedAt = time.Now().Add(-990 * time.Millisecond)

		var wg sync.WaitGroup
		var confirmErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, confirmErr = g.Confirm(context.Background(), p.ID)
		}()
		go func() {
			defer wg.Done()
			g.sweep()
		}()
		wg.Wait()

		if confirmErr == nil {
			assert.Equal(t, model.ProposalConfirmed, p.Status)
		} else {
			assert.Contains(t, []model.ProposalStatus{model.ProposalExpired, model.ProposalProposed}, p.Status)
		}
		// 绝不允许既确认又过期之外的第三种组合
		assert.NotEqual(t, "", string(p.Status))
	}
}

func TestPendingListsOnlyProposed(t *testing.T) {
	g := NewGate(testTrading(), zap.NewNop())
	p1 := g.Submit(newBuyProposal(9.0))
	p2 := g.Submit(newBuyProposal(9.0))

	_, err := g.Cancel(p2.ID)
	require.NoError(t, err)

	pending := g.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, p1.ID, pending[0].ID)
}
