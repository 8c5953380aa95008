package mirror

import (
	"context"
	"testing"
	"time"

	"web3-trader/internal/engine/config"
	"web3-trader/internal/engine/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	wallets []model.TrackedWallet
	tokens  []model.BlacklistedToken
}

func (f *fakeSource) ListTrackedWallets(ctx context.Context) ([]model.TrackedWallet, error) {
	return f.wallets, nil
}
func (f *fakeSource) ListBlacklistedTokens(ctx context.Context) ([]model.BlacklistedToken, error) {
	return f.tokens, nil
}

type fakePositions struct {
	position *model.Position
}

func (f *fakePositions) GetPosition(ctx context.Context, chain, token string) (*model.Position, error) {
	return f.position, nil
}

func defaultTrading() config.TradingConfig {
	return config.TradingConfig{
		MirrorSellEnabled: true,
		MirrorBuyEnabled:  false,
		MaxAutoBuyUSD:     50,
		MaxPositionUSD:    500,
		MaxSlippage:       0.05,
	}
}

func testRegistry(t *testing.T, source *fakeSource) *Registry {
	t.Helper()
	r := NewRegistry(source, time.Minute, zap.NewNop())
	require.NoError(t, r.reload(context.Background()))
	return r
}

func sellSignal(tx string) *model.MirrorSignal {
	return &model.MirrorSignal{
		SourceWallet: "0xWhale",
		Side:         model.SideSell,
		Token:        model.TokenIdentity{Chain: model.ChainBSC, Address: "0xtoken", Symbol: "TEST"},
		AmountUSD:    decimal.NewFromInt(1200),
		TxHash:       tx,
		DiscoveredAt: time.Now(),
	}
}

func newProcessor(t *testing.T, trading config.TradingConfig, positions *fakePositions, source *fakeSource) (*Processor, *[]string, *[]*model.TradeProposal) {
	t.Helper()
	p := NewProcessor(testRegistry(t, source), positions, trading, zap.NewNop())

	var alerts []string
	var proposals []*model.TradeProposal
	p.OnAlert(func(s *model.MirrorSignal, reason string) { alerts = append(alerts, reason) })
	p.OnPropose(func(ctx context.Context, proposal *model.TradeProposal) error {
		proposals = append(proposals, proposal)
		return nil
	})
	return p, &alerts, &proposals
}

func trackedSource() *fakeSource {
	return &fakeSource{
		wallets: []model.TrackedWallet{
			{Chain: model.ChainBSC, Address: "0xwhale", Label: "whale-1"},
		},
	}
}

func TestUntrackedWalletDropped(t *testing.T) {
	p, alerts, proposals := newProcessor(t, defaultTrading(), &fakePositions{}, &fakeSource{})

	v := p.Process(context.Background(), sellSignal("0x1"))
	assert.Equal(t, VerdictUntracked, v)
	assert.Empty(t, *alerts)
	assert.Empty(t, *proposals)
}

func TestBlacklistedWalletDropped(t *testing.T) {
	source := &fakeSource{
		wallets: []model.TrackedWallet{
			{Chain: model.ChainBSC, Address: "0xwhale", Blacklist: true},
		},
	}
	p, _, proposals := newProcessor(t, defaultTrading(), &fakePositions{}, source)

	v := p.Process(context.Background(), sellSignal("0x1"))
	assert.Equal(t, VerdictWalletBlacklisted, v)
	assert.Empty(t, *proposals)
}

func TestBlacklistedTokenDropped(t *testing.T) {
	source := trackedSource()
	source.tokens = []model.BlacklistedToken{{Chain: model.ChainBSC, Address: "0xtoken"}}
	p, _, proposals := newProcessor(t, defaultTrading(), &fakePositions{}, source)

	v := p.Process(context.Background(), sellSignal("0x1"))
	assert.Equal(t, VerdictTokenBlacklisted, v)
	assert.Empty(t, *proposals)
}

func TestDuplicateSignalDropped(t *testing.T) {
	positions := &fakePositions{position: &model.Position{
		Requester: "user-1",
		Amount:    decimal.NewFromInt(1000),
	}}
	p, _, proposals := newProcessor(t, defaultTrading(), positions, trackedSource())

	first := p.Process(context.Background(), sellSignal("0xsame"))
	second := p.Process(context.Background(), sellSignal("0xsame"))

	assert.Equal(t, VerdictProposed, first)
	assert.Equal(t, VerdictDuplicate, second)
	assert.Len(t, *proposals, 1)
}

func TestMirrorSellProposesFullExit(t *testing.T) {
	positions := &fakePositions{position: &model.Position{
		Requester: "user-1",
		Amount:    decimal.NewFromInt(1000),
		CostUSD:   decimal.NewFromInt(200),
	}}
	p, _, proposals := newProcessor(t, defaultTrading(), positions, trackedSource())

	v := p.Process(context.Background(), sellSignal("0x1"))
	require.Equal(t, VerdictProposed, v)
	require.Len(t, *proposals, 1)

	prop := (*proposals)[0]
	assert.Equal(t, model.SideSell, prop.Side)
	assert.True(t, prop.Amount.Equal(decimal.NewFromInt(100)), "sell percent = %s", prop.Amount)
	assert.True(t, prop.Mirrored)
	assert.Equal(t, "0xWhale", prop.SourceWallet)
	assert.Equal(t, "user-1", prop.Requester)
}

func TestMirrorSellWithoutPositionAlertsOnly(t *testing.T) {
	p, alerts, proposals := newProcessor(t, defaultTrading(), &fakePositions{}, trackedSource())

	v := p.Process(context.Background(), sellSignal("0x1"))
	assert.Equal(t, VerdictNoPosition, v)
	assert.Len(t, *alerts, 1)
	assert.Empty(t, *proposals)
}

func TestBuyDefaultsToAlertOnly(t *testing.T) {
	p, alerts, proposals := newProcessor(t, defaultTrading(), &fakePositions{}, trackedSource())

	signal := sellSignal("0x1")
	signal.Side = model.SideBuy

	v := p.Process(context.Background(), signal)
	assert.Equal(t, VerdictAlertOnly, v)
	assert.Len(t, *alerts, 1)
	assert.Empty(t, *proposals)
}

func TestBuyCappedWhenEnabled(t *testing.T) {
	trading := defaultTrading()
	trading.MirrorBuyEnabled = true
	p, _, proposals := newProcessor(t, trading, &fakePositions{}, trackedSource())

	signal := sellSignal("0x1")
	signal.Side = model.SideBuy
	signal.AmountUSD = decimal.NewFromInt(10000)

	v := p.Process(context.Background(), signal)
	require.Equal(t, VerdictProposed, v)
	require.Len(t, *proposals, 1)
	// 跟买金额钳制到单笔上限
	assert.True(t, (*proposals)[0].Amount.Equal(decimal.NewFromInt(50)))
}

func TestBuyRespectsPositionCap(t *testing.T) {
	trading := defaultTrading()
	trading.MirrorBuyEnabled = true
	positions := &fakePositions{position: &model.Position{
		Requester: "user-1",
		Amount:    decimal.NewFromInt(5),
		CostUSD:   decimal.NewFromInt(480), // 距离 500 上限只剩 20
	}}
	p, _, proposals := newProcessor(t, trading, positions, trackedSource())

	signal := sellSignal("0x1")
	signal.Side = model.SideBuy
	signal.AmountUSD = decimal.NewFromInt(50)

	v := p.Process(context.Background(), signal)
	require.Equal(t, VerdictProposed, v)
	assert.True(t, (*proposals)[0].Amount.Equal(decimal.NewFromInt(20)))

	// 上限打满后只告警
	positions.position.CostUSD = decimal.NewFromInt(500)
	signal2 := sellSignal("0x2")
	signal2.Side = model.SideBuy
	v = p.Process(context.Background(), signal2)
	assert.Equal(t, VerdictAlertOnly, v)
}
