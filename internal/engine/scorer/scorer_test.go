package scorer

import (
	"testing"
	"time"

	"web3-trader/internal/engine/model"
	"web3-trader/pkg/dexscreener"
	"web3-trader/pkg/goplus"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestScorer() *Scorer {
	return NewScorer(model.DefaultBoundaries(), 10000, zap.NewNop())
}

func cleanSim() *model.SimulationResult {
	return &model.SimulationResult{
		Token: model.TokenIdentity{Chain: model.ChainBSC, Address: "0xabc", Symbol: "TEST"},
		Scenarios: map[model.Scenario]model.ScenarioResult{
			model.ScenarioBuy:      {Scenario: model.ScenarioBuy, Outcome: model.OutcomeSuccess},
			model.ScenarioSell:     {Scenario: model.ScenarioSell, Outcome: model.OutcomeSuccess},
			model.ScenarioTransfer: {Scenario: model.ScenarioTransfer, Outcome: model.OutcomeSuccess},
		},
		SimulatedAt: time.Now(),
	}
}

func healthyMarket() *dexscreener.TokenMarket {
	return &dexscreener.TokenMarket{
		Symbol:       "TEST",
		PriceUSD:     decimal.NewFromFloat(0.5),
		LiquidityUSD: 250000,
	}
}

func cleanScan() *goplus.SecurityScan {
	return &goplus.SecurityScan{IsOpenSource: true}
}

func TestScoreCleanToken(t *testing.T) {
	a := newTestScorer().Score(cleanSim(), cleanScan(), healthyMarket())

	if a.Score != 10.0 {
		t.Errorf("score = %v, want 10.0", a.Score)
	}
	if a.Level != model.LevelSafe {
		t.Errorf("level = %s, want SAFE", a.Level)
	}
	if len(a.Factors) != 0 {
		t.Errorf("factors = %+v, want none", a.Factors)
	}
	if !a.LockedPriceUSD.Equal(decimal.NewFromFloat(0.5)) {
		t.Errorf("locked price = %s", a.LockedPriceUSD)
	}
}

func TestScoreSellRevertPinsCritical(t *testing.T) {
	sim := cleanSim()
	sim.Scenarios[model.ScenarioSell] = model.ScenarioResult{
		Scenario:     model.ScenarioSell,
		Outcome:      model.OutcomeReverted,
		RevertTag:    "SELL_BLOCKED",
		RevertReason: "TRANSFER_FROM_FAILED",
	}

	// 其余信号再好也救不回来
	a := newTestScorer().Score(sim, cleanScan(), healthyMarket())

	if a.Score != 0.0 {
		t.Errorf("score = %v, want pinned 0.0", a.Score)
	}
	if a.Level != model.LevelCritical {
		t.Errorf("level = %s, want CRITICAL", a.Level)
	}
	if len(a.Factors) != 1 || a.Factors[0].Weight != 10.0 {
		t.Errorf("factors = %+v", a.Factors)
	}
}

func TestScorePenaltiesAccumulate(t *testing.T) {
	sim := cleanSim()
	sim.Flags = []string{model.FlagMaxTxLimit, model.FlagTradingCooldown}

	scan := cleanScan()
	scan.IsMintable = true

	a := newTestScorer().Score(sim, scan, healthyMarket())

	// 10 - 0.5 - 1.0 - 1.0 = 7.5
	if a.Score != 7.5 {
		t.Errorf("score = %v, want 7.5", a.Score)
	}
	if a.Level != model.LevelLow {
		t.Errorf("level = %s, want LOW", a.Level)
	}
	// 因子按扣分降序
	for i := 1; i < len(a.Factors); i++ {
		if a.Factors[i].Weight > a.Factors[i-1].Weight {
			t.Errorf("factors not sorted: %+v", a.Factors)
		}
	}
}

func TestScoreScanRestrictionFlags(t *testing.T) {
	scan := cleanScan()
	scan.CannotSellAll = true
	scan.CannotBuy = true
	scan.HasBlacklist = true
	scan.TransferPausable = true
	scan.IsAntiWhale = true
	scan.FlaggedFunctions = []string{"blacklist", "pause"}

	// 模拟干净、流动性健康也压不住扫描出的限制函数
	a := newTestScorer().Score(cleanSim(), scan, healthyMarket())

	// 10 - 4.0 - 2.0 - 1.5 - 2.5 - 0.5 = 钉在 0
	if a.Score != 0.0 {
		t.Errorf("score = %v, want 0.0", a.Score)
	}
	if a.Level != model.LevelCritical {
		t.Errorf("level = %s, want CRITICAL", a.Level)
	}
	if len(a.Factors) != 5 {
		t.Errorf("factors = %+v, want 5", a.Factors)
	}
}

func TestScoreScanCooldownAlone(t *testing.T) {
	scan := cleanScan()
	scan.TradingCooldown = true

	a := newTestScorer().Score(cleanSim(), scan, healthyMarket())

	// 10 - 1.0 = 9.0
	if a.Score != 9.0 {
		t.Errorf("score = %v, want 9.0", a.Score)
	}
	if a.Level != model.LevelSafe {
		t.Errorf("level = %s, want SAFE", a.Level)
	}
}

func TestScoreClampedAtZero(t *testing.T) {
	sim := cleanSim()
	sim.Flags = []string{
		model.FlagTransferBlocked, model.FlagPaused, model.FlagTradingNotOpen,
		model.FlagHighTax, model.FlagUnknownRevert, model.FlagBlacklistFunc,
	}
	scan := &goplus.SecurityScan{IsHoneypot: true, IsMintable: true, IsProxy: true}

	a := newTestScorer().Score(sim, scan, nil)
	if a.Score != 0.0 {
		t.Errorf("score = %v, want clamped 0.0", a.Score)
	}
	if a.Level != model.LevelCritical {
		t.Errorf("level = %s", a.Level)
	}
}

func TestScoreMissingSignalsPenalized(t *testing.T) {
	a := newTestScorer().Score(cleanSim(), nil, nil)

	// 10 - 0.5(无扫描) - 1.0(无行情) = 8.5
	if a.Score != 8.5 {
		t.Errorf("score = %v, want 8.5", a.Score)
	}
}

func TestScoreLowLiquidity(t *testing.T) {
	market := healthyMarket()
	market.LiquidityUSD = 4000

	a := newTestScorer().Score(cleanSim(), cleanScan(), market)
	if a.Score != 8.0 {
		t.Errorf("score = %v, want 8.0", a.Score)
	}

	market.LiquidityUSD = 300
	a = newTestScorer().Score(cleanSim(), cleanScan(), market)
	if a.Score != 7.0 {
		t.Errorf("dust liquidity score = %v, want 7.0", a.Score)
	}
}

func TestRecommendationMatchesLevel(t *testing.T) {
	levels := []model.RiskLevel{
		model.LevelSafe, model.LevelLow, model.LevelMedium, model.LevelHigh, model.LevelCritical,
	}
	seen := make(map[string]bool)
	for _, lv := range levels {
		rec := recommendationFor(lv)
		if rec == "" {
			t.Errorf("empty recommendation for %s", lv)
		}
		if seen[rec] {
			t.Errorf("duplicate recommendation %q", rec)
		}
		seen[rec] = true
	}
}
