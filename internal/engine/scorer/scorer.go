package scorer

import (
	"fmt"
	"sort"
	"time"

	"web3-trader/internal/engine/model"
	"web3-trader/pkg/dexscreener"
	"web3-trader/pkg/goplus"

	"go.uber.org/zap"
)

// 固定扣分表。权重是部署策略常量，改权重等于改策略，必须过配置评审，
// 所以集中在这里而不是散落在判断分支里
const (
	penaltyTransferBlocked  = 3.0
	penaltyPaused           = 2.5
	penaltyTradingNotOpen   = 2.0
	penaltyBuyFailedContext = 2.0
	penaltyHighTax          = 2.0
	penaltyUnknownRevert    = 1.5
	penaltyBlacklistFunc    = 1.5
	penaltyCooldown         = 1.0
	penaltyMaxTxLimit       = 0.5
	penaltyMaxWalletLimit   = 0.5

	penaltyScanHoneypot      = 5.0
	penaltyScanCannotSellAll = 4.0
	penaltyScanPausable      = 2.5
	penaltyScanCannotBuy     = 2.0
	penaltyScanBlacklist     = 1.5
	penaltyScanCooldown      = 1.0
	penaltyScanMintable      = 1.0
	penaltyScanProxy         = 1.0
	penaltyScanClosedSource  = 1.0
	penaltyScanAntiWhale     = 0.5
	penaltyConcentration     = 1.5
	penaltyScanMissing       = 0.5

	penaltyLowLiquidity     = 2.0
	penaltyDustLiquidity    = 3.0
	penaltyMarketMissing    = 1.0

	highTaxThreshold       = 0.10
	concentrationThreshold = 0.5
	dustLiquidityUSD       = 1000.0
)

const (
	sourceSimulator = "simulator"
	sourceScan      = "security_scan"
	sourceLiquidity = "liquidity"
)

// Scorer 综合风险评分器。模拟结果、安全扫描、行情三路信号折算成 0-10 分；
// SELL 硬失败一票否决，直接钉死 0 分 CRITICAL
type Scorer struct {
	boundaries      model.LevelBoundaries
	minLiquidityUSD float64
	logger          *zap.Logger
}

func NewScorer(boundaries model.LevelBoundaries, minLiquidityUSD float64, logger *zap.Logger) *Scorer {
	return &Scorer{
		boundaries:      boundaries,
		minLiquidityUSD: minLiquidityUSD,
		logger:          logger,
	}
}

// Score 计算综合评估。scan/market 允许为空（上游不可用），缺失本身计入扣分
func (s *Scorer) Score(sim *model.SimulationResult, scan *goplus.SecurityScan, market *dexscreener.TokenMarket) *model.RiskAssessment {
	now := time.Now()
	assessment := &model.RiskAssessment{
		Token:         sim.Token,
		PriceLockedAt: now,
		AssessedAt:    now,
	}
	if market != nil {
		assessment.LockedPriceUSD = market.PriceUSD
	}

	// 卖不出去没有任何讨价还价余地
	if sim.SellReverted() {
		sell := sim.Scenarios[model.ScenarioSell]
		assessment.Score = 0.0
		assessment.Level = model.LevelCritical
		assessment.Factors = []model.RiskFactor{{
			Source:      sourceSimulator,
			Weight:      10.0,
			Description: fmt.Sprintf("sell simulation reverted [%s]: %s", sell.RevertTag, sell.RevertReason),
		}}
		assessment.Recommendation = recommendationFor(model.LevelCritical)
		return assessment
	}

	factors := s.simulationFactors(sim)
	factors = append(factors, s.scanFactors(scan)...)
	factors = append(factors, s.marketFactors(market)...)

	score := 10.0
	for _, f := range factors {
		score -= f.Weight
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}

	sort.Slice(factors, func(i, j int) bool { return factors[i].Weight > factors[j].Weight })

	assessment.Score = score
	assessment.Level = model.LevelFor(score, s.boundaries)
	assessment.Factors = factors
	assessment.Recommendation = recommendationFor(assessment.Level)

	s.logger.Debug("token scored",
		zap.String("token", sim.Token.Key()),
		zap.Float64("score", score),
		zap.String("level", string(assessment.Level)),
		zap.Int("factors", len(factors)),
	)
	return assessment
}

func (s *Scorer) simulationFactors(sim *model.SimulationResult) []model.RiskFactor {
	penalties := map[string]struct {
		weight float64
		desc   string
	}{
		model.FlagTransferBlocked:  {penaltyTransferBlocked, "transfers between wallets blocked"},
		model.FlagPaused:           {penaltyPaused, "trading pausable and currently paused"},
		model.FlagTradingNotOpen:   {penaltyTradingNotOpen, "trading not open to public"},
		model.FlagBuyFailedContext: {penaltyBuyFailedContext, "buy failed, sellability unverifiable"},
		model.FlagHighTax:          {penaltyHighTax, "swap output far below expectation"},
		model.FlagUnknownRevert:    {penaltyUnknownRevert, "unrecognized revert during simulation"},
		model.FlagBlacklistFunc:    {penaltyBlacklistFunc, "blacklist behavior observed"},
		model.FlagTradingCooldown:  {penaltyCooldown, "per-wallet trading cooldown"},
		model.FlagMaxTxLimit:       {penaltyMaxTxLimit, "max transaction amount limit"},
		model.FlagMaxWalletLimit:   {penaltyMaxWalletLimit, "max wallet size limit"},
	}

	var factors []model.RiskFactor
	for _, flag := range sim.Flags {
		p, ok := penalties[flag]
		if !ok {
			continue
		}
		factors = append(factors, model.RiskFactor{
			Source:      sourceSimulator,
			Weight:      p.weight,
			Description: p.desc,
		})
	}
	return factors
}

func (s *Scorer) scanFactors(scan *goplus.SecurityScan) []model.RiskFactor {
	if scan == nil {
		return []model.RiskFactor{{
			Source:      sourceScan,
			Weight:      penaltyScanMissing,
			Description: "security scan unavailable",
		}}
	}

	var factors []model.RiskFactor
	add := func(weight float64, desc string) {
		factors = append(factors, model.RiskFactor{Source: sourceScan, Weight: weight, Description: desc})
	}

	if scan.IsHoneypot {
		add(penaltyScanHoneypot, "flagged as honeypot by security scan")
	}
	if scan.CannotSellAll {
		add(penaltyScanCannotSellAll, "holders cannot sell their full balance")
	}
	if scan.TransferPausable {
		add(penaltyScanPausable, "transfers pausable by owner")
	}
	if scan.CannotBuy {
		add(penaltyScanCannotBuy, "buying restricted by contract")
	}
	if scan.HasBlacklist {
		add(penaltyScanBlacklist, "contract carries a blacklist function")
	}
	if scan.TradingCooldown {
		add(penaltyScanCooldown, "contract enforces per-wallet cooldown")
	}
	if scan.IsAntiWhale {
		add(penaltyScanAntiWhale, "anti-whale transfer limits")
	}
	if tax := maxTax(scan); tax > highTaxThreshold {
		add(penaltyHighTax, fmt.Sprintf("trade tax %.0f%%", tax*100))
	}
	if scan.IsMintable {
		add(penaltyScanMintable, "owner can mint new supply")
	}
	if scan.IsProxy {
		add(penaltyScanProxy, "upgradeable proxy contract")
	}
	if !scan.IsOpenSource {
		add(penaltyScanClosedSource, "contract source not verified")
	}
	if scan.OwnershipConcentration > concentrationThreshold {
		add(penaltyConcentration,
			fmt.Sprintf("top holders control %.0f%% of supply", scan.OwnershipConcentration*100))
	}
	return factors
}

func (s *Scorer) marketFactors(market *dexscreener.TokenMarket) []model.RiskFactor {
	if market == nil {
		return []model.RiskFactor{{
			Source:      sourceLiquidity,
			Weight:      penaltyMarketMissing,
			Description: "market data unavailable",
		}}
	}

	switch {
	case market.LiquidityUSD < dustLiquidityUSD:
		return []model.RiskFactor{{
			Source:      sourceLiquidity,
			Weight:      penaltyDustLiquidity,
			Description: fmt.Sprintf("liquidity $%.0f is dust", market.LiquidityUSD),
		}}
	case market.LiquidityUSD < s.minLiquidityUSD:
		return []model.RiskFactor{{
			Source:      sourceLiquidity,
			Weight:      penaltyLowLiquidity,
			Description: fmt.Sprintf("liquidity $%.0f below $%.0f floor", market.LiquidityUSD, s.minLiquidityUSD),
		}}
	}
	return nil
}

func maxTax(scan *goplus.SecurityScan) float64 {
	if scan.BuyTax > scan.SellTax {
		return scan.BuyTax
	}
	return scan.SellTax
}

// recommendationFor 等级到操作建议的固定映射
func recommendationFor(level model.RiskLevel) string {
	switch level {
	case model.LevelSafe:
		return "clear to trade within position limits"
	case model.LevelLow:
		return "tradeable, monitor position"
	case model.LevelMedium:
		return "reduce size, manual review advised"
	case model.LevelHigh:
		return "avoid entry, exit-only"
	default:
		return "do not trade, token cannot be sold"
	}
}
