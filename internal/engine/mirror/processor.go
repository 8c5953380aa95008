package mirror

import (
	"context"
	"time"

	"web3-trader/internal/engine/config"
	"web3-trader/internal/engine/model"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Verdict 信号处理结论，用于日志与指标
type Verdict string

const (
	VerdictProposed          Verdict = "proposed"
	VerdictAlertOnly         Verdict = "alert_only"
	VerdictDuplicate         Verdict = "duplicate"
	VerdictUntracked         Verdict = "untracked_wallet"
	VerdictWalletBlacklisted Verdict = "blacklisted_wallet"
	VerdictTokenBlacklisted  Verdict = "blacklisted_token"
	VerdictNoPosition        Verdict = "no_position"
	VerdictError             Verdict = "error"
)

// PositionSource 持仓查询，镜像卖出按持仓换算
type PositionSource interface {
	GetPosition(ctx context.Context, chain, tokenAddress string) (*model.Position, error)
}

// Processor 镜像信号处理器。每条信号恰好消费一次：
// 过滤丢弃或转化为提案，绝不静默二义。
// 默认策略跟卖不跟买：跟卖保护本金，跟买扩大敞口
type Processor struct {
	registry  *Registry
	positions PositionSource
	trading   config.TradingConfig
	logger    *zap.Logger

	// 已见 tx 去重窗口
	seen *gocache.Cache

	propose func(ctx context.Context, p *model.TradeProposal) error
	alert   func(signal *model.MirrorSignal, reason string)
}

func NewProcessor(registry *Registry, positions PositionSource, trading config.TradingConfig, logger *zap.Logger) *Processor {
	return &Processor{
		registry:  registry,
		positions: positions,
		trading:   trading,
		logger:    logger,
		seen:      gocache.New(10*time.Minute, 30*time.Minute),
	}
}

// OnPropose 注册提案投递回调
func (p *Processor) OnPropose(fn func(ctx context.Context, proposal *model.TradeProposal) error) {
	p.propose = fn
}

// OnAlert 注册仅告警回调
func (p *Processor) OnAlert(fn func(signal *model.MirrorSignal, reason string)) {
	p.alert = fn
}

// Process 处理一条镜像信号，返回处理结论
func (p *Processor) Process(ctx context.Context, signal *model.MirrorSignal) Verdict {
	if _, dup := p.seen.Get(signal.TxHash); dup {
		return VerdictDuplicate
	}
	p.seen.SetDefault(signal.TxHash, struct{}{})

	wallet, tracked := p.registry.Lookup(signal.Token.Chain, signal.SourceWallet)
	if !tracked {
		return VerdictUntracked
	}
	if wallet.Blacklist {
		p.logger.Info("signal from blacklisted wallet dropped",
			zap.String("wallet", signal.SourceWallet),
			zap.String("tx", signal.TxHash),
		)
		return VerdictWalletBlacklisted
	}
	if p.registry.TokenBlocked(signal.Token.Chain, signal.Token.Address) {
		p.logger.Info("signal for blacklisted token dropped",
			zap.String("token", signal.Token.Key()),
			zap.String("tx", signal.TxHash),
		)
		return VerdictTokenBlacklisted
	}

	p.logger.Info("🪞 mirror signal accepted",
		zap.String("wallet", signal.SourceWallet),
		zap.String("side", string(signal.Side)),
		zap.String("token", signal.Token.Key()),
		zap.String("amount_usd", signal.AmountUSD.String()),
	)

	if signal.Side == model.SideSell {
		return p.processSell(ctx, signal, wallet)
	}
	return p.processBuy(ctx, signal, wallet)
}

// processSell 跟踪钱包卖出。默认自动挂卖出提案：对方离场是最强的离场信号
func (p *Processor) processSell(ctx context.Context, signal *model.MirrorSignal, wallet model.TrackedWallet) Verdict {
	if !p.trading.MirrorSellEnabled {
		p.alertOnly(signal, "mirror sell disabled")
		return VerdictAlertOnly
	}

	pos, err := p.positions.GetPosition(ctx, signal.Token.Chain, signal.Token.Address)
	if err != nil {
		p.logger.Error("position lookup failed", zap.String("token", signal.Token.Key()), zap.Error(err))
		return VerdictError
	}
	if pos == nil || pos.Amount.IsZero() {
		// 没持仓就没什么可卖，只提醒
		p.alertOnly(signal, "tracked wallet sold, no local position")
		return VerdictNoPosition
	}

	proposal := &model.TradeProposal{
		Requester:    pos.Requester,
		Chain:        signal.Token.Chain,
		Side:         model.SideSell,
		Token:        signal.Token,
		Amount:       decimal.NewFromInt(100), // 全部离场
		Slippage:     decimal.NewFromFloat(p.trading.MaxSlippage),
		Mirrored:     true,
		SourceWallet: signal.SourceWallet,
	}
	if err := p.propose(ctx, proposal); err != nil {
		p.logger.Error("mirror sell proposal failed",
			zap.String("token", signal.Token.Key()),
			zap.Error(err),
		)
		return VerdictError
	}
	return VerdictProposed
}

// processBuy 跟踪钱包买入。默认只告警；开启跟买时受单笔与总持仓上限约束
func (p *Processor) processBuy(ctx context.Context, signal *model.MirrorSignal, wallet model.TrackedWallet) Verdict {
	if !p.trading.MirrorBuyEnabled {
		p.alertOnly(signal, "tracked wallet bought")
		return VerdictAlertOnly
	}

	amountUSD := signal.AmountUSD
	buyCap := decimal.NewFromFloat(p.trading.MaxAutoBuyUSD)
	if amountUSD.GreaterThan(buyCap) {
		amountUSD = buyCap
	}

	pos, err := p.positions.GetPosition(ctx, signal.Token.Chain, signal.Token.Address)
	if err != nil {
		p.logger.Error("position lookup failed", zap.String("token", signal.Token.Key()), zap.Error(err))
		return VerdictError
	}
	if pos != nil {
		room := decimal.NewFromFloat(p.trading.MaxPositionUSD).Sub(pos.CostUSD)
		if room.LessThanOrEqual(decimal.Zero) {
			p.alertOnly(signal, "position cap reached")
			return VerdictAlertOnly
		}
		if amountUSD.GreaterThan(room) {
			amountUSD = room
		}
	}

	proposal := &model.TradeProposal{
		Chain:        signal.Token.Chain,
		Side:         model.SideBuy,
		Token:        signal.Token,
		Amount:       amountUSD,
		Slippage:     decimal.NewFromFloat(p.trading.MaxSlippage),
		Mirrored:     true,
		SourceWallet: signal.SourceWallet,
	}
	if err := p.propose(ctx, proposal); err != nil {
		p.logger.Error("mirror buy proposal failed",
			zap.String("token", signal.Token.Key()),
			zap.Error(err),
		)
		return VerdictError
	}
	return VerdictProposed
}

func (p *Processor) alertOnly(signal *model.MirrorSignal, reason string) {
	if p.alert != nil {
		p.alert(signal, reason)
	}
}
