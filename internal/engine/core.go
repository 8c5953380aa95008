package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"web3-trader/internal/engine/cache"
	"web3-trader/internal/engine/chain"
	"web3-trader/internal/engine/config"
	"web3-trader/internal/engine/consumer"
	"web3-trader/internal/engine/executor"
	"web3-trader/internal/engine/job"
	"web3-trader/internal/engine/keyring"
	"web3-trader/internal/engine/mirror"
	"web3-trader/internal/engine/model"
	"web3-trader/internal/engine/monitor"
	"web3-trader/internal/engine/notify"
	"web3-trader/internal/engine/quote"
	"web3-trader/internal/engine/repository"
	"web3-trader/internal/engine/scorer"
	"web3-trader/internal/engine/session"
	"web3-trader/internal/engine/simulator"
	"web3-trader/internal/engine/writer"
	"web3-trader/internal/engine/writer/history"
	"web3-trader/pkg/dexscreener"
	"web3-trader/pkg/goplus"
	"web3-trader/pkg/jupiter"
	"web3-trader/pkg/utils"
	"web3-trader/pkg/zerox"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// 提案生命周期事件标签
const (
	eventSubmitted = "submitted"
	eventConfirmed = "confirmed"
	eventExpired   = "expired"
	eventCancelled = "cancelled"
	eventBlocked   = "blocked"
)

// 单次执行的总时间预算，覆盖最大重试次数与确认等待
const executionBudget = 10 * time.Minute

// Core 引擎核心：把模拟器、评分器、确认闸门、执行器与镜像处理串成一条链。
// 所有交易入口（手动、镜像、一键清仓）都汇聚到同一个提案闸门
type Core struct {
	cfg  config.Config
	tl   *zap.Logger
	repo repository.Repository

	store       *repository.Store
	registry    *chain.Registry
	quotes      quote.Provider
	security    *goplus.Client
	market      *dexscreener.Client
	simulator   *simulator.Simulator
	scorer      *scorer.Scorer
	gate        *session.Gate
	keys        *keyring.Keyring
	executor    *executor.Executor
	wallets     *mirror.Registry
	processor   *mirror.Processor
	consumers   []consumer.KafkaConsumer
	scheduler   *job.Scheduler
	metrics     *monitor.MetricsServer
	notifier    *notify.Notifier
	assessments *cache.AssessmentCache

	simWriter      *writer.AsyncBatchWriter[model.SimulationRecord]
	assessDbWriter *writer.AsyncBatchWriter[model.AssessmentRecord]
	assessEsWriter *writer.AsyncBatchWriter[model.AssessmentRecord]
	execWriter     *writer.AsyncBatchWriter[model.ExecutionRecord]
}

func New(cfg config.Config, logger *zap.Logger) *Core {
	repo := repository.New(cfg, logger)
	store := repository.NewStore(repo.GetDB())

	// 链适配器：ChainID 0 约定为 Solana
	adapters := make([]chain.Adapter, 0, len(cfg.Chains))
	for chainName, chainCfg := range cfg.Chains {
		if chainCfg.ChainID == 0 {
			adapters = append(adapters, chain.NewSolanaAdapter(chainCfg, repo.GetSolanaClient(), logger))
			continue
		}
		adapters = append(adapters, chain.NewEVMAdapter(chainName, chainCfg, repo.GetEVMClient(chainName), logger))
	}
	registry := chain.NewRegistry(adapters...)

	zx := zerox.NewClient(zerox.Config{
		BaseURL:   cfg.ZeroX.BaseURL,
		APIKey:    cfg.ZeroX.APIKey,
		RateLimit: cfg.ZeroX.RateLimit,
		Timeout:   time.Duration(cfg.ZeroX.Timeout) * time.Second,
	}, logger)
	jup := jupiter.NewClient(jupiter.Config{
		BaseURL:   cfg.Jupiter.BaseURL,
		RateLimit: cfg.Jupiter.RateLimit,
		Timeout:   time.Duration(cfg.Jupiter.Timeout) * time.Second,
	}, logger)
	quotes := quote.NewAggregator(zx, jup, logger)

	security := goplus.NewClient(goplus.Config{
		BaseURL:   cfg.GoPlus.BaseURL,
		APIKey:    cfg.GoPlus.APIKey,
		RateLimit: cfg.GoPlus.RateLimit,
		Timeout:   time.Duration(cfg.GoPlus.Timeout) * time.Second,
	}, logger)
	market := dexscreener.NewClient(dexscreener.Config{
		BaseURL:   cfg.DexScreener.BaseURL,
		RateLimit: cfg.DexScreener.RateLimit,
		Timeout:   time.Duration(cfg.DexScreener.Timeout) * time.Second,
	}, logger)

	keys, err := keyring.New(cfg.Keys, logger)
	if err != nil {
		panic(fmt.Errorf("load signing keys: %w", err))
	}

	boundaries := model.LevelBoundaries{
		Safe:   cfg.Trading.BoundarySafe,
		Low:    cfg.Trading.BoundaryLow,
		Medium: cfg.Trading.BoundaryMedium,
		High:   cfg.Trading.BoundaryHigh,
	}

	c := &Core{
		cfg:         cfg,
		tl:          logger,
		repo:        repo,
		store:       store,
		registry:    registry,
		quotes:      quotes,
		security:    security,
		market:      market,
		simulator:   simulator.NewSimulator(registry, quotes, logger),
		scorer:      scorer.NewScorer(boundaries, cfg.Trading.MinLiquidityUSD, logger),
		gate:        session.NewGate(cfg.Trading, logger),
		keys:        keys,
		executor:    executor.NewExecutor(registry, quotes, keys, cfg.Trading, logger),
		wallets:     mirror.NewRegistry(store, 30*time.Second, logger),
		scheduler:   job.NewScheduler(logger),
		metrics:     monitor.NewMetricsServer(cfg.Monitor),
		notifier:    notify.NewNotifier(cfg, repo.GetMQ(), logger),
		assessments: cache.NewAssessmentCache(repo.GetMainRDB(), logger),
	}

	c.processor = mirror.NewProcessor(c.wallets, store, cfg.Trading, logger)
	c.consumers = []consumer.KafkaConsumer{
		consumer.NewSignalConsumer(cfg, logger, c.processor),
	}

	db := repo.GetDB()
	c.simWriter = writer.NewAsyncBatchWriter(logger, history.NewDbSimulationWriter(db, logger), 200, 3*time.Second, "simulation_db", 2)
	c.assessDbWriter = writer.NewAsyncBatchWriter(logger, history.NewDbAssessmentWriter(db, logger), 200, 3*time.Second, "assessment_db", 2)
	c.assessEsWriter = writer.NewAsyncBatchWriter(logger, history.NewEsAssessmentWriter(repo.GetESClient(), cfg.Elasticsearch.AssessmentsIndexName, logger), 200, 3*time.Second, "assessment_es", 2)
	c.execWriter = writer.NewAsyncBatchWriter(logger, history.NewDbExecutionWriter(db, logger), 100, 3*time.Second, "execution_db", 1)

	c.scheduler.RegisterJob("history_cleanup", 1*time.Hour, job.NewCleanupJob(repo, logger).Run)
	c.scheduler.RegisterJob("keyring_report", 10*time.Minute, job.NewKeyringReport(keys, logger).Run)

	c.wire()
	return c
}

// wire 串联各模块间的回调。回调而不是相互 import，依赖只有一个方向
func (c *Core) wire() {
	c.gate.OnConfirmed(func(ctx context.Context, p *model.TradeProposal) {
		monitor.ProposalEvents.WithLabelValues(eventConfirmed).Inc()
		go c.launchExecution(p)
	})
	c.gate.OnExpired(func(p *model.TradeProposal) {
		monitor.ProposalEvents.WithLabelValues(eventExpired).Inc()
		c.notifier.Send(notify.Alert{
			Kind:  notify.KindProposal,
			Chain: p.Chain,
			Token: p.Token.Address,
			Title: fmt.Sprintf("proposal %s expired unconfirmed (%s %s)", p.ID, p.Side, p.Token.Symbol),
		})
	})

	c.processor.OnPropose(func(ctx context.Context, proposal *model.TradeProposal) error {
		_, err := c.ProposeTrade(ctx, proposal)
		return err
	})
	c.processor.OnAlert(func(signal *model.MirrorSignal, reason string) {
		c.notifier.MirrorAlert(*signal, reason)
	})

	c.executor.OnFinished(c.onExecutionFinished)
}

// Start 启动所有子系统，阻塞直到 ctx 取消
func (c *Core) Start(ctx context.Context) {
	c.tl.Info("Starting trade engine core...")

	if c.metrics != nil {
		c.metrics.Run()
	}

	c.simWriter.Start(ctx)
	c.assessDbWriter.Start(ctx)
	c.assessEsWriter.Start(ctx)
	c.execWriter.Start(ctx)

	if err := c.wallets.Start(ctx); err != nil {
		c.tl.Error("❌ tracked wallet registry initial load failed", zap.Error(err))
	}
	c.gate.Start()

	for _, cons := range c.consumers {
		go cons.Run(ctx)
	}
	c.scheduler.Start(ctx)

	c.tl.Info("Trade engine started successfully", zap.Strings("chains", c.registry.Chains()))

	<-ctx.Done()
	c.tl.Info("Shutting down trade engine due to context cancellation...")
}

// Stop 优雅关闭所有资源
func (c *Core) Stop(ctx context.Context) {
	c.tl.Info("Stopping trade engine core...")

	for _, cons := range c.consumers {
		_ = cons.Stop()
	}
	c.scheduler.Stop(ctx)
	c.gate.Stop()
	c.wallets.Stop()

	c.simWriter.Close()
	c.assessDbWriter.Close()
	c.assessEsWriter.Close()
	c.execWriter.Close()

	if c.metrics != nil {
		_ = c.metrics.Stop(ctx)
	}
	_ = c.repo.Close()

	c.tl.Info("Trade engine core stopped.")
}

// AnalyzeToken 对代币跑完整安全分析：蜜罐模拟 + 安全扫描 + 市场数据 -> 综合评分。
// 结果缓存一个可信窗口，窗口内重复请求直接命中
func (c *Core) AnalyzeToken(ctx context.Context, token model.TokenIdentity) (*model.RiskAssessment, error) {
	if cached := c.assessments.Get(ctx, token.Chain, token.Address); cached != nil {
		return cached, nil
	}

	start := time.Now()
	sim, err := c.simulator.Simulate(ctx, token, c.takerFor(token.Chain))
	if err != nil {
		monitor.SimulationsTotal.WithLabelValues(token.Chain, "error").Inc()
		return nil, err
	}
	monitor.SimulationsTotal.WithLabelValues(token.Chain, "ok").Inc()
	monitor.SimulationDuration.WithLabelValues(token.Chain).Observe(time.Since(start).Seconds())
	for scenario, result := range sim.Scenarios {
		if result.RevertTag != "" {
			monitor.SimulationRevertTags.WithLabelValues(string(scenario), result.RevertTag).Inc()
		}
	}

	scan := c.securityScan(ctx, token)

	market, err := c.market.GetMarket(ctx, token.Address)
	if err != nil {
		c.tl.Warn("market data unavailable", zap.String("token", token.Key()), zap.Error(err))
		market = nil
	}

	assessment := c.scorer.Score(sim, scan, market)
	monitor.RiskLevelsAssigned.WithLabelValues(token.Chain, string(assessment.Level)).Inc()

	c.assessments.Set(ctx, assessment)
	c.assessments.RecordSimulation(ctx, sim)
	c.persistAnalysis(sim, assessment)

	if assessment.Level == model.LevelCritical || assessment.Level == model.LevelHigh {
		c.notifier.RiskAlert(assessment)
	}
	// 卖出被阻断的代币直接进黑名单，镜像跟买不会再碰它
	if sim.SellReverted() {
		if err := c.store.BlacklistToken(ctx, token.Chain, token.Address, "sell simulation reverted"); err != nil {
			c.tl.Warn("blacklist token failed", zap.String("token", token.Key()), zap.Error(err))
		}
	}
	return assessment, nil
}

// securityScan 合约安全扫描，上游不可用时降级为 nil（缺失由评分器扣分）
func (c *Core) securityScan(ctx context.Context, token model.TokenIdentity) *goplus.SecurityScan {
	var (
		scan *goplus.SecurityScan
		err  error
	)
	if model.IsEVMChain(token.Chain) {
		adapter, aerr := c.registry.Get(token.Chain)
		if aerr != nil {
			return nil
		}
		scan, err = c.security.ScanEVM(ctx, adapter.Params().ChainID, token.Address)
	} else {
		scan, err = c.security.ScanSolana(ctx, token.Address)
	}
	if err != nil {
		c.tl.Warn("security scan unavailable", zap.String("token", token.Key()), zap.Error(err))
		return nil
	}
	return scan
}

// persistAnalysis 模拟与评估历史异步落库，不阻塞分析路径
func (c *Core) persistAnalysis(sim *model.SimulationResult, assessment *model.RiskAssessment) {
	scenarios, err := sonic.Marshal(sim.Scenarios)
	if err == nil {
		c.simWriter.Submit(model.SimulationRecord{
			Chain:        sim.Token.Chain,
			TokenAddress: sim.Token.Address,
			Symbol:       sim.Token.Symbol,
			Scenarios:    datatypes.JSON(scenarios),
			Flags:        pq.StringArray(sim.Flags),
			SimulatedAt:  sim.SimulatedAt.UnixMilli(),
		})
	}

	factors, err := sonic.Marshal(assessment.Factors)
	if err != nil {
		c.tl.Warn("marshal assessment factors failed", zap.Error(err))
		return
	}
	record := model.AssessmentRecord{
		Chain:          assessment.Token.Chain,
		TokenAddress:   assessment.Token.Address,
		Symbol:         assessment.Token.Symbol,
		Score:          assessment.Score,
		Level:          string(assessment.Level),
		Factors:        datatypes.JSON(factors),
		Recommendation: assessment.Recommendation,
		LockedPriceUSD: assessment.LockedPriceUSD,
		PriceLockedAt:  assessment.PriceLockedAt.UnixMilli(),
		AssessedAt:     assessment.AssessedAt.UnixMilli(),
	}
	c.assessDbWriter.Submit(record)
	c.assessEsWriter.Submit(record)
}

// ProposeTrade 提交交易提案。买入必须先通过完整分析；
// 卖出即使分析失败也放行提案，持仓离场不能被分析故障卡住
func (c *Core) ProposeTrade(ctx context.Context, p *model.TradeProposal) (*model.TradeProposal, error) {
	assessment, err := c.AnalyzeToken(ctx, p.Token)
	if err != nil {
		if p.Side == model.SideBuy {
			return nil, fmt.Errorf("analyze before buy: %w", err)
		}
		c.tl.Warn("sell proposal proceeds without fresh assessment",
			zap.String("token", p.Token.Key()), zap.Error(err))
	}
	p.Assessment = assessment

	monitor.ProposalEvents.WithLabelValues(eventSubmitted).Inc()
	return c.gate.Submit(p), nil
}

// Confirm 确认提案，策略复核不通过会返回 PolicyError
func (c *Core) Confirm(ctx context.Context, id string) (*model.TradeProposal, error) {
	p, err := c.gate.Confirm(ctx, id)
	if err != nil {
		var policyErr *model.PolicyError
		if errors.As(err, &policyErr) {
			monitor.ProposalEvents.WithLabelValues(eventBlocked).Inc()
		}
		return nil, err
	}
	return p, nil
}

// Cancel 取消待确认提案
func (c *Core) Cancel(id string) (*model.TradeProposal, error) {
	p, err := c.gate.Cancel(id)
	if err != nil {
		return nil, err
	}
	monitor.ProposalEvents.WithLabelValues(eventCancelled).Inc()
	return p, nil
}

// Pending 当前等待确认的提案
func (c *Core) Pending() []*model.TradeProposal {
	return c.gate.Pending()
}

// PanicSell 一键清仓：对每个持仓挂全量卖出。
// panic_confirmation 开关决定是否仍走确认闸门，默认直接执行
func (c *Core) PanicSell(ctx context.Context, requester string) error {
	positions, err := c.store.ListPositions(ctx, requester)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		return nil
	}

	c.notifier.Send(notify.Alert{
		Kind:  notify.KindPanicSell,
		Title: fmt.Sprintf("panic sell triggered: %d positions", len(positions)),
	})

	var wg conc.WaitGroup
	for _, pos := range positions {
		p := &model.TradeProposal{
			Requester: pos.Requester,
			Chain:     pos.Chain,
			Side:      model.SideSell,
			Token: model.TokenIdentity{
				Chain:   pos.Chain,
				Address: pos.TokenAddress,
				Symbol:  pos.Symbol,
			},
			Amount:   decimal.NewFromInt(100),
			Slippage: decimal.NewFromFloat(c.cfg.Trading.MaxSlippage),
		}

		if c.cfg.Trading.PanicConfirmation {
			if _, err := c.ProposeTrade(ctx, p); err != nil {
				c.tl.Error("panic sell proposal failed", zap.String("token", p.Token.Key()), zap.Error(err))
			}
			continue
		}

		// 绕过闸门直接执行，每个持仓独立并发
		proposal := p
		wg.Go(func() {
			proposal.ID = fmt.Sprintf("panic-%s-%d", proposal.Token.Address, time.Now().UnixNano())
			proposal.Status = model.ProposalConfirmed
			proposal.CreatedAt = time.Now()
			c.launchExecution(proposal)
		})
	}
	wg.Wait()
	return nil
}

// launchExecution 把确认后的提案折算成执行单并驱动状态机
func (c *Core) launchExecution(p *model.TradeProposal) {
	ctx, cancel := context.WithTimeout(context.Background(), executionBudget)
	defer cancel()

	order, err := c.resolveOrder(ctx, p)
	if err != nil {
		c.tl.Error("❌ order resolution failed",
			zap.String("proposal", p.ID),
			zap.String("token", p.Token.Key()),
			zap.Error(err),
		)
		c.notifier.Send(notify.Alert{
			Kind:   notify.KindExecution,
			Chain:  p.Chain,
			Token:  p.Token.Address,
			Title:  fmt.Sprintf("%s %s aborted before execution", p.Side, p.Token.Symbol),
			Detail: err.Error(),
		})
		return
	}

	if _, err := c.executor.Execute(ctx, order); err != nil {
		c.tl.Error("execution ended with error",
			zap.String("proposal", p.ID),
			zap.Error(err),
		)
	}
}

// resolveOrder 把提案金额折算成链上最小单位。
// BUY：美元名义 -> 原生币数量；SELL：持仓百分比 -> 代币数量
func (c *Core) resolveOrder(ctx context.Context, p *model.TradeProposal) (executor.Order, error) {
	adapter, err := c.registry.Get(p.Chain)
	if err != nil {
		return executor.Order{}, err
	}
	params := adapter.Params()

	if p.Side == model.SideBuy {
		native, err := c.market.GetMarket(ctx, params.WrappedNative)
		if err != nil {
			return executor.Order{}, fmt.Errorf("native price lookup: %w", err)
		}
		if native.PriceUSD.IsZero() {
			return executor.Order{}, fmt.Errorf("native price is zero for %s", p.Chain)
		}
		nativeAmount := p.Amount.Div(native.PriceUSD)
		amount := utils.ToBaseUnits(nativeAmount, nativeDecimals(p.Chain))
		c.tl.Info("buy order resolved",
			zap.String("proposal", p.ID),
			zap.String("native_in", utils.FormatUnits(amount, nativeDecimals(p.Chain))),
		)
		return executor.Order{
			Proposal:  p,
			SellToken: params.WrappedNative,
			BuyToken:  p.Token.Address,
			Amount:    amount,
		}, nil
	}

	pos, err := c.store.GetPosition(ctx, p.Chain, p.Token.Address)
	if err != nil {
		return executor.Order{}, err
	}
	if pos == nil || pos.Amount.IsZero() {
		return executor.Order{}, fmt.Errorf("no position in %s to sell", p.Token.Key())
	}
	quantity := pos.Amount.Mul(p.Amount).Div(decimal.NewFromInt(100))
	amount := utils.ToBaseUnits(quantity, p.Token.Decimals)
	c.tl.Info("sell order resolved",
		zap.String("proposal", p.ID),
		zap.String("token_out", utils.FormatUnits(amount, p.Token.Decimals)),
	)
	return executor.Order{
		Proposal:  p,
		SellToken: p.Token.Address,
		BuyToken:  params.WrappedNative,
		Amount:    amount,
	}, nil
}

// onExecutionFinished 执行终态：指标、落库、持仓簿记、告警
func (c *Core) onExecutionFinished(exec *model.TradeExecution) {
	p := exec.Proposal
	monitor.ExecutionOutcomes.WithLabelValues(p.Chain, string(exec.Status), string(exec.Kind)).Inc()
	for _, a := range exec.Attempts {
		monitor.ExecutionAttempts.WithLabelValues(p.Chain, string(a.State)).Inc()
	}
	if !exec.EndedAt.IsZero() {
		monitor.ExecutionDuration.WithLabelValues(p.Chain).Observe(exec.EndedAt.Sub(exec.StartedAt).Seconds())
	}

	attempts, err := sonic.Marshal(exec.Attempts)
	if err != nil {
		attempts = []byte("[]")
	}
	c.execWriter.Submit(model.ExecutionRecord{
		ProposalID:   p.ID,
		Requester:    p.Requester,
		Chain:        p.Chain,
		Side:         string(p.Side),
		TokenAddress: p.Token.Address,
		Amount:       p.Amount,
		Status:       string(exec.Status),
		FailKind:     string(exec.Kind),
		TxHash:       exec.TxHash,
		Attempts:     datatypes.JSON(attempts),
		Mirrored:     p.Mirrored,
		SourceWallet: p.SourceWallet,
		StartedAt:    exec.StartedAt.UnixMilli(),
		EndedAt:      exec.EndedAt.UnixMilli(),
	})

	if exec.Status == model.ExecSuccess {
		c.bookPosition(exec)
	}
	c.notifier.ExecutionAlert(exec)
}

// bookPosition 成功执行后的持仓簿记。
// 买入按锁定价折算成本与数量，卖出按百分比缩减，清零即关仓
func (c *Core) bookPosition(exec *model.TradeExecution) {
	p := exec.Proposal
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if p.Side == model.SideBuy {
		pos, err := c.store.GetPosition(ctx, p.Chain, p.Token.Address)
		if err != nil {
			c.tl.Warn("position lookup failed after buy", zap.String("token", p.Token.Key()), zap.Error(err))
			return
		}
		if pos == nil {
			pos = &model.Position{
				Requester:    p.Requester,
				Chain:        p.Chain,
				TokenAddress: p.Token.Address,
				Symbol:       p.Token.Symbol,
			}
		}
		pos.CostUSD = pos.CostUSD.Add(p.Amount)
		if p.Assessment != nil && !p.Assessment.LockedPriceUSD.IsZero() {
			pos.Amount = pos.Amount.Add(p.Amount.Div(p.Assessment.LockedPriceUSD))
		}
		pos.UpdatedAt = time.Now().UnixMilli()
		if err := c.store.UpsertPosition(ctx, pos); err != nil {
			c.tl.Error("position upsert failed", zap.String("token", p.Token.Key()), zap.Error(err))
		}
		return
	}

	// SELL
	if p.Amount.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		if err := c.store.ClosePosition(ctx, p.Requester, p.Chain, p.Token.Address); err != nil {
			c.tl.Error("position close failed", zap.String("token", p.Token.Key()), zap.Error(err))
		}
		return
	}
	pos, err := c.store.GetPosition(ctx, p.Chain, p.Token.Address)
	if err != nil || pos == nil {
		return
	}
	remaining := decimal.NewFromInt(100).Sub(p.Amount).Div(decimal.NewFromInt(100))
	pos.Amount = pos.Amount.Mul(remaining)
	pos.CostUSD = pos.CostUSD.Mul(remaining)
	pos.UpdatedAt = time.Now().UnixMilli()
	if err := c.store.UpsertPosition(ctx, pos); err != nil {
		c.tl.Error("position update failed", zap.String("token", p.Token.Key()), zap.Error(err))
	}
}

// takerFor Solana 模拟需要一个真实持仓地址做吃单方，取签名钱包地址；
// EVM 模拟用一次性账户，不需要
func (c *Core) takerFor(chainName string) string {
	if model.IsEVMChain(chainName) {
		return ""
	}
	addr, err := c.keys.Address(chainName)
	if err != nil {
		return ""
	}
	return addr
}

func nativeDecimals(chainName string) uint8 {
	if chainName == model.ChainSOL {
		return 9
	}
	return 18
}
