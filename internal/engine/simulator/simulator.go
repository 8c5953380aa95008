package simulator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"web3-trader/internal/engine/chain"
	"web3-trader/internal/engine/model"
	"web3-trader/internal/engine/quote"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

const (
	// 单场景模拟超时
	scenarioTimeout = 10 * time.Second
	// 模拟调用 gas 上限
	simGasLimit = 2_000_000
)

var (
	// 注入给临时账户的虚拟原生币余额：1 ETH/BNB
	simVirtualNative = new(big.Int).Mul(big.NewInt(1), big.NewInt(1e18))
	// BUY 场景买入金额：0.01 原生币
	simBuyValue = big.NewInt(1e16)
	// SELL/TRANSFER 场景卖出数量
	simSellAmount = new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))
	// 存储覆盖写入的代币余额，远大于卖出数量
	simTokenBalance = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18))
	// Solana BUY 金额：0.05 SOL
	simBuyLamports = big.NewInt(50_000_000)
)

const routerABIJSON = `[
	{"name":"swapExactETHForTokens","type":"function","stateMutability":"payable",
	 "inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},
	           {"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],
	 "outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"name":"swapExactTokensForETH","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},
	           {"name":"path","type":"address[]"},{"name":"to","type":"address"},
	           {"name":"deadline","type":"uint256"}],
	 "outputs":[{"name":"amounts","type":"uint256[]"}]}
]`

const erc20ABIJSON = `[
	{"name":"transfer","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

var (
	routerABI = mustParseABI(routerABIJSON)
	erc20ABI  = mustParseABI(erc20ABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Simulator 蜜罐模拟器：对代币跑 BUY/SELL/TRANSFER 三个场景的调用模拟。
// EVM 用状态覆盖注入虚拟余额与持仓，临时账户一次一换；
// Solana 没有状态覆盖，用 Jupiter 预构建交易 + simulateTransaction
type Simulator struct {
	registry *chain.Registry
	quotes   quote.Provider
	logger   *zap.Logger
}

func NewSimulator(registry *chain.Registry, quotes quote.Provider, logger *zap.Logger) *Simulator {
	return &Simulator{registry: registry, quotes: quotes, logger: logger}
}

// Simulate 跑完整蜜罐模拟。taker 仅 Solana 需要（模拟时借用的持仓钱包地址，
// 传空则用一次性账户，缺资金的场景会降级为仅供参考）
func (s *Simulator) Simulate(ctx context.Context, token model.TokenIdentity, taker string) (*model.SimulationResult, error) {
	adapter, err := s.registry.Get(token.Chain)
	if err != nil {
		return nil, &model.SimulationError{Token: token, Reason: "unsupported chain", Err: err}
	}

	if model.IsEVMChain(token.Chain) {
		return s.simulateEVM(ctx, adapter, token)
	}
	return s.simulateSolana(ctx, adapter, token, taker)
}

func (s *Simulator) simulateEVM(ctx context.Context, adapter chain.Adapter, token model.TokenIdentity) (*model.SimulationResult, error) {
	cfg := adapter.Params()
	router := common.HexToAddress(cfg.Router)
	wrapped := common.HexToAddress(cfg.WrappedNative)
	tokenAddr := common.HexToAddress(token.Address)

	// 一次性账户，用完即弃，私钥不落地
	buyerKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, &model.SimulationError{Token: token, Reason: "generate ephemeral account", Err: err}
	}
	buyer := crypto.PubkeyToAddress(buyerKey.PublicKey)
	recipientKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, &model.SimulationError{Token: token, Reason: "generate ephemeral account", Err: err}
	}
	recipient := crypto.PubkeyToAddress(recipientKey.PublicKey)

	deadline := big.NewInt(time.Now().Add(10 * time.Minute).Unix())

	// BUY 先跑：它的结果决定 SELL/TRANSFER 的可信度
	buyData, err := routerABI.Pack("swapExactETHForTokens",
		new(big.Int), []common.Address{wrapped, tokenAddr}, buyer, deadline)
	if err != nil {
		return nil, &model.SimulationError{Token: token, Reason: "encode buy calldata", Err: err}
	}
	buyResult, err := s.runScenario(ctx, adapter, model.ScenarioBuy, chain.SimCall{
		From:           buyer.Hex(),
		To:             router.Hex(),
		Data:           buyData,
		Value:          simBuyValue,
		Gas:            simGasLimit,
		VirtualBalance: simVirtualNative,
	})
	if err != nil {
		return nil, &model.SimulationError{Token: token, Reason: "buy scenario", Err: err}
	}

	holdings := tokenStateDiff(token.Address, buyer, router)

	sellData, err := routerABI.Pack("swapExactTokensForETH",
		simSellAmount, new(big.Int), []common.Address{tokenAddr, wrapped}, buyer, deadline)
	if err != nil {
		return nil, &model.SimulationError{Token: token, Reason: "encode sell calldata", Err: err}
	}
	transferData, err := erc20ABI.Pack("transfer", recipient, simSellAmount)
	if err != nil {
		return nil, &model.SimulationError{Token: token, Reason: "encode transfer calldata", Err: err}
	}

	var (
		mu             sync.Mutex
		sellResult     *model.ScenarioResult
		transferResult *model.ScenarioResult
		sellErr        error
		transferErr    error
	)
	var wg conc.WaitGroup
	wg.Go(func() {
		r, err := s.runScenario(ctx, adapter, model.ScenarioSell, chain.SimCall{
			From:           buyer.Hex(),
			To:             router.Hex(),
			Data:           sellData,
			Gas:            simGasLimit,
			VirtualBalance: simVirtualNative,
			StateDiff:      holdings,
		})
		mu.Lock()
		sellResult, sellErr = r, err
		mu.Unlock()
	})
	wg.Go(func() {
		r, err := s.runScenario(ctx, adapter, model.ScenarioTransfer, chain.SimCall{
			From:           buyer.Hex(),
			To:             tokenAddr.Hex(),
			Data:           transferData,
			Gas:            simGasLimit,
			VirtualBalance: simVirtualNative,
			StateDiff:      holdings,
		})
		mu.Lock()
		transferResult, transferErr = r, err
		mu.Unlock()
	})
	wg.Wait()

	if sellErr != nil {
		return nil, &model.SimulationError{Token: token, Reason: "sell scenario", Err: sellErr}
	}
	if transferErr != nil {
		return nil, &model.SimulationError{Token: token, Reason: "transfer scenario", Err: transferErr}
	}

	return s.assemble(token, *buyResult, map[model.Scenario]model.ScenarioResult{
		model.ScenarioSell:     *sellResult,
		model.ScenarioTransfer: *transferResult,
	}), nil
}

func (s *Simulator) simulateSolana(ctx context.Context, adapter chain.Adapter, token model.TokenIdentity, taker string) (*model.SimulationResult, error) {
	cfg := adapter.Params()
	if taker == "" {
		taker = solana.NewWallet().PublicKey().String()
	}

	buyResult, err := s.runSolanaSwap(ctx, adapter, model.ScenarioBuy, quote.Request{
		Chain:     token.Chain,
		SellToken: cfg.WrappedNative,
		BuyToken:  token.Address,
		Amount:    simBuyLamports,
		Slippage:  decimal.NewFromFloat(0.05),
		Taker:     taker,
	})
	if err != nil {
		return nil, &model.SimulationError{Token: token, Reason: "buy scenario", Err: err}
	}

	sellAmount := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(token.Decimals)), nil)
	sellResult, err := s.runSolanaSwap(ctx, adapter, model.ScenarioSell, quote.Request{
		Chain:     token.Chain,
		SellToken: token.Address,
		BuyToken:  cfg.WrappedNative,
		Amount:    sellAmount,
		Slippage:  decimal.NewFromFloat(0.05),
		Taker:     taker,
	})
	if err != nil {
		// 卖路不存在本身就是强信号：买得进卖不出
		if errors.Is(err, model.ErrInsufficientLiquidity) {
			sellResult = &model.ScenarioResult{
				Scenario:     model.ScenarioSell,
				Outcome:      model.OutcomeReverted,
				RevertTag:    "NO_SELL_ROUTE",
				RevertReason: err.Error(),
			}
		} else {
			return nil, &model.SimulationError{Token: token, Reason: "sell scenario", Err: err}
		}
	}

	return s.assemble(token, *buyResult, map[model.Scenario]model.ScenarioResult{
		model.ScenarioSell: *sellResult,
	}), nil
}

// runSolanaSwap 询价拿预构建交易，再跑 simulateTransaction
func (s *Simulator) runSolanaSwap(ctx context.Context, adapter chain.Adapter, scenario model.Scenario, req quote.Request) (*model.ScenarioResult, error) {
	q, err := s.quotes.GetQuote(ctx, req)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(q.Tx.SolanaTxBase64)
	if err != nil {
		return nil, fmt.Errorf("decode prebuilt tx: %w", err)
	}
	return s.runScenario(ctx, adapter, scenario, chain.SimCall{RawTx: raw})
}

// runScenario 单场景执行与结果归类。revert 归类，超时标记 TIMEOUT，
// 基础设施错误上抛
func (s *Simulator) runScenario(ctx context.Context, adapter chain.Adapter, scenario model.Scenario, call chain.SimCall) (*model.ScenarioResult, error) {
	sctx, cancel := context.WithTimeout(ctx, scenarioTimeout)
	defer cancel()

	outcome, err := adapter.SimulateCall(sctx, call)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &model.ScenarioResult{Scenario: scenario, Outcome: model.OutcomeTimeout}, nil
		}
		return nil, err
	}

	if outcome.Reverted {
		tag, flag := classifyRevert(scenario, outcome.RevertReason)
		result := &model.ScenarioResult{
			Scenario:      scenario,
			Outcome:       model.OutcomeReverted,
			RevertTag:     tag,
			RevertReason:  outcome.RevertReason,
			Informational: contextualRevert(tag),
		}
		s.logger.Debug("scenario reverted",
			zap.String("scenario", string(scenario)),
			zap.String("tag", tag),
			zap.String("reason", outcome.RevertReason),
			zap.String("flag", flag),
		)
		return result, nil
	}

	return &model.ScenarioResult{
		Scenario:    scenario,
		Outcome:     model.OutcomeSuccess,
		GasEstimate: outcome.GasUsed,
	}, nil
}

// assemble 汇总场景结果。BUY 硬失败时 SELL/TRANSFER 降级为仅供参考：
// 没有持仓上下文，它们的失败不能归因于代币
func (s *Simulator) assemble(token model.TokenIdentity, buy model.ScenarioResult, rest map[model.Scenario]model.ScenarioResult) *model.SimulationResult {
	buyFailed := buy.Outcome == model.OutcomeReverted && !buy.Informational

	scenarios := map[model.Scenario]model.ScenarioResult{model.ScenarioBuy: buy}
	for name, r := range rest {
		if buyFailed {
			r.Informational = true
		}
		scenarios[name] = r
	}

	flagSet := make(map[string]struct{})
	for _, r := range scenarios {
		if r.Outcome != model.OutcomeReverted || r.Informational {
			continue
		}
		if _, flag := classifyRevert(r.Scenario, r.RevertReason); flag != "" {
			flagSet[flag] = struct{}{}
		}
	}
	if buyFailed {
		flagSet[model.FlagBuyFailedContext] = struct{}{}
	}

	flags := make([]string, 0, len(flagSet))
	for f := range flagSet {
		flags = append(flags, f)
	}

	return &model.SimulationResult{
		Token:       token,
		Scenarios:   scenarios,
		Flags:       flags,
		SimulatedAt: time.Now(),
	}
}

// tokenStateDiff 构造代币合约的存储覆盖：让 owner 看起来持有大量代币，
// 且已授权 spender。不同合约的 mapping slot 位置不可知，
// 把候选 slot（Solidity 0..8 与 Vyper 0..3 两种布局）全部写上，
// 多写的 slot 不会被合约读到，无副作用
func tokenStateDiff(tokenAddress string, owner, spender common.Address) map[string]map[common.Hash]common.Hash {
	slots := make(map[common.Hash]common.Hash)
	value := common.BigToHash(simTokenBalance)

	for slot := int64(0); slot <= 8; slot++ {
		slots[solidityMapSlot(owner.Bytes(), slot)] = value
		inner := solidityMapSlot(owner.Bytes(), slot)
		slots[solidityNestedSlot(spender.Bytes(), inner)] = value
	}
	for slot := int64(0); slot <= 3; slot++ {
		slots[vyperMapSlot(owner.Bytes(), slot)] = value
	}

	return map[string]map[common.Hash]common.Hash{tokenAddress: slots}
}

// solidityMapSlot keccak(pad(key) . pad(slot))
func solidityMapSlot(key []byte, slot int64) common.Hash {
	return common.BytesToHash(crypto.Keccak256(
		common.LeftPadBytes(key, 32),
		common.LeftPadBytes(big.NewInt(slot).Bytes(), 32),
	))
}

// solidityNestedSlot 二级 mapping：keccak(pad(key) . innerSlot)
func solidityNestedSlot(key []byte, inner common.Hash) common.Hash {
	return common.BytesToHash(crypto.Keccak256(
		common.LeftPadBytes(key, 32),
		inner.Bytes(),
	))
}

// vyperMapSlot Vyper 布局：keccak(pad(slot) . pad(key))
func vyperMapSlot(key []byte, slot int64) common.Hash {
	return common.BytesToHash(crypto.Keccak256(
		common.LeftPadBytes(big.NewInt(slot).Bytes(), 32),
		common.LeftPadBytes(key, 32),
	))
}
