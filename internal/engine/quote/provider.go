package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"web3-trader/internal/engine/model"
	"web3-trader/pkg/httpclient"
	"web3-trader/pkg/jupiter"
	"web3-trader/pkg/zerox"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 报价有效窗口。聚合器报价带 calldata，放太久会因为价格漂移滑点失败
const quoteTTL = 30 * time.Second

// Aggregator 按链分发报价：EVM 走 0x，Solana 走 Jupiter。
// 上游错误折算成统一的 model 哨兵，调用方不感知具体提供方
type Aggregator struct {
	zerox   *zerox.Client
	jupiter *jupiter.Client
	logger  *zap.Logger
}

func NewAggregator(zx *zerox.Client, jup *jupiter.Client, logger *zap.Logger) *Aggregator {
	return &Aggregator{zerox: zx, jupiter: jup, logger: logger}
}

func (a *Aggregator) GetQuote(ctx context.Context, req Request) (*Quote, error) {
	var (
		q   *Quote
		err error
	)
	if model.IsEVMChain(req.Chain) {
		q, err = a.evmQuote(ctx, req)
	} else {
		q, err = a.solanaQuote(ctx, req)
	}
	if err != nil {
		return nil, mapProviderError(err)
	}
	return q, nil
}

func (a *Aggregator) evmQuote(ctx context.Context, req Request) (*Quote, error) {
	slippage, _ := req.Slippage.Float64()
	resp, err := a.zerox.GetQuote(ctx, zerox.QuoteParams{
		SellToken:       req.SellToken,
		BuyToken:        req.BuyToken,
		SellAmount:      req.Amount.String(),
		Taker:           req.Taker,
		SlippagePercent: slippage,
	})
	if err != nil {
		return nil, err
	}

	buyAmount, ok := new(big.Int).SetString(resp.BuyAmount, 10)
	if !ok {
		return nil, fmt.Errorf("parse buyAmount %q", resp.BuyAmount)
	}
	sellAmount, ok := new(big.Int).SetString(resp.SellAmount, 10)
	if !ok {
		return nil, fmt.Errorf("parse sellAmount %q", resp.SellAmount)
	}

	data, err := hexutil.Decode(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("decode calldata: %w", err)
	}
	value := new(big.Int)
	if resp.Value != "" {
		if _, ok := value.SetString(resp.Value, 10); !ok {
			return nil, fmt.Errorf("parse value %q", resp.Value)
		}
	}
	var gas uint64
	if resp.Gas != "" {
		g, ok := new(big.Int).SetString(resp.Gas, 10)
		if ok {
			gas = g.Uint64()
		}
	}

	price, _ := decimal.NewFromString(resp.Price)

	// 保证价折算最小可收数量
	minReceived := buyAmount
	if gp, err := decimal.NewFromString(resp.GuaranteedPrice); err == nil && !gp.IsZero() && !price.IsZero() {
		ratio := gp.Div(price)
		minReceived = decimal.NewFromBigInt(buyAmount, 0).Mul(ratio).BigInt()
	}

	routes := make([]string, 0, len(resp.Sources))
	for _, s := range resp.Sources {
		if s.Proportion != "0" && s.Proportion != "" {
			routes = append(routes, s.Name)
		}
	}

	now := time.Now()
	return &Quote{
		Chain:       req.Chain,
		SellToken:   req.SellToken,
		BuyToken:    req.BuyToken,
		SellAmount:  sellAmount,
		BuyAmount:   buyAmount,
		MinReceived: minReceived,
		Price:       price,
		Route:       routes,
		Tx: UnsignedTx{
			To:              resp.To,
			Data:            data,
			Value:           value,
			Gas:             gas,
			AllowanceTarget: resp.AllowanceTarget,
		},
		FetchedAt: now,
		ExpiresAt: now.Add(quoteTTL),
	}, nil
}

func (a *Aggregator) solanaQuote(ctx context.Context, req Request) (*Quote, error) {
	bps := int(req.Slippage.Mul(decimal.NewFromInt(10000)).IntPart())
	resp, err := a.jupiter.GetQuote(ctx, jupiter.QuoteParams{
		InputMint:   req.SellToken,
		OutputMint:  req.BuyToken,
		Amount:      req.Amount.String(),
		SlippageBps: bps,
	})
	if err != nil {
		return nil, err
	}

	swap, err := a.jupiter.BuildSwapTx(ctx, resp, req.Taker)
	if err != nil {
		return nil, err
	}

	inAmount, ok := new(big.Int).SetString(resp.InAmount, 10)
	if !ok {
		return nil, fmt.Errorf("parse inAmount %q", resp.InAmount)
	}
	outAmount, ok := new(big.Int).SetString(resp.OutAmount, 10)
	if !ok {
		return nil, fmt.Errorf("parse outAmount %q", resp.OutAmount)
	}
	minReceived := outAmount
	if threshold, ok := new(big.Int).SetString(resp.OtherAmountThreshold, 10); ok {
		minReceived = threshold
	}

	var price decimal.Decimal
	if inAmount.Sign() > 0 {
		price = decimal.NewFromBigInt(outAmount, 0).Div(decimal.NewFromBigInt(inAmount, 0))
	}

	routes := make([]string, 0, len(resp.RoutePlan))
	for _, step := range resp.RoutePlan {
		routes = append(routes, step.SwapInfo.Label)
	}

	now := time.Now()
	return &Quote{
		Chain:       req.Chain,
		SellToken:   req.SellToken,
		BuyToken:    req.BuyToken,
		SellAmount:  inAmount,
		BuyAmount:   outAmount,
		MinReceived: minReceived,
		Price:       price,
		Route:       routes,
		Tx:          UnsignedTx{SolanaTxBase64: swap.SwapTransaction},
		FetchedAt:   now,
		ExpiresAt:   now.Add(quoteTTL),
	}, nil
}

// mapProviderError 提供方错误折算成 model 哨兵
func mapProviderError(err error) error {
	switch {
	case errors.Is(err, zerox.ErrNoRoute), errors.Is(err, jupiter.ErrNoRoute):
		return fmt.Errorf("%w: %v", model.ErrInsufficientLiquidity, err)
	case httpclient.IsRateLimited(err):
		return fmt.Errorf("%w: %v", model.ErrRateLimited, err)
	default:
		return fmt.Errorf("%w: %v", model.ErrQuoteUnavailable, err)
	}
}
