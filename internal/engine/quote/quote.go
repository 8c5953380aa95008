package quote

import (
	"context"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Request 询价请求，EVM 与 Solana 共用一个形状
type Request struct {
	Chain     string
	SellToken string
	BuyToken  string
	// 卖出数量，链上最小单位
	Amount   *big.Int
	Slippage decimal.Decimal // 0.01 = 1%
	Taker    string          // 吃单钱包地址
}

// UnsignedTx 聚合器返回的未签名交易载荷
type UnsignedTx struct {
	// EVM 字段
	To              string
	Data            []byte
	Value           *big.Int
	Gas             uint64
	AllowanceTarget string
	// Solana：base64 序列化交易
	SolanaTxBase64 string
}

// Quote 归一化后的报价。EVM（0x）与 Solana（Jupiter）响应都折算成这个形状
type Quote struct {
	Chain       string
	SellToken   string
	BuyToken    string
	SellAmount  *big.Int
	BuyAmount   *big.Int
	MinReceived *big.Int
	Price       decimal.Decimal // buy/sell 成交价
	Route       []string        // 流动性来源
	Tx          UnsignedTx
	FetchedAt   time.Time
	ExpiresAt   time.Time
}

// Expired 报价是否超出有效窗口
func (q *Quote) Expired() bool {
	return time.Now().After(q.ExpiresAt)
}

// Provider 报价提供方。按链分发到 0x / Jupiter
type Provider interface {
	GetQuote(ctx context.Context, req Request) (*Quote, error)
}
