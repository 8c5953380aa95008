package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MirrorSignal 观察到的跟踪钱包买卖事件。
// 只被 Mirror Signal Processor 消费一次：要么被过滤丢弃，要么转化为 TradeProposal
type MirrorSignal struct {
	SourceWallet string          `json:"source_wallet"`
	Side         TradeSide       `json:"side"`
	Token        TokenIdentity   `json:"token"`
	AmountUSD    decimal.Decimal `json:"amount_usd"`
	TxHash       string          `json:"tx_hash"`
	DiscoveredAt time.Time       `json:"discovered_at"`
}

// PendingSwapEvent mempool 订阅端按 router 地址/方法选择器过滤后
// 投递到 Kafka 的待确认交易事件（上游协作方产出，本引擎只消费）
type PendingSwapEvent struct {
	Chain        string `json:"chain"`
	TxHash       string `json:"tx_hash"`
	Wallet       string `json:"wallet"`
	Router       string `json:"router"`
	Selector     string `json:"selector"`
	TokenIn      string `json:"token_in"`
	TokenOut     string `json:"token_out"`
	TokenSymbol  string `json:"token_symbol,omitempty"`
	TokenDecimals uint8 `json:"token_decimals,omitempty"`
	AmountUSD    string `json:"amount_usd"`
	Time         int64  `json:"time"` // unix 秒
}
