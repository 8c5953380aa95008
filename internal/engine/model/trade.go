package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide 交易方向
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// ProposalStatus 提案状态，EXPIRED/CANCELLED 为终态
type ProposalStatus string

const (
	ProposalProposed  ProposalStatus = "PROPOSED"
	ProposalConfirmed ProposalStatus = "CONFIRMED"
	ProposalExpired   ProposalStatus = "EXPIRED"
	ProposalCancelled ProposalStatus = "CANCELLED"
)

// TradeProposal 交易提案。CONFIRMED 之前归 Session Gate 独占，
// 确认后所有权移交 Trade Executor
type TradeProposal struct {
	ID        string          `json:"id"`
	Requester string          `json:"requester"`
	Chain     string          `json:"chain"`
	Side      TradeSide       `json:"side"`
	Token     TokenIdentity   `json:"token"`
	// BUY 为美元名义金额，SELL 为持仓百分比 (0,100]
	Amount     decimal.Decimal `json:"amount"`
	Slippage   decimal.Decimal `json:"slippage"` // 容忍度，0.01 = 1%
	Assessment *RiskAssessment `json:"assessment,omitempty"`
	Status     ProposalStatus  `json:"status"`
	Mirrored   bool            `json:"mirrored"` // 是否由镜像信号生成
	SourceWallet string        `json:"source_wallet,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ExecState 执行状态机状态
type ExecState string

const (
	StateQuoting      ExecState = "QUOTING"
	StateBuilding     ExecState = "BUILDING"
	StateSigning      ExecState = "SIGNING"
	StateBroadcasting ExecState = "BROADCASTING"
	StateConfirming   ExecState = "CONFIRMING"
)

// ExecStatus 执行终态
type ExecStatus string

const (
	ExecSuccess ExecStatus = "SUCCESS"
	ExecFailed  ExecStatus = "FAILED"
	ExecAborted ExecStatus = "ABORTED"
	ExecRunning ExecStatus = "RUNNING"
)

// FailKind 失败原因分类
type FailKind string

const (
	FailReverted    FailKind = "reverted"
	FailTimeout     FailKind = "timeout"
	FailNoRoute     FailKind = "no_route"
	FailRateLimited FailKind = "rate_limited"
	FailInfra       FailKind = "infra"
)

// AttemptRecord 单次尝试记录，只追加
type AttemptRecord struct {
	Attempt       int             `json:"attempt"`
	State         ExecState       `json:"state"`
	QuotePrice    decimal.Decimal `json:"quote_price,omitempty"`
	QuoteExpiry   time.Time       `json:"quote_expiry,omitempty"`
	GasParams     string          `json:"gas_params,omitempty"`
	TxHash        string          `json:"tx_hash,omitempty"`
	ReceiptStatus string          `json:"receipt_status,omitempty"`
	Error         string          `json:"error,omitempty"`
	At            time.Time       `json:"at"`
}

// TradeExecution 一次确认后的交易执行，尝试日志只追加，终态后不再变化
type TradeExecution struct {
	Proposal  *TradeProposal  `json:"proposal"`
	Attempts  []AttemptRecord `json:"attempts"`
	Status    ExecStatus      `json:"status"`
	Kind      FailKind        `json:"fail_kind,omitempty"`
	TxHash    string          `json:"tx_hash,omitempty"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at,omitempty"`
}

// AppendAttempt 追加一条尝试记录
func (e *TradeExecution) AppendAttempt(rec AttemptRecord) {
	rec.At = time.Now()
	e.Attempts = append(e.Attempts, rec)
}

// Terminal 是否已到终态
func (e *TradeExecution) Terminal() bool {
	switch e.Status {
	case ExecSuccess, ExecFailed, ExecAborted:
		return true
	}
	return false
}
