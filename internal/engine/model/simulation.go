package model

import "time"

// Scenario 模拟场景
type Scenario string

const (
	ScenarioBuy      Scenario = "BUY"
	ScenarioSell     Scenario = "SELL"
	ScenarioTransfer Scenario = "TRANSFER"
)

// Outcome 单场景模拟结果
type Outcome string

const (
	OutcomeSuccess  Outcome = "SUCCESS"
	OutcomeReverted Outcome = "REVERTED"
	OutcomeTimeout  Outcome = "TIMEOUT"
)

// 限制类标记（未必直接构成蜜罐，但参与扣分）
const (
	FlagSellBlocked      = "sell_blocked"
	FlagHighTax          = "high_tax" // 实收远低于应收
	FlagMaxTxLimit       = "max_tx_limit"
	FlagMaxWalletLimit   = "max_wallet_limit"
	FlagBlacklistFunc    = "blacklist_function_present"
	FlagTradingCooldown  = "trading_cooldown"
	FlagTradingNotOpen   = "trading_not_open"
	FlagPaused           = "paused"
	FlagTransferBlocked  = "transfer_blocked"
	FlagUnknownRevert    = "unrecognized_revert"
	FlagBuyFailedContext = "buy_failed_context" // BUY失败时 SELL/TRANSFER 仅供参考
)

// ScenarioResult 单场景结果，REVERTED 时带原因标签
type ScenarioResult struct {
	Scenario     Scenario `json:"scenario"`
	Outcome      Outcome  `json:"outcome"`
	RevertTag    string   `json:"revert_tag,omitempty"`    // 已知蜜罐签名标签
	RevertReason string   `json:"revert_reason,omitempty"` // 原始revert内容
	GasEstimate  uint64   `json:"gas_estimate,omitempty"`
	// BUY失败后 SELL/TRANSFER 的结论降级为仅供参考
	Informational bool `json:"informational,omitempty"`
}

// SimulationResult 一次完整蜜罐模拟的结果，创建后不再修改；
// 新一轮分析产生新结果，历史按 token+timestamp 追加保存
type SimulationResult struct {
	Token      TokenIdentity               `json:"token"`
	Scenarios  map[Scenario]ScenarioResult `json:"scenarios"`
	Flags      []string                    `json:"flags"`
	SimulatedAt time.Time                  `json:"simulated_at"`
}

// SellReverted SELL 场景是否硬失败（非降级信息）
func (r *SimulationResult) SellReverted() bool {
	s, ok := r.Scenarios[ScenarioSell]
	return ok && s.Outcome == OutcomeReverted && !s.Informational
}

// HasFlag 是否带有指定限制标记
func (r *SimulationResult) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}
