package model

import (
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// 历史表均为追加式：同一token的新分析产生新行，不覆盖旧行

// SimulationRecord 蜜罐模拟历史行，token+timestamp 唯一
type SimulationRecord struct {
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement:true"`
	Chain        string         `gorm:"column:chain;not null;uniqueIndex:idx_sim_token_ts,priority:1"`
	TokenAddress string         `gorm:"column:token_address;not null;uniqueIndex:idx_sim_token_ts,priority:2"`
	Symbol       string         `gorm:"column:symbol"`
	Scenarios    datatypes.JSON `gorm:"column:scenarios"` // 场景 -> 结果
	Flags        pq.StringArray `gorm:"column:flags;type:text[]"`
	SimulatedAt  int64          `gorm:"column:simulated_at;not null;uniqueIndex:idx_sim_token_ts,priority:3"` // unix 毫秒
}

func (*SimulationRecord) TableName() string {
	return "trader.simulation_history"
}

// AssessmentRecord 风险评估历史行
type AssessmentRecord struct {
	ID             int64           `gorm:"column:id;primaryKey;autoIncrement:true"`
	Chain          string          `gorm:"column:chain;not null;index:idx_assess_token"`
	TokenAddress   string          `gorm:"column:token_address;not null;index:idx_assess_token"`
	Symbol         string          `gorm:"column:symbol"`
	Score          float64         `gorm:"column:score;not null"`
	Level          string          `gorm:"column:level;not null"`
	Factors        datatypes.JSON  `gorm:"column:factors"`
	Recommendation string          `gorm:"column:recommendation"`
	LockedPriceUSD decimal.Decimal `gorm:"column:locked_price_usd"`
	PriceLockedAt  int64           `gorm:"column:price_locked_at"`
	AssessedAt     int64           `gorm:"column:assessed_at;not null"`
}

func (*AssessmentRecord) TableName() string {
	return "trader.assessment_history"
}

// ExecutionRecord 交易执行历史行，按 proposal id 唯一
type ExecutionRecord struct {
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement:true"`
	ProposalID   string         `gorm:"column:proposal_id;not null;uniqueIndex"`
	Requester    string         `gorm:"column:requester"`
	Chain        string         `gorm:"column:chain;not null"`
	Side         string         `gorm:"column:side;not null"`
	TokenAddress string         `gorm:"column:token_address;not null"`
	Amount       decimal.Decimal `gorm:"column:amount"`
	Status       string         `gorm:"column:status;not null"`
	FailKind     string         `gorm:"column:fail_kind"`
	TxHash       string         `gorm:"column:tx_hash"`
	Attempts     datatypes.JSON `gorm:"column:attempts"` // 尝试日志快照
	Mirrored     bool           `gorm:"column:mirrored"`
	SourceWallet string         `gorm:"column:source_wallet"`
	StartedAt    int64          `gorm:"column:started_at;not null"`
	EndedAt      int64          `gorm:"column:ended_at"`
}

func (*ExecutionRecord) TableName() string {
	return "trader.execution_history"
}

// TrackedWallet 镜像跟踪钱包表（含黑名单标记）
type TrackedWallet struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement:true"`
	Chain     string `gorm:"column:chain;not null"`
	Address   string `gorm:"column:address;not null"`
	Blacklist bool   `gorm:"column:blacklist;not null;default:false"`
	Label     string `gorm:"column:label"`
}

func (*TrackedWallet) TableName() string {
	return "trader.tracked_wallets"
}

// BlacklistedToken 代币黑名单表
type BlacklistedToken struct {
	ID      int64  `gorm:"column:id;primaryKey;autoIncrement:true"`
	Chain   string `gorm:"column:chain;not null"`
	Address string `gorm:"column:address;not null"`
	Reason  string `gorm:"column:reason"`
}

func (*BlacklistedToken) TableName() string {
	return "trader.blacklisted_tokens"
}

// Position 当前持仓（镜像卖出按百分比换算的依据）
type Position struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement:true"`
	Requester    string          `gorm:"column:requester;not null;uniqueIndex:idx_pos_owner_token,priority:1"`
	Chain        string          `gorm:"column:chain;not null;uniqueIndex:idx_pos_owner_token,priority:2"`
	TokenAddress string          `gorm:"column:token_address;not null;uniqueIndex:idx_pos_owner_token,priority:3"`
	Symbol       string          `gorm:"column:symbol"`
	Amount       decimal.Decimal `gorm:"column:amount;not null"`
	CostUSD      decimal.Decimal `gorm:"column:cost_usd"`
	UpdatedAt    int64           `gorm:"column:updated_at"`
}

func (*Position) TableName() string {
	return "trader.positions"
}
