package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskLevel 风险等级
type RiskLevel string

const (
	LevelSafe     RiskLevel = "SAFE"
	LevelLow      RiskLevel = "LOW"
	LevelMedium   RiskLevel = "MEDIUM"
	LevelHigh     RiskLevel = "HIGH"
	LevelCritical RiskLevel = "CRITICAL"
)

// LevelBoundaries 分数到等级的固定边界，属于部署策略常量
type LevelBoundaries struct {
	Safe   float64 `mapstructure:"safe"`
	Low    float64 `mapstructure:"low"`
	Medium float64 `mapstructure:"medium"`
	High   float64 `mapstructure:"high"`
}

// DefaultBoundaries 默认等级边界
func DefaultBoundaries() LevelBoundaries {
	return LevelBoundaries{Safe: 8.0, Low: 6.0, Medium: 4.0, High: 2.0}
}

// LevelFor 等级是分数的确定性单调函数
func LevelFor(score float64, b LevelBoundaries) RiskLevel {
	switch {
	case score >= b.Safe:
		return LevelSafe
	case score >= b.Low:
		return LevelLow
	case score >= b.Medium:
		return LevelMedium
	case score >= b.High:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// RiskFactor 评分构成因子，按扣分从大到小排序
type RiskFactor struct {
	Source      string  `json:"source"` // simulator / security_scan / liquidity / market
	Weight      float64 `json:"weight"` // 扣分值，正数
	Description string  `json:"description"`
}

// RiskAssessment 综合风险评估
type RiskAssessment struct {
	Token          TokenIdentity   `json:"token"`
	Score          float64         `json:"score"` // [0.0, 10.0]
	Level          RiskLevel       `json:"level"`
	Factors        []RiskFactor    `json:"factors"`
	Recommendation string          `json:"recommendation"`
	// 评估构造时原子捕获的价格快照，后续盈亏计算以此为准
	LockedPriceUSD decimal.Decimal `json:"locked_price_usd"`
	PriceLockedAt  time.Time       `json:"price_locked_at"`
	AssessedAt     time.Time       `json:"assessed_at"`
}
