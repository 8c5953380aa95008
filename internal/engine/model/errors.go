package model

import (
	"errors"
	"fmt"
)

// 错误分类。基础设施错误本地有界退避重试；
// 策略类拒绝立即上抛并附带具体因子，不允许黑盒拒绝
var (
	// ErrSimulationUnavailable 无法构造模拟上下文，只能视为未知风险，绝不视为安全
	ErrSimulationUnavailable = errors.New("simulation unavailable")
	// ErrQuoteUnavailable 询价失败，可重试
	ErrQuoteUnavailable = errors.New("quote unavailable")
	// ErrInsufficientLiquidity 无可用路由，终态失败
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrRateLimited 上游限流，可退避重试或轮换key
	ErrRateLimited = errors.New("rate limited")
	// ErrExecutionReverted 广播后链上失败，单次尝试终态
	ErrExecutionReverted = errors.New("execution reverted")
	// ErrExecutionTimeout 限时内未确认，资金去向不明，必须与revert区分上报
	ErrExecutionTimeout = errors.New("execution timeout")
	// ErrPolicyBlocked 安全分或safe-mode阈值不达标，永不重试
	ErrPolicyBlocked = errors.New("policy blocked")
)

// PolicyError 策略拒绝详情：哪个阈值没过、当前值是多少
type PolicyError struct {
	Token     TokenIdentity
	Score     float64
	Threshold float64
	Level     RiskLevel
	Factors   []RiskFactor
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("policy blocked: %s score %.2f below threshold %.2f (level %s)",
		e.Token, e.Score, e.Threshold, e.Level)
}

func (e *PolicyError) Unwrap() error { return ErrPolicyBlocked }

// SimulationError 模拟不可用详情：哪条链、哪一步失败
type SimulationError struct {
	Token  TokenIdentity
	Reason string
	Err    error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulation unavailable for %s: %s", e.Token, e.Reason)
}

func (e *SimulationError) Unwrap() error { return ErrSimulationUnavailable }

// RevertError 场景revert详情：场景、匹配到的签名标签
type RevertError struct {
	Scenario Scenario
	Tag      string
	Reason   string
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("%s reverted [%s]: %s", e.Scenario, e.Tag, e.Reason)
}

func (e *RevertError) Unwrap() error { return ErrExecutionReverted }
