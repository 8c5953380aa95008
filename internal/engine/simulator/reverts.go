package simulator

import (
	"strings"

	"web3-trader/internal/engine/model"
)

// 已知蜜罐/限制类 revert 签名。靠子串匹配：不同合约对同一限制的
// 报错文案五花八门，这里收敛到固定标签集
type revertSignature struct {
	substrings []string
	tag        string
	flag       string
}

var revertSignatures = []revertSignature{
	{
		substrings: []string{"TRANSFER_FROM_FAILED", "TRANSFER_FAILED", "transfer amount exceeds"},
		tag:        "SELL_BLOCKED",
		flag:       model.FlagSellBlocked,
	},
	{
		substrings: []string{"INSUFFICIENT_OUTPUT_AMOUNT", "InsufficientOutputAmount"},
		tag:        "OUTPUT_SHORTFALL",
		flag:       model.FlagHighTax,
	},
	{
		substrings: []string{"Pausable: paused", "paused", "trading paused"},
		tag:        "PAUSED",
		flag:       model.FlagPaused,
	},
	{
		substrings: []string{"blacklist", "Blacklisted", "blocked address", "bot detected", "Bots are not allowed"},
		tag:        "BLACKLISTED",
		flag:       model.FlagBlacklistFunc,
	},
	{
		substrings: []string{"cooldown", "Cooldown", "wait before", "too frequent"},
		tag:        "COOLDOWN",
		flag:       model.FlagTradingCooldown,
	},
	{
		substrings: []string{"trading not open", "Trading not enabled", "Trading is not active", "not yet launched", "trading is disabled"},
		tag:        "TRADING_NOT_OPEN",
		flag:       model.FlagTradingNotOpen,
	},
	{
		substrings: []string{"max transaction", "maxTxAmount", "exceeds the maxTx", "TX limit", "Transfer amount exceeds the maxTxAmount"},
		tag:        "MAX_TX_LIMIT",
		flag:       model.FlagMaxTxLimit,
	},
	{
		substrings: []string{"max wallet", "maxWallet", "exceeds the maxWalletSize", "wallet limit"},
		tag:        "MAX_WALLET_LIMIT",
		flag:       model.FlagMaxWalletLimit,
	},
	{
		substrings: []string{"whitelist", "not whitelisted", "only whitelisted"},
		tag:        "WHITELIST_ONLY",
		flag:       model.FlagTradingNotOpen,
	},
	{
		substrings: []string{"UniswapV2: K", "Pancake: K"},
		tag:        "K_INVARIANT",
		flag:       model.FlagSellBlocked,
	},
	{
		substrings: []string{"EXPIRED"},
		tag:        "DEADLINE_EXPIRED",
		flag:       "",
	},
	{
		// 模拟环境缺资金属于上下文问题，不归因于代币本身
		substrings: []string{"insufficient funds", "insufficient lamports", "InsufficientFunds"},
		tag:        "INSUFFICIENT_FUNDS",
		flag:       "",
	},
}

// contextualRevert 归因于模拟环境而非代币行为的标签，结论降级为仅供参考
func contextualRevert(tag string) bool {
	return tag == "DEADLINE_EXPIRED" || tag == "INSUFFICIENT_FUNDS"
}

// classifyRevert 把原始 revert 内容折算成标签与限制标记。
// 空标记表示该 revert 不参与扣分（例如 deadline 过期属于模拟侧问题）。
// TRANSFER 场景的卖出类签名折算成转账受限
func classifyRevert(scenario model.Scenario, reason string) (tag string, flag string) {
	lower := strings.ToLower(reason)
	for _, sig := range revertSignatures {
		for _, sub := range sig.substrings {
			if strings.Contains(lower, strings.ToLower(sub)) {
				flag = sig.flag
				if scenario == model.ScenarioTransfer &&
					(flag == model.FlagSellBlocked || flag == model.FlagPaused) {
					flag = model.FlagTransferBlocked
				}
				return sig.tag, flag
			}
		}
	}

	switch scenario {
	case model.ScenarioSell:
		return "UNKNOWN", model.FlagSellBlocked
	case model.ScenarioTransfer:
		return "UNKNOWN", model.FlagTransferBlocked
	default:
		return "UNKNOWN", model.FlagUnknownRevert
	}
}
