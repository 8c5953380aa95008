package model

import "fmt"

// 支持的链标识
const (
	ChainETH  = "ETH"
	ChainBSC  = "BSC"
	ChainBASE = "BASE"
	ChainSOL  = "SOL"
)

// IsEVMChain 判断是否为 EVM 系链
func IsEVMChain(chain string) bool {
	switch chain {
	case ChainETH, ChainBSC, ChainBASE:
		return true
	}
	return false
}

// TokenIdentity 代币身份，解析后不可变，可缓存
type TokenIdentity struct {
	Chain    string `json:"chain"`
	Address  string `json:"address"` // EVM 合约地址 / Solana mint
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"` // 尽力解析，可能为空
}

// Key 缓存键：链 + 地址唯一确定一个代币
func (t TokenIdentity) Key() string {
	return fmt.Sprintf("%s:%s", t.Chain, t.Address)
}

func (t TokenIdentity) String() string {
	if t.Symbol != "" {
		return fmt.Sprintf("%s(%s:%s)", t.Symbol, t.Chain, t.Address)
	}
	return t.Key()
}
