package utils

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// IsUnixSeconds 检查时间戳是否为秒级
func IsUnixSeconds(ts int64) bool {
	// 时间戳范围：1970-01-01 到 2100-01-01
	const maxUnix = 4_102_444_800 // 2100-01-01 00:00:00 UTC
	return ts >= 0 && ts < maxUnix
}

// ChecksumAddress 将 EVM 地址转换为 EIP-55 Checksum 格式
func ChecksumAddress(addr string, network string) string {
	if addr == "" {
		return ""
	}

	network = strings.ToUpper(strings.TrimSpace(network))
	addr = strings.TrimSpace(addr)

	if network == "BSC" || network == "ETH" || network == "BASE" {
		addr = strings.TrimPrefix(strings.ToLower(addr), "0x")
		return common.HexToAddress("0x" + addr).Hex()
	}

	// 非 EVM 网络，直接返回原始地址
	return addr
}

// ToBaseUnits 将十进制数量换算成链上最小单位
func ToBaseUnits(value decimal.Decimal, decimals uint8) *big.Int {
	scaled := value.Mul(decimal.New(1, int32(decimals)))
	return scaled.BigInt()
}

// FormatUnits 格式化单位转换
func FormatUnits(amount *big.Int, decimals uint8) string {
	decimalAmount := decimal.NewFromBigInt(amount, 0)
	divisor := decimal.New(1, int32(decimals))
	result := decimalAmount.Div(divisor)
	return result.StringFixed(int32(decimals))
}
