package utils

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestGetHashBucket(t *testing.T) {
	const workers = 8

	// 同一个 key 必须稳定落在同一个桶
	a := GetHashBucket("BSC:0xwallet", workers)
	b := GetHashBucket("BSC:0xwallet", workers)
	if a != b {
		t.Errorf("bucket not stable: %d vs %d", a, b)
	}
	if a >= workers {
		t.Errorf("bucket %d out of range [0,%d)", a, workers)
	}

	// 不同 key 应当分散（抽样验证不全落同桶）
	seen := make(map[uint32]bool)
	keys := []string{"BSC:0xa", "ETH:0xb", "SOL:walletc", "BASE:0xd", "BSC:0xe"}
	for _, k := range keys {
		seen[GetHashBucket(k, workers)] = true
	}
	if len(seen) < 2 {
		t.Errorf("all keys hashed to one bucket: %v", seen)
	}
}

func TestIsUnixSeconds(t *testing.T) {
	if !IsUnixSeconds(1_700_000_000) {
		t.Error("seconds timestamp rejected")
	}
	if IsUnixSeconds(1_700_000_000_000) {
		t.Error("millisecond timestamp accepted as seconds")
	}
	if IsUnixSeconds(-1) {
		t.Error("negative timestamp accepted")
	}
}

func TestChecksumAddress(t *testing.T) {
	// EVM 链折算成 EIP-55 大小写
	got := ChecksumAddress("0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c", "BSC")
	want := "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"
	if got != want {
		t.Errorf("checksum = %s, want %s", got, want)
	}

	// 非 EVM 链原样返回
	mint := "So11111111111111111111111111111111111111112"
	if got := ChecksumAddress(mint, "SOL"); got != mint {
		t.Errorf("solana address mangled: %s", got)
	}

	if got := ChecksumAddress("", "ETH"); got != "" {
		t.Errorf("empty address: %q", got)
	}
}

func TestBaseUnitsRoundTrip(t *testing.T) {
	amount := decimal.NewFromFloat(1.5)
	base := ToBaseUnits(amount, 18)
	if base.Cmp(big.NewInt(1_500_000_000_000_000_000)) != 0 {
		t.Errorf("base units = %s", base)
	}

	if got := FormatUnits(base, 18); got != "1.500000000000000000" {
		t.Errorf("formatted = %s", got)
	}
	if got := FormatUnits(big.NewInt(123_456_789), 9); got != "0.123456789" {
		t.Errorf("formatted = %s", got)
	}
}

func TestHistoryKeys(t *testing.T) {
	if got := AssessmentKey("BSC", "0xabc"); got != "risk:BSC:0xabc" {
		t.Errorf("assessment key = %s", got)
	}
	if got := SimulationHistoryKey("BSC", "0xabc", 1700000000000); got != "sim:BSC:0xabc:1700000000000" {
		t.Errorf("simulation key = %s", got)
	}
}
