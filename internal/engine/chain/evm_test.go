package chain

import (
	"errors"
	"math/big"
	"testing"
)

func TestEIP1559Fees(t *testing.T) {
	baseFee := big.NewInt(30_000_000_000) // 30 gwei
	tip := big.NewInt(2_000_000_000)      // 2 gwei

	fee := eip1559Fees(baseFee, tip, 1)
	if !fee.EIP1559 {
		t.Fatal("expected EIP-1559 estimate")
	}
	if fee.TipCap.Cmp(tip) != 0 {
		t.Errorf("tip = %s, want %s", fee.TipCap, tip)
	}
	// maxFee = 2*baseFee + tip = 62 gwei
	want := big.NewInt(62_000_000_000)
	if fee.MaxFee.Cmp(want) != 0 {
		t.Errorf("maxFee = %s, want %s", fee.MaxFee, want)
	}
}

func TestEIP1559FeesTipFloor(t *testing.T) {
	baseFee := big.NewInt(10_000_000_000)
	suggested := big.NewInt(100_000_000) // 0.1 gwei，低于下限

	fee := eip1559Fees(baseFee, suggested, 2)
	wantTip := big.NewInt(2_000_000_000)
	if fee.TipCap.Cmp(wantTip) != 0 {
		t.Errorf("tip = %s, want floor %s", fee.TipCap, wantTip)
	}
	wantMax := big.NewInt(22_000_000_000)
	if fee.MaxFee.Cmp(wantMax) != 0 {
		t.Errorf("maxFee = %s, want %s", fee.MaxFee, wantMax)
	}
}

type fakeDataError struct {
	msg  string
	data interface{}
}

func (e *fakeDataError) Error() string          { return e.msg }
func (e *fakeDataError) ErrorData() interface{} { return e.data }

func TestRevertReasonDecodesErrorString(t *testing.T) {
	// Error("TRANSFER_FROM_FAILED") 的 ABI 编码
	payload := "0x08c379a0" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"0000000000000000000000000000000000000000000000000000000000000014" +
		"5452414e534645525f46524f4d5f4641494c4544000000000000000000000000"

	reason, ok := revertReason(&fakeDataError{msg: "execution reverted", data: payload})
	if !ok {
		t.Fatal("expected revert detection")
	}
	if reason != "TRANSFER_FROM_FAILED" {
		t.Errorf("reason = %q, want TRANSFER_FROM_FAILED", reason)
	}
}

func TestRevertReasonCustomError(t *testing.T) {
	reason, ok := revertReason(&fakeDataError{msg: "execution reverted", data: "0xdeadbeef"})
	if !ok {
		t.Fatal("expected revert detection")
	}
	if reason != "0xdeadbeef" {
		t.Errorf("reason = %q, want selector 0xdeadbeef", reason)
	}
}

func TestRevertReasonStringFallback(t *testing.T) {
	reason, ok := revertReason(errors.New("execution reverted: Pausable: paused"))
	if !ok {
		t.Fatal("expected revert detection")
	}
	if reason != "Pausable: paused" {
		t.Errorf("reason = %q", reason)
	}
}

func TestRevertReasonInfraError(t *testing.T) {
	if _, ok := revertReason(errors.New("connection refused")); ok {
		t.Error("infra error misread as revert")
	}
}

func TestRegistryDispatch(t *testing.T) {
	a := &EVMAdapter{chain: "BSC"}
	reg := NewRegistry(a)

	got, err := reg.Get("BSC")
	if err != nil {
		t.Fatal(err)
	}
	if got.Chain() != "BSC" {
		t.Errorf("chain = %s", got.Chain())
	}

	if _, err := reg.Get("APTOS"); err == nil {
		t.Error("expected error for unsupported chain")
	}
}
