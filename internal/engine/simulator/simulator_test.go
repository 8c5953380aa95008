package simulator

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	"web3-trader/internal/engine/chain"
	"web3-trader/internal/engine/config"
	"web3-trader/internal/engine/model"
	"web3-trader/internal/engine/quote"

	"go.uber.org/zap"
)

func TestClassifyRevert(t *testing.T) {
	cases := []struct {
		scenario model.Scenario
		reason   string
		wantTag  string
		wantFlag string
	}{
		{model.ScenarioSell, "TransferHelper: TRANSFER_FROM_FAILED", "SELL_BLOCKED", model.FlagSellBlocked},
		{model.ScenarioSell, "Pausable: paused", "PAUSED", model.FlagPaused},
		{model.ScenarioBuy, "Trading not enabled yet", "TRADING_NOT_OPEN", model.FlagTradingNotOpen},
		{model.ScenarioBuy, "Address is blacklisted", "BLACKLISTED", model.FlagBlacklistFunc},
		{model.ScenarioBuy, "Transfer amount exceeds the maxTxAmount.", "MAX_TX_LIMIT", model.FlagMaxTxLimit},
		{model.ScenarioSell, "please wait before next trade, cooldown active", "COOLDOWN", model.FlagTradingCooldown},
		{model.ScenarioTransfer, "TRANSFER_FAILED", "SELL_BLOCKED", model.FlagTransferBlocked},
		{model.ScenarioSell, "0xdeadbeef", "UNKNOWN", model.FlagSellBlocked},
		{model.ScenarioBuy, "something nobody has seen", "UNKNOWN", model.FlagUnknownRevert},
		{model.ScenarioSell, "insufficient funds for transfer", "INSUFFICIENT_FUNDS", ""},
	}

	for _, tc := range cases {
		tag, flag := classifyRevert(tc.scenario, tc.reason)
		if tag != tc.wantTag || flag != tc.wantFlag {
			t.Errorf("classifyRevert(%s, %q) = (%s, %s), want (%s, %s)",
				tc.scenario, tc.reason, tag, flag, tc.wantTag, tc.wantFlag)
		}
	}
}

func TestContextualRevert(t *testing.T) {
	if !contextualRevert("INSUFFICIENT_FUNDS") || !contextualRevert("DEADLINE_EXPIRED") {
		t.Error("context-caused tags must be informational")
	}
	if contextualRevert("SELL_BLOCKED") {
		t.Error("SELL_BLOCKED is token behavior, not context")
	}
}

func TestTokenStateDiffCoversBalanceAndAllowance(t *testing.T) {
	owner := [20]byte{1}
	spender := [20]byte{2}
	diff := tokenStateDiff("0xtoken", owner, spender)

	slots := diff["0xtoken"]
	// Solidity 余额 9 + 授权 9 + Vyper 4
	if len(slots) != 22 {
		t.Errorf("slot count = %d, want 22", len(slots))
	}
	want := simTokenBalance
	for slot, v := range slots {
		if v.Big().Cmp(want) != 0 {
			t.Errorf("slot %s value = %s, want %s", slot, v.Big(), want)
		}
	}
}

// fakeAdapter 按 calldata 前缀返回预设结果
type fakeAdapter struct {
	chainName string
	cfg       config.ChainConfig
	outcomes  map[string]*chain.SimOutcome // selector hex 前 8 位 -> outcome
}

func (f *fakeAdapter) Chain() string             { return f.chainName }
func (f *fakeAdapter) Params() config.ChainConfig { return f.cfg }
func (f *fakeAdapter) Balance(ctx context.Context, addr string) (*big.Int, error) {
	return new(big.Int), nil
}
func (f *fakeAdapter) Nonce(ctx context.Context, addr string) (uint64, error) { return 0, nil }
func (f *fakeAdapter) FeeEstimate(ctx context.Context) (*chain.FeeEstimate, error) {
	return &chain.FeeEstimate{}, nil
}
func (f *fakeAdapter) SimulateCall(ctx context.Context, call chain.SimCall) (*chain.SimOutcome, error) {
	for selector, out := range f.outcomes {
		if bytes.HasPrefix(call.Data, mustSelector(selector)) {
			return out, nil
		}
	}
	return &chain.SimOutcome{Success: true}, nil
}
func (f *fakeAdapter) BuildSwapTx(ctx context.Context, q *quote.Quote, from string) (*chain.PreparedTx, error) {
	return nil, nil
}
func (f *fakeAdapter) SignTx(ctx context.Context, tx *chain.PreparedTx, key []byte) (*chain.SignedTx, error) {
	return nil, nil
}
func (f *fakeAdapter) Broadcast(ctx context.Context, tx *chain.SignedTx) (string, error) {
	return "", nil
}
func (f *fakeAdapter) WaitReceipt(ctx context.Context, txHash string) (*chain.Receipt, error) {
	return nil, nil
}

func mustSelector(method string) []byte {
	return routerOrERC20Selector(method)
}

func routerOrERC20Selector(method string) []byte {
	if m, ok := routerABI.Methods[method]; ok {
		return m.ID
	}
	return erc20ABI.Methods[method].ID
}

func newFakeRegistry(outcomes map[string]*chain.SimOutcome) *chain.Registry {
	return chain.NewRegistry(&fakeAdapter{
		chainName: model.ChainBSC,
		cfg: config.ChainConfig{
			Router:        "0x10ED43C718714eb63d5aA57B78B54704E256024E",
			WrappedNative: "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c",
		},
		outcomes: outcomes,
	})
}

func testToken() model.TokenIdentity {
	return model.TokenIdentity{
		Chain:    model.ChainBSC,
		Address:  "0x1111111111111111111111111111111111111111",
		Decimals: 18,
		Symbol:   "TEST",
	}
}

func TestSimulateDetectsHoneypot(t *testing.T) {
	sim := NewSimulator(newFakeRegistry(map[string]*chain.SimOutcome{
		"swapExactTokensForETH": {Reverted: true, RevertReason: "TransferHelper: TRANSFER_FROM_FAILED"},
	}), nil, zap.NewNop())

	result, err := sim.Simulate(context.Background(), testToken(), "")
	if err != nil {
		t.Fatal(err)
	}

	if !result.SellReverted() {
		t.Fatal("sell revert not detected")
	}
	if !result.HasFlag(model.FlagSellBlocked) {
		t.Errorf("flags = %v, want sell_blocked", result.Flags)
	}
	if buy := result.Scenarios[model.ScenarioBuy]; buy.Outcome != model.OutcomeSuccess {
		t.Errorf("buy outcome = %s", buy.Outcome)
	}
}

func TestSimulateCleanToken(t *testing.T) {
	sim := NewSimulator(newFakeRegistry(nil), nil, zap.NewNop())

	result, err := sim.Simulate(context.Background(), testToken(), "")
	if err != nil {
		t.Fatal(err)
	}
	if result.SellReverted() {
		t.Error("clean token reported as honeypot")
	}
	if len(result.Flags) != 0 {
		t.Errorf("flags = %v, want none", result.Flags)
	}
	if len(result.Scenarios) != 3 {
		t.Errorf("scenario count = %d, want 3", len(result.Scenarios))
	}
}

func TestSimulateBuyFailureDowngradesRest(t *testing.T) {
	sim := NewSimulator(newFakeRegistry(map[string]*chain.SimOutcome{
		"swapExactETHForTokens": {Reverted: true, RevertReason: "Trading not enabled yet"},
		"swapExactTokensForETH": {Reverted: true, RevertReason: "TRANSFER_FROM_FAILED"},
	}), nil, zap.NewNop())

	result, err := sim.Simulate(context.Background(), testToken(), "")
	if err != nil {
		t.Fatal(err)
	}

	// BUY 失败后 SELL 的失败不能构成硬结论
	if result.SellReverted() {
		t.Error("informational sell revert treated as hard failure")
	}
	sell := result.Scenarios[model.ScenarioSell]
	if !sell.Informational {
		t.Error("sell result not downgraded")
	}
	if !result.HasFlag(model.FlagBuyFailedContext) {
		t.Errorf("flags = %v, want buy_failed_context", result.Flags)
	}
	if !result.HasFlag(model.FlagTradingNotOpen) {
		t.Errorf("flags = %v, want trading_not_open", result.Flags)
	}
}
