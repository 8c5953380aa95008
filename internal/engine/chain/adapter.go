package chain

import (
	"context"
	"fmt"
	"math/big"

	"web3-trader/internal/engine/config"
	"web3-trader/internal/engine/quote"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/gagliardetto/solana-go"
)

// FeeEstimate 链上费率估算结果
type FeeEstimate struct {
	EIP1559  bool
	GasPrice *big.Int // legacy 链
	BaseFee  *big.Int
	TipCap   *big.Int
	MaxFee   *big.Int // 2*baseFee + tip
}

func (f *FeeEstimate) String() string {
	if f.EIP1559 {
		return fmt.Sprintf("maxFee=%s tip=%s baseFee=%s", f.MaxFee, f.TipCap, f.BaseFee)
	}
	return fmt.Sprintf("gasPrice=%s", f.GasPrice)
}

// SimCall 调用模拟请求。EVM 用 From/To/Data/Value，
// Solana 直接给完整交易字节。VirtualBalance 通过状态覆盖注入，
// 临时账户无需真实资金
type SimCall struct {
	From           string
	To             string
	Data           []byte
	Value          *big.Int
	Gas            uint64
	VirtualBalance *big.Int
	// StateDiff 合约存储覆盖：合约地址 -> slot -> value（仅EVM）
	StateDiff map[string]map[common.Hash]common.Hash
	RawTx     []byte
}

// SimOutcome 模拟结果。Reverted=false 且 err=nil 表示调用成功；
// 基础设施错误不会出现在这里，而是 SimulateCall 的 error 返回
type SimOutcome struct {
	Success      bool
	ReturnData   []byte
	GasUsed      uint64
	Reverted     bool
	RevertReason string
}

// PreparedTx 已填好费率/nonce 的未签名交易
type PreparedTx struct {
	Chain     string
	EVM       *ethtypes.Transaction
	Solana    *solana.Transaction
	GasParams string
}

// SignedTx 已签名交易
type SignedTx struct {
	Chain  string
	EVM    *ethtypes.Transaction
	Solana *solana.Transaction
	Hash   string
}

// Receipt 确认回执
type Receipt struct {
	TxHash      string
	Confirmed   bool
	Reverted    bool
	BlockNumber uint64
}

// Adapter 按链家族实现的统一能力接口：余额/nonce/费率/模拟/构建/签名/广播/确认。
// 不做继承层次，按链标识在 Registry 做接口分发
type Adapter interface {
	Chain() string
	Params() config.ChainConfig
	Balance(ctx context.Context, addr string) (*big.Int, error)
	Nonce(ctx context.Context, addr string) (uint64, error)
	FeeEstimate(ctx context.Context) (*FeeEstimate, error)
	SimulateCall(ctx context.Context, call SimCall) (*SimOutcome, error)
	BuildSwapTx(ctx context.Context, q *quote.Quote, from string) (*PreparedTx, error)
	// SignTx 的 key 由调用方临时借出，签名完立即归还，适配器不得持有
	SignTx(ctx context.Context, tx *PreparedTx, key []byte) (*SignedTx, error)
	Broadcast(ctx context.Context, tx *SignedTx) (string, error)
	WaitReceipt(ctx context.Context, txHash string) (*Receipt, error)
}

// Registry 链适配器注册表
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		r.adapters[a.Chain()] = a
	}
	return r
}

func (r *Registry) Get(chain string) (Adapter, error) {
	a, ok := r.adapters[chain]
	if !ok {
		return nil, fmt.Errorf("unsupported chain: %s", chain)
	}
	return a, nil
}

func (r *Registry) Chains() []string {
	chains := make([]string, 0, len(r.adapters))
	for c := range r.adapters {
		chains = append(chains, c)
	}
	return chains
}
