package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"web3-trader/internal/engine/config"
	"web3-trader/internal/engine/model"
	"web3-trader/internal/engine/quote"
	"web3-trader/pkg/evm_client"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// EVMAdapter EVM 系链适配器，同一套实现覆盖 ETH/BSC/BASE，差异全部走配置
type EVMAdapter struct {
	chain  string
	cfg    config.ChainConfig
	client *evm_client.Client
	logger *zap.Logger
}

func NewEVMAdapter(chain string, cfg config.ChainConfig, client *evm_client.Client, logger *zap.Logger) *EVMAdapter {
	return &EVMAdapter{
		chain:  chain,
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

func (a *EVMAdapter) Chain() string {
	return a.chain
}

func (a *EVMAdapter) Params() config.ChainConfig {
	return a.cfg
}

func (a *EVMAdapter) Balance(ctx context.Context, addr string) (*big.Int, error) {
	return a.client.Eth.BalanceAt(ctx, common.HexToAddress(addr), nil)
}

func (a *EVMAdapter) Nonce(ctx context.Context, addr string) (uint64, error) {
	return a.client.Eth.PendingNonceAt(ctx, common.HexToAddress(addr))
}

// FeeEstimate EIP-1559 链：maxFee = 2*baseFee + tip，tip 有固定下限；
// 不支持费率市场的链回退 legacy gasPrice
func (a *EVMAdapter) FeeEstimate(ctx context.Context) (*FeeEstimate, error) {
	if !a.cfg.SupportsEIP1559 {
		gasPrice, err := a.client.Eth.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("suggest gas price: %w", err)
		}
		return &FeeEstimate{EIP1559: false, GasPrice: gasPrice}, nil
	}

	header, err := a.client.Eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch head: %w", err)
	}
	if header.BaseFee == nil {
		// 节点声称支持1559但没有baseFee，按legacy处理
		gasPrice, err := a.client.Eth.SuggestGasPrice(ctx)
		if err != nil {
			return nil, err
		}
		return &FeeEstimate{EIP1559: false, GasPrice: gasPrice}, nil
	}

	tip, err := a.client.Eth.SuggestGasTipCap(ctx)
	if err != nil {
		tip = new(big.Int)
	}
	return eip1559Fees(header.BaseFee, tip, a.cfg.PriorityFeeGwei), nil
}

func eip1559Fees(baseFee, suggestedTip *big.Int, floorGwei int64) *FeeEstimate {
	tip := new(big.Int).Set(suggestedTip)
	floor := new(big.Int).Mul(big.NewInt(floorGwei), big.NewInt(1e9))
	if tip.Cmp(floor) < 0 {
		tip = floor
	}

	maxFee := new(big.Int).Mul(baseFee, big.NewInt(2))
	maxFee.Add(maxFee, tip)

	return &FeeEstimate{
		EIP1559: true,
		BaseFee: baseFee,
		TipCap:  tip,
		MaxFee:  maxFee,
	}
}

// SimulateCall 状态覆盖式 eth_call：为 From 注入虚拟余额，无需真实资金。
// revert 返回 SimOutcome.Reverted，基础设施错误返回 error
func (a *EVMAdapter) SimulateCall(ctx context.Context, call SimCall) (*SimOutcome, error) {
	to := common.HexToAddress(call.To)
	msg := ethereum.CallMsg{
		From:  common.HexToAddress(call.From),
		To:    &to,
		Data:  call.Data,
		Value: call.Value,
		Gas:   call.Gas,
	}

	var overrides *map[common.Address]gethclient.OverrideAccount
	if call.VirtualBalance != nil || len(call.StateDiff) > 0 {
		ov := make(map[common.Address]gethclient.OverrideAccount)
		if call.VirtualBalance != nil {
			ov[msg.From] = gethclient.OverrideAccount{Balance: call.VirtualBalance}
		}
		for contract, slots := range call.StateDiff {
			acct := ov[common.HexToAddress(contract)]
			acct.StateDiff = slots
			ov[common.HexToAddress(contract)] = acct
		}
		overrides = &ov
	}

	ret, err := a.client.Geth.CallContract(ctx, msg, nil, overrides)
	if err != nil {
		if reason, ok := revertReason(err); ok {
			return &SimOutcome{Reverted: true, RevertReason: reason}, nil
		}
		return nil, fmt.Errorf("eth_call: %w", err)
	}

	return &SimOutcome{Success: true, ReturnData: ret}, nil
}

// revertReason 从 eth_call 错误中解出 revert 原因。
// 优先解码 Error(string) 载荷，自定义 selector 原样带出
func revertReason(err error) (string, bool) {
	var de rpc.DataError
	if errors.As(err, &de) {
		if data, ok := de.ErrorData().(string); ok && strings.HasPrefix(data, "0x") {
			raw, decodeErr := hexutil.Decode(data)
			if decodeErr == nil && len(raw) >= 4 {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return reason, true
				}
				// 自定义错误：保留 4 字节 selector
				return hexutil.Encode(raw[:4]), true
			}
		}
	}
	msg := err.Error()
	if strings.Contains(msg, "execution reverted") {
		if idx := strings.Index(msg, "execution reverted:"); idx >= 0 {
			return strings.TrimSpace(msg[idx+len("execution reverted:"):]), true
		}
		return "", true
	}
	return "", false
}

func (a *EVMAdapter) BuildSwapTx(ctx context.Context, q *quote.Quote, from string) (*PreparedTx, error) {
	nonce, err := a.Nonce(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}

	fee, err := a.FeeEstimate(ctx)
	if err != nil {
		return nil, err
	}

	to := common.HexToAddress(q.Tx.To)
	value := q.Tx.Value
	if value == nil {
		value = new(big.Int)
	}
	gas := q.Tx.Gas
	if gas == 0 {
		gas = 500_000 // 聚合器没给估算时的保守上限
	}

	var tx *ethtypes.Transaction
	if fee.EIP1559 {
		tx = ethtypes.NewTx(&ethtypes.DynamicFeeTx{
			ChainID:   big.NewInt(a.cfg.ChainID),
			Nonce:     nonce,
			GasTipCap: fee.TipCap,
			GasFeeCap: fee.MaxFee,
			Gas:       gas,
			To:        &to,
			Value:     value,
			Data:      q.Tx.Data,
		})
	} else {
		tx = ethtypes.NewTx(&ethtypes.LegacyTx{
			Nonce:    nonce,
			GasPrice: fee.GasPrice,
			Gas:      gas,
			To:       &to,
			Value:    value,
			Data:     q.Tx.Data,
		})
	}

	return &PreparedTx{Chain: a.chain, EVM: tx, GasParams: fee.String()}, nil
}

func (a *EVMAdapter) SignTx(ctx context.Context, tx *PreparedTx, key []byte) (*SignedTx, error) {
	prv, err := crypto.ToECDSA(key)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}

	signer := ethtypes.LatestSignerForChainID(big.NewInt(a.cfg.ChainID))
	signed, err := ethtypes.SignTx(tx.EVM, signer, prv)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}

	return &SignedTx{Chain: a.chain, EVM: signed, Hash: signed.Hash().Hex()}, nil
}

func (a *EVMAdapter) Broadcast(ctx context.Context, tx *SignedTx) (string, error) {
	if err := a.client.Eth.SendTransaction(ctx, tx.EVM); err != nil {
		return "", err
	}
	return tx.EVM.Hash().Hex(), nil
}

// WaitReceipt 按配置间隔轮询回执，限时未确认返回 ErrExecutionTimeout
func (a *EVMAdapter) WaitReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	pollInterval := time.Duration(a.cfg.ConfirmPollMs) * time.Millisecond
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	timeout := time.Duration(a.cfg.ConfirmTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	hash := common.HexToHash(txHash)
	for {
		receipt, err := a.client.Eth.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return &Receipt{
				TxHash:      txHash,
				Confirmed:   receipt.Status == ethtypes.ReceiptStatusSuccessful,
				Reverted:    receipt.Status == ethtypes.ReceiptStatusFailed,
				BlockNumber: receipt.BlockNumber.Uint64(),
			}, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			a.logger.Warn("receipt poll failed", zap.String("tx", txHash), zap.Error(err))
		}

		if time.Now().After(deadline) {
			return nil, model.ErrExecutionTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
