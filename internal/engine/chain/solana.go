package chain

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	"web3-trader/internal/engine/config"
	"web3-trader/internal/engine/model"
	"web3-trader/internal/engine/quote"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const (
	// base fee 5000 lamports/signature，加上优先费的保守估算
	solanaBaseFeeLamports     = 5000
	solanaPriorityFeeLamports = 1000
)

// SolanaAdapter Solana 链适配器。交易由 Jupiter 预构建，
// 这里只负责模拟、签名、广播与确认
type SolanaAdapter struct {
	cfg    config.ChainConfig
	client *rpc.Client
	logger *zap.Logger
}

func NewSolanaAdapter(cfg config.ChainConfig, client *rpc.Client, logger *zap.Logger) *SolanaAdapter {
	return &SolanaAdapter{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

func (a *SolanaAdapter) Chain() string {
	return model.ChainSOL
}

func (a *SolanaAdapter) Params() config.ChainConfig {
	return a.cfg
}

func (a *SolanaAdapter) Balance(ctx context.Context, addr string) (*big.Int, error) {
	pub, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}
	out, err := a.client.GetBalance(ctx, pub, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(out.Value), nil
}

// Nonce Solana 没有账户 nonce，交易新鲜度靠 recent blockhash
func (a *SolanaAdapter) Nonce(ctx context.Context, addr string) (uint64, error) {
	return 0, nil
}

func (a *SolanaAdapter) FeeEstimate(ctx context.Context) (*FeeEstimate, error) {
	return &FeeEstimate{
		EIP1559:  false,
		GasPrice: big.NewInt(solanaBaseFeeLamports + solanaPriorityFeeLamports),
	}, nil
}

// SimulateCall 反序列化预构建交易后走 simulateTransaction。
// SigVerify 关掉、blockhash 替换成最新，临时账户不用真签名也能跑
func (a *SolanaAdapter) SimulateCall(ctx context.Context, call SimCall) (*SimOutcome, error) {
	tx, err := solana.TransactionFromBytes(call.RawTx)
	if err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}

	sim, err := a.client.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:              false,
		ReplaceRecentBlockhash: true,
		Commitment:             rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("simulate transaction: %w", err)
	}

	if sim.Value.Err != nil {
		reason, _ := sonic.MarshalString(sim.Value.Err)
		return &SimOutcome{Reverted: true, RevertReason: reason}, nil
	}

	out := &SimOutcome{Success: true}
	if sim.Value.UnitsConsumed != nil {
		out.GasUsed = *sim.Value.UnitsConsumed
	}
	return out, nil
}

func (a *SolanaAdapter) BuildSwapTx(ctx context.Context, q *quote.Quote, from string) (*PreparedTx, error) {
	raw, err := base64.StdEncoding.DecodeString(q.Tx.SolanaTxBase64)
	if err != nil {
		return nil, fmt.Errorf("decode swap transaction: %w", err)
	}
	tx, err := solana.TransactionFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("parse swap transaction: %w", err)
	}

	// Jupiter 返回的 blockhash 可能已过期，刷新一次
	recent, err := a.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("fetch blockhash: %w", err)
	}
	tx.Message.RecentBlockhash = recent.Value.Blockhash

	return &PreparedTx{
		Chain:     model.ChainSOL,
		Solana:    tx,
		GasParams: fmt.Sprintf("lamports=%d", solanaBaseFeeLamports+solanaPriorityFeeLamports),
	}, nil
}

func (a *SolanaAdapter) SignTx(ctx context.Context, tx *PreparedTx, key []byte) (*SignedTx, error) {
	prv := solana.PrivateKey(key)
	signer := prv.PublicKey()

	_, err := tx.Solana.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(signer) {
			return &prv
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}

	sig := tx.Solana.Signatures[0]
	return &SignedTx{Chain: model.ChainSOL, Solana: tx.Solana, Hash: sig.String()}, nil
}

func (a *SolanaAdapter) Broadcast(ctx context.Context, tx *SignedTx) (string, error) {
	sig, err := a.client.SendTransactionWithOpts(ctx, tx.Solana, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", err
	}
	return sig.String(), nil
}

// WaitReceipt 轮询签名状态直到 confirmed/finalized，限时未确认返回 ErrExecutionTimeout
func (a *SolanaAdapter) WaitReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	sig, err := solana.SignatureFromBase58(txHash)
	if err != nil {
		return nil, fmt.Errorf("parse signature: %w", err)
	}

	pollInterval := time.Duration(a.cfg.ConfirmPollMs) * time.Millisecond
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	timeout := time.Duration(a.cfg.ConfirmTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		statuses, err := a.client.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			a.logger.Warn("signature status poll failed", zap.String("sig", txHash), zap.Error(err))
		} else if len(statuses.Value) > 0 && statuses.Value[0] != nil {
			st := statuses.Value[0]
			if st.Err != nil {
				return &Receipt{TxHash: txHash, Reverted: true}, nil
			}
			if st.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				st.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return &Receipt{TxHash: txHash, Confirmed: true, BlockNumber: st.Slot}, nil
			}
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
