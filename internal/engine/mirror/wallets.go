package mirror

import (
	"context"
	"strings"
	"sync"
	"time"

	"web3-trader/internal/engine/model"

	"go.uber.org/zap"
)

// WalletSource 跟踪钱包与代币黑名单的数据来源
type WalletSource interface {
	ListTrackedWallets(ctx context.Context) ([]model.TrackedWallet, error)
	ListBlacklistedTokens(ctx context.Context) ([]model.BlacklistedToken, error)
}

// Registry 内存中的跟踪钱包/黑名单快照，定时从库里整体换新。
// 信号处理在热路径上，不能每条信号打一次库
type Registry struct {
	mu          sync.RWMutex
	wallets     map[string]model.TrackedWallet // chain:address(lower) -> wallet
	tokenBlocks map[string]struct{}            // chain:address(lower)

	source   WalletSource
	interval time.Duration
	logger   *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewRegistry(source WalletSource, interval time.Duration, logger *zap.Logger) *Registry {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Registry{
		wallets:     make(map[string]model.TrackedWallet),
		tokenBlocks: make(map[string]struct{}),
		source:      source,
		interval:    interval,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}
}

// Start 先同步装载一次，再进入定时换新
func (r *Registry) Start(ctx context.Context) error {
	if err := r.reload(ctx); err != nil {
		return err
	}
	r.wg.Add(1)
	go r.reloadLoop()
	return nil
}

func (r *Registry) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}

func (r *Registry) reloadLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			if err := r.reload(ctx); err != nil {
				r.logger.Error("wallet registry reload failed", zap.Error(err))
			}
			cancel()
		}
	}
}

func (r *Registry) reload(ctx context.Context) error {
	wallets, err := r.source.ListTrackedWallets(ctx)
	if err != nil {
		return err
	}
	tokens, err := r.source.ListBlacklistedTokens(ctx)
	if err != nil {
		return err
	}

	walletMap := make(map[string]model.TrackedWallet, len(wallets))
	for _, w := range wallets {
		walletMap[registryKey(w.Chain, w.Address)] = w
	}
	tokenMap := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenMap[registryKey(t.Chain, t.Address)] = struct{}{}
	}

	r.mu.Lock()
	r.wallets = walletMap
	r.tokenBlocks = tokenMap
	r.mu.Unlock()

	r.logger.Info("wallet registry reloaded",
		zap.Int("wallets", len(walletMap)),
		zap.Int("blocked_tokens", len(tokenMap)),
	)
	return nil
}

// Lookup 查询跟踪钱包
func (r *Registry) Lookup(chain, address string) (model.TrackedWallet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[registryKey(chain, address)]
	return w, ok
}

// TokenBlocked 代币是否在黑名单
func (r *Registry) TokenBlocked(chain, address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tokenBlocks[registryKey(chain, address)]
	return ok
}

func registryKey(chain, address string) string {
	return chain + ":" + strings.ToLower(address)
}
