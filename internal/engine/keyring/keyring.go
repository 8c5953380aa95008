package keyring

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"web3-trader/internal/engine/model"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

const (
	// 连续失败这么多次后禁用该 key
	maxErrorCount = 5
	// 单 key 单日签名次数上限
	dailyUseLimit = 200
	// 失败后的冷却时长
	failureCooldown = 30 * time.Second
)

var (
	// ErrNoKeyAvailable 没有可用签名 key：全部禁用、冷却中或当日额度用尽
	ErrNoKeyAvailable = errors.New("no signing key available")
)

// entry 单个 key 的运行时记账
type entry struct {
	id       string
	chain    string
	address  string
	material []byte

	usesToday  int
	usesDay    string // YYYY-MM-DD，跨天自动清零
	errorCount int
	coolUntil  time.Time
	disabled   bool
}

// Keyring 签名 key 池。按链轮换：优先用当日用量最少的 key，
// 连续失败会先冷却后禁用，额度按天清零。
// key 材料只在签名瞬间借出，调用方用完必须 Release 抹零
type Keyring struct {
	mu      sync.Mutex
	entries map[string][]*entry // chain -> keys
	logger  *zap.Logger
}

// New 从配置装载 key 池。EVM 链是 hex 私钥，Solana 是 base58
func New(keys map[string][]string, logger *zap.Logger) (*Keyring, error) {
	kr := &Keyring{
		entries: make(map[string][]*entry),
		logger:  logger,
	}

	for chainName, list := range keys {
		for i, raw := range list {
			e, err := load(chainName, i, raw)
			if err != nil {
				return nil, fmt.Errorf("load key %s[%d]: %w", chainName, i, err)
			}
			kr.entries[chainName] = append(kr.entries[chainName], e)
		}
		logger.Info("signing keys loaded",
			zap.String("chain", chainName),
			zap.Int("count", len(kr.entries[chainName])),
		)
	}
	return kr, nil
}

func load(chainName string, index int, raw string) (*entry, error) {
	if model.IsEVMChain(chainName) {
		material, err := hexutil.Decode(normalizeHex(raw))
		if err != nil {
			return nil, err
		}
		prv, err := crypto.ToECDSA(material)
		if err != nil {
			return nil, err
		}
		addr := crypto.PubkeyToAddress(prv.PublicKey)
		return &entry{
			id:       fmt.Sprintf("%s-%d", chainName, index),
			chain:    chainName,
			address:  addr.Hex(),
			material: material,
		}, nil
	}

	prv, err := solana.PrivateKeyFromBase58(raw)
	if err != nil {
		return nil, err
	}
	return &entry{
		id:       fmt.Sprintf("%s-%d", chainName, index),
		chain:    chainName,
		address:  prv.PublicKey().String(),
		material: []byte(prv),
	}, nil
}

func normalizeHex(raw string) string {
	if len(raw) >= 2 && raw[0:2] == "0x" {
		return raw
	}
	return "0x" + raw
}

// Borrowed 借出的 key。Material 是副本，Release 后归零
type Borrowed struct {
	ID       string
	Chain    string
	Address  string
	material []byte
}

func (b *Borrowed) Material() []byte {
	return b.material
}

// Release 抹零借出的 key 材料
func (b *Borrowed) Release() {
	for i := range b.material {
		b.material[i] = 0
	}
	b.material = nil
}

// Acquire 借出一个可用 key：未禁用、不在冷却、当日额度未满，
// 其中取当日用量最少的。借出即计一次使用
func (kr *Keyring) Acquire(chainName string) (*Borrowed, error) {
	kr.mu.Lock()
	defer kr.mu.Unlock()

	today := time.Now().Format("2006-01-02")
	now := time.Now()

	var best *entry
	for _, e := range kr.entries[chainName] {
		if e.usesDay != today {
			e.usesDay = today
			e.usesToday = 0
		}
		if e.disabled || now.Before(e.coolUntil) || e.usesToday >= dailyUseLimit {
			continue
		}
		if best == nil || e.usesToday < best.usesToday {
			best = e
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: chain %s", ErrNoKeyAvailable, chainName)
	}

	best.usesToday++
	material := make([]byte, len(best.material))
	copy(material, best.material)

	return &Borrowed{
		ID:       best.id,
		Chain:    best.chain,
		Address:  best.address,
		material: material,
	}, nil
}

// MarkSuccess 签名成功，清空连续失败计数
func (kr *Keyring) MarkSuccess(id string) {
	kr.mu.Lock()
	defer kr.mu.Unlock()
	if e := kr.find(id); e != nil {
		e.errorCount = 0
	}
}

// MarkFailure 签名/广播失败。先冷却，连续失败到阈值后禁用
func (kr *Keyring) MarkFailure(id string) {
	kr.mu.Lock()
	defer kr.mu.Unlock()

	e := kr.find(id)
	if e == nil {
		return
	}
	e.errorCount++
	e.coolUntil = time.Now().Add(failureCooldown)
	if e.errorCount >= maxErrorCount {
		e.disabled = true
		kr.logger.Error("❌ signing key disabled after repeated failures",
			zap.String("key", e.id),
			zap.String("address", e.address),
			zap.Int("errors", e.errorCount),
		)
	}
}

// Address 链上当前首选 key 的地址（不计使用次数，供模拟场景借用身份）
func (kr *Keyring) Address(chainName string) (string, error) {
	kr.mu.Lock()
	defer kr.mu.Unlock()

	for _, e := range kr.entries[chainName] {
		if !e.disabled {
			return e.address, nil
		}
	}
	return "", fmt.Errorf("%w: chain %s", ErrNoKeyAvailable, chainName)
}

// Usage 当日用量快照，供监控上报
func (kr *Keyring) Usage() map[string]int {
	kr.mu.Lock()
	defer kr.mu.Unlock()

	out := make(map[string]int)
	today := time.Now().Format("2006-01-02")
	for _, list := range kr.entries {
		for _, e := range list {
			if e.usesDay == today {
				out[e.id] = e.usesToday
			} else {
				out[e.id] = 0
			}
		}
	}
	return out
}

func (kr *Keyring) find(id string) *entry {
	for _, list := range kr.entries {
		for _, e := range list {
			if e.id == id {
				return e
			}
		}
	}
	return nil
}
