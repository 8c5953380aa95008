package keyring

import (
	"testing"

	"web3-trader/internal/engine/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 测试专用私钥，无任何链上价值
const (
	testKeyA = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	testKeyB = "0x8b3a350cf5c34c9194ca85829a2df0ec3153be0318b5e2d3348e872092edffba"
)

func newTestKeyring(t *testing.T) *Keyring {
	t.Helper()
	kr, err := New(map[string][]string{
		model.ChainBSC: {testKeyA, testKeyB},
	}, zap.NewNop())
	require.NoError(t, err)
	return kr
}

func TestAcquireRotatesByUsage(t *testing.T) {
	kr := newTestKeyring(t)

	first, err := kr.Acquire(model.ChainBSC)
	require.NoError(t, err)
	second, err := kr.Acquire(model.ChainBSC)
	require.NoError(t, err)

	// 两次借出应轮到不同的 key
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEmpty(t, first.Address)
	assert.Len(t, first.Material(), 32)
}

func TestReleaseZeroesMaterial(t *testing.T) {
	kr := newTestKeyring(t)

	b, err := kr.Acquire(model.ChainBSC)
	require.NoError(t, err)

	material := b.Material()
	b.Release()

	for _, by := range material {
		if by != 0 {
			t.Fatal("key material not zeroed after release")
		}
	}
	assert.Nil(t, b.Material())
}

func TestRepeatedFailuresDisableKey(t *testing.T) {
	kr, err := New(map[string][]string{
		model.ChainBSC: {testKeyA},
	}, zap.NewNop())
	require.NoError(t, err)

	b, err := kr.Acquire(model.ChainBSC)
	require.NoError(t, err)

	for i := 0; i < maxErrorCount; i++ {
		kr.MarkFailure(b.ID)
	}

	// 唯一的 key 被禁用后无 key 可借
	_, err = kr.Acquire(model.ChainBSC)
	assert.ErrorIs(t, err, ErrNoKeyAvailable)
}

func TestFailureCooldownBlocksAcquire(t *testing.T) {
	kr, err := New(map[string][]string{
		model.ChainBSC: {testKeyA},
	}, zap.NewNop())
	require.NoError(t, err)

	b, err := kr.Acquire(model.ChainBSC)
	require.NoError(t, err)
	kr.MarkFailure(b.ID)

	_, err = kr.Acquire(model.ChainBSC)
	assert.ErrorIs(t, err, ErrNoKeyAvailable)
}

func TestMarkSuccessResetsErrorCount(t *testing.T) {
	kr := newTestKeyring(t)

	b, err := kr.Acquire(model.ChainBSC)
	require.NoError(t, err)

	for i := 0; i < maxErrorCount-1; i++ {
		kr.MarkFailure(b.ID)
	}
	kr.MarkSuccess(b.ID)
	kr.MarkFailure(b.ID)

	// 成功清零后一次失败不应禁用
	usage := kr.Usage()
	assert.Contains(t, usage, b.ID)
}

func TestUnknownChain(t *testing.T) {
	kr := newTestKeyring(t)
	_, err := kr.Acquire(model.ChainSOL)
	assert.ErrorIs(t, err, ErrNoKeyAvailable)
}

func TestUsageSnapshot(t *testing.T) {
	kr := newTestKeyring(t)

	_, err := kr.Acquire(model.ChainBSC)
	require.NoError(t, err)

	usage := kr.Usage()
	var total int
	for _, n := range usage {
		total += n
	}
	assert.Equal(t, 1, total)
}
