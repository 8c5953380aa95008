package job

import (
	"context"

	"web3-trader/internal/engine/keyring"

	"go.uber.org/zap"
)

// KeyringReport 周期性输出签名 key 的当日用量，配合日志告警观察轮换是否均匀
type KeyringReport struct {
	keys   *keyring.Keyring
	logger *zap.Logger
}

func NewKeyringReport(keys *keyring.Keyring, logger *zap.Logger) *KeyringReport {
	return &KeyringReport{keys: keys, logger: logger}
}

func (j *KeyringReport) Run(ctx context.Context) error {
	usage := j.keys.Usage()
	if len(usage) == 0 {
		return nil
	}
	fields := make([]zap.Field, 0, len(usage))
	for id, count := range usage {
		fields = append(fields, zap.Int(id, count))
	}
	j.logger.Info("signing key usage", fields...)
	return nil
}
