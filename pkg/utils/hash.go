package utils

import (
	"fmt"
	"hash/crc32"
)

// SimulationHistoryKey 模拟结果历史键：token + 时间戳（追加式，不覆盖）
func SimulationHistoryKey(chain, token string, timestamp int64) string {
	return fmt.Sprintf("sim:%s:%s:%d", chain, token, timestamp)
}

// AssessmentKey 最新风险评估缓存键
func AssessmentKey(chain, token string) string {
	return fmt.Sprintf("risk:%s:%s", chain, token)
}

func GetHashBucket(key string, bucketSize uint32) uint32 {
	// 同一来源钱包的信号固定路由到同一个worker，保证按到达顺序消费
	return crc32.ChecksumIEEE([]byte(key)) % bucketSize
}
