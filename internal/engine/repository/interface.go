package repository

import (
	"web3-trader/pkg/elasticsearch"
	"web3-trader/pkg/evm_client"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

type RedisClient = *redis.Client
type DBClient = *gorm.DB
type MQClient = *kafka.Writer

type Repository interface {
	//DB
	GetMainRDB() RedisClient
	GetMetricsRDB() RedisClient
	GetDB() DBClient
	GetMQ() MQClient
	GetESClient() *elasticsearch.Client
	GetEVMClient(chain string) *evm_client.Client
	GetSolanaClient() *rpc.Client
	Close() error
}
