package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"web3-trader/internal/engine/config"
	"web3-trader/pkg/database"
	"web3-trader/pkg/elasticsearch"
	"web3-trader/pkg/evm_client"
	"web3-trader/pkg/solana_client"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var once sync.Once
var r *repositoryImpl

func New(cfg config.Config, logger *zap.Logger) Repository {
	once.Do(func() {
		r = &repositoryImpl{
			cfg:    cfg,
			logger: logger,
		}
		r.init()
	})
	return r
}

type repositoryImpl struct {
	cfg          config.Config
	logger       *zap.Logger
	db           *gorm.DB
	mainRdb      *redis.Client
	metricsRdb   *redis.Client
	mq           *kafka.Writer
	esClient     *elasticsearch.Client
	evmClients   map[string]*evm_client.Client
	solanaClient *rpc.Client
}

func (r *repositoryImpl) init() {
	var err error
	r.db, err = database.InitPG(r.cfg.Postgres.DSN)

	if err != nil {
		panic(err)
	}

	// 初始化 Main RDB
	r.mainRdb = redis.NewClient(&redis.Options{
		Addr:     r.cfg.Redis.Address,
		Password: r.cfg.Redis.Password,
		DB:       r.cfg.Redis.DB,
		PoolSize: 20,
	})

	if err := r.mainRdb.Ping(context.Background()).Err(); err != nil {
		r.logger.Warn("failed to connect to redis, continue", zap.Error(err))
	}

	// 初始化 Metrics RDB
	r.metricsRdb = redis.NewClient(&redis.Options{
		Addr:     r.cfg.Redis.Address,
		Password: r.cfg.Redis.Password,
		DB:       r.cfg.Redis.DBMetrics,
	})

	if err := r.metricsRdb.Ping(context.Background()).Err(); err != nil {
		r.logger.Warn("failed to connect to metrics redis, continue", zap.Error(err))
	}

	brokers := strings.Split(r.cfg.Kafka.Brokers, ",")
	r.mq = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    1000,
		BatchBytes:   1024 * 1024, // 1MB
		Async:        true,
		RequiredAcks: kafka.RequireNone,
		Compression:  kafka.Snappy,
		MaxAttempts:  5,
		WriteTimeout: 500 * time.Millisecond,
	}

	// 初始化 ES（可选，地址为空则跳过）
	if len(r.cfg.Elasticsearch.Addresses) > 0 {
		r.esClient, err = elasticsearch.NewClient(elasticsearch.Config{
			Addresses: r.cfg.Elasticsearch.Addresses,
			Username:  r.cfg.Elasticsearch.Username,
			Password:  r.cfg.Elasticsearch.Password,
		}, r.logger)
		if err != nil {
			r.logger.Warn("failed to connect to elasticsearch, continue without it", zap.Error(err))
		}
	} else {
		r.logger.Info("elasticsearch addresses empty, skip es initialization")
	}

	// 初始化各链 rpc client
	r.evmClients = make(map[string]*evm_client.Client)
	for chainName, chainCfg := range r.cfg.Chains {
		if chainCfg.ChainID == 0 {
			r.solanaClient = solana_client.Init(chainCfg.RPCURL)
			continue
		}
		r.evmClients[chainName] = evm_client.Init(chainCfg.RPCURL)
	}
}

func (r *repositoryImpl) GetMainRDB() *redis.Client {
	return r.mainRdb
}

func (r *repositoryImpl) GetMetricsRDB() *redis.Client {
	return r.metricsRdb
}

func (r *repositoryImpl) GetDB() *gorm.DB {
	return r.db
}

func (r *repositoryImpl) GetMQ() MQClient {
	return r.mq
}

func (r *repositoryImpl) GetESClient() *elasticsearch.Client {
	return r.esClient
}

func (r *repositoryImpl) GetEVMClient(chain string) *evm_client.Client {
	return r.evmClients[chain]
}

func (r *repositoryImpl) GetSolanaClient() *rpc.Client {
	return r.solanaClient
}

func (r *repositoryImpl) Close() error {
	if r.db != nil {
		sqlDB, _ := r.db.DB()
		sqlDB.Close()
	}
	if r.mainRdb != nil {
		r.mainRdb.Close()
	}
	if r.metricsRdb != nil {
		r.metricsRdb.Close()
	}
	if r.mq != nil {
		r.mq.Close()
	}
	for _, c := range r.evmClients {
		c.Close()
	}
	return nil
}
