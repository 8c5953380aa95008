package config

import (
	"fmt"

	"web3-trader/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config 定义整个配置的结构
type Config struct {
	Log           LogConfig               `mapstructure:"log"`
	Kafka         KafkaConfig             `mapstructure:"kafka"`
	Redis         RedisConfig             `mapstructure:"redis"`
	Postgres      PostgresConfig          `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig     `mapstructure:"elasticsearch"`
	Lark          LarkConfig              `mapstructure:"lark"`
	Worker        WorkerConfig            `mapstructure:"worker"`
	Monitor       MonitorConfig           `mapstructure:"monitor"`
	Chains        map[string]ChainConfig  `mapstructure:"chains"`
	ZeroX         ProviderConfig          `mapstructure:"zerox"`
	Jupiter       ProviderConfig          `mapstructure:"jupiter"`
	GoPlus        ProviderConfig          `mapstructure:"goplus"`
	DexScreener   ProviderConfig          `mapstructure:"dexscreener"`
	Trading       TradingConfig           `mapstructure:"trading"`
	Keys          map[string][]string     `mapstructure:"keys"` // chain -> signing keys
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers      string `mapstructure:"brokers"`
	TopicPending string `mapstructure:"topic_pending"` // mempool 待确认交易事件
	TopicAlerts  string `mapstructure:"topic_alerts"`  // 结构化告警输出
	GroupID      string `mapstructure:"group_id"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	DBMetrics int    `mapstructure:"db_metrics"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type ElasticsearchConfig struct {
	Addresses            []string `mapstructure:"addresses"`
	Username             string   `mapstructure:"username"`
	Password             string   `mapstructure:"password"`
	AssessmentsIndexName string   `mapstructure:"assessments_index_name"`
}

// LarkConfig Lark 告警 webhook
type LarkConfig struct {
	Webhook string `mapstructure:"webhook"`
}

// LogConfig Log 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

type WorkerConfig struct {
	WorkerNum int `mapstructure:"worker_num"`
}

type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

// ChainConfig 单链配置记录：router 地址、费率市场支持、确认轮询间隔
type ChainConfig struct {
	ChainID          int64  `mapstructure:"chain_id"` // EVM numeric chain id；Solana 为 0
	RPCURL           string `mapstructure:"rpc_url"`
	Router           string `mapstructure:"router"`         // 已知 DEX router 地址
	WrappedNative    string `mapstructure:"wrapped_native"` // WETH/WBNB；Solana 为 wSOL mint
	QuoteToken       string `mapstructure:"quote_token"`    // USDC 等报价币
	SupportsEIP1559  bool   `mapstructure:"supports_eip1559"`
	ConfirmPollMs    int    `mapstructure:"confirm_poll_ms"`
	ConfirmTimeoutSec int   `mapstructure:"confirm_timeout_sec"`
	PriorityFeeGwei  int64  `mapstructure:"priority_fee_gwei"` // EIP-1559 小费下限
}

// ProviderConfig 外部 API 提供方配置
type ProviderConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	RateLimit int    `mapstructure:"rate_limit"`
	Timeout   int    `mapstructure:"timeout"`
}

// TradingConfig 交易策略配置。分数边界是部署策略常量，集中在这里而不是散落硬编码
type TradingConfig struct {
	SafeMode          bool    `mapstructure:"safe_mode"`
	MirrorSellEnabled bool    `mapstructure:"mirror_sell_enabled"` // 默认开
	MirrorBuyEnabled  bool    `mapstructure:"mirror_buy_enabled"`  // 默认关
	MaxAutoBuyUSD     float64 `mapstructure:"max_auto_buy_usd"`
	MaxPositionUSD    float64 `mapstructure:"max_position_usd"`
	MaxSlippage       float64 `mapstructure:"max_slippage"` // 0.05 = 5%
	MinLiquidityUSD   float64 `mapstructure:"min_liquidity_usd"`
	BlockScore        float64 `mapstructure:"block_score"`     // 低于此分禁止交易
	SafeModeScore     float64 `mapstructure:"safe_mode_score"` // safe-mode 下更高的确认门槛
	MaxAttempts       int     `mapstructure:"max_attempts"`
	ProposalTTLSec    int     `mapstructure:"proposal_ttl_sec"`
	PanicConfirmation bool    `mapstructure:"panic_confirmation"`
	BoundarySafe      float64 `mapstructure:"boundary_safe"`
	BoundaryLow       float64 `mapstructure:"boundary_low"`
	BoundaryMedium    float64 `mapstructure:"boundary_medium"`
	BoundaryHigh      float64 `mapstructure:"boundary_high"`
}

func InitConfig() Config {
	var config Config

	viper.SetConfigName("config.engine")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config/")
	setDefaults()

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	if err := mapstructure.Decode(viper.AllSettings(), &config); err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	applyDefaults(&config)

	return config
}

// setDefaults 布尔策略默认值走 viper：零值判断区分不了"显式 false"和"未配置"。
// 镜像卖出默认开，配置里显式写 false 才会关
func setDefaults() {
	viper.SetDefault("trading.mirror_sell_enabled", true)
}

// applyDefaults 填充策略默认值（配置缺省时沿用原始部署的默认策略）
func applyDefaults(c *Config) {
	if c.Worker.WorkerNum <= 0 {
		c.Worker.WorkerNum = 8
	}
	if c.Trading.MaxAttempts <= 0 {
		c.Trading.MaxAttempts = 3
	}
	if c.Trading.ProposalTTLSec <= 0 {
		c.Trading.ProposalTTLSec = 120
	}
	if c.Trading.MaxSlippage <= 0 {
		c.Trading.MaxSlippage = 0.05
	}
	if c.Trading.MinLiquidityUSD <= 0 {
		c.Trading.MinLiquidityUSD = 10000
	}
	if c.Trading.MaxAutoBuyUSD <= 0 {
		c.Trading.MaxAutoBuyUSD = 50
	}
	if c.Trading.MaxPositionUSD <= 0 {
		c.Trading.MaxPositionUSD = 500
	}
	if c.Trading.BlockScore <= 0 {
		c.Trading.BlockScore = 3.0
	}
	if c.Trading.SafeModeScore <= 0 {
		c.Trading.SafeModeScore = 6.0
	}
	if c.Trading.BoundarySafe <= 0 {
		c.Trading.BoundarySafe = 8.0
	}
	if c.Trading.BoundaryLow <= 0 {
		c.Trading.BoundaryLow = 6.0
	}
	if c.Trading.BoundaryMedium <= 0 {
		c.Trading.BoundaryMedium = 4.0
	}
	if c.Trading.BoundaryHigh <= 0 {
		c.Trading.BoundaryHigh = 2.0
	}
}

func WatchConfig(config *Config) {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := InitConfig()
		*config = newConfig
		logger.SetLogLevel(config.Log.Level)
	})
}
