package consumer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"web3-trader/internal/engine/config"
	"web3-trader/internal/engine/mirror"
	"web3-trader/internal/engine/model"
	"web3-trader/internal/engine/monitor"
	"web3-trader/pkg/utils"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SignalConsumer 镜像信号消费者。按来源钱包分片到固定 worker，
// 同一钱包的信号严格按到达顺序处理
type SignalConsumer struct {
	*Consumer
	id         string
	workerSize int
	buffers    []chan model.MirrorSignal
	processor  *mirror.Processor
}

// NewSignalConsumer 创建 SignalConsumer 实例
func NewSignalConsumer(conf config.Config, logger *zap.Logger, processor *mirror.Processor) *SignalConsumer {
	newConsumer := NewConsumer(conf.Kafka, logger, conf.Kafka.TopicPending)

	workerSize := conf.Worker.WorkerNum
	buffers := make([]chan model.MirrorSignal, workerSize)
	for i := 0; i < workerSize; i++ {
		buffers[i] = make(chan model.MirrorSignal, 2000)
	}

	return &SignalConsumer{
		id:         "signal_consumer",
		workerSize: workerSize,
		Consumer:   newConsumer,
		buffers:    buffers,
		processor:  processor,
	}
}

// Run 启动信号消费者
func (sc *SignalConsumer) Run(ctx context.Context) {
	for i := 0; i < sc.workerSize; i++ {
		idx := i
		go func() {
			workerID := strconv.Itoa(idx)
			for {
				select {
				case signal, ok := <-sc.buffers[idx]:
					if !ok {
						sc.logger.Warn("❌ buffer is closed", zap.String("consumerID", sc.id), zap.Any("idx", idx))
						return
					}
					startTime := time.Now()
					verdict := sc.processor.Process(ctx, &signal)

					elapsed := time.Since(startTime).Seconds()
					monitor.MirrorSignalVerdicts.WithLabelValues(string(verdict)).Inc()
					monitor.KafkaWorkerMessagesProcessed.WithLabelValues(workerID).Inc()
					monitor.KafkaWorkerProcessDuration.WithLabelValues(workerID).Observe(elapsed)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// 等待前面的组件准备完成
	time.Sleep(time.Second * 5)
	sc.Consumer.Start(ctx, sc)
}

// HandleMessage 实现 MessageHandler 接口
func (sc *SignalConsumer) HandleMessage(msg kafka.Message) {
	monitor.KafkaMessagesReceived.WithLabelValues("pending_swap").Inc()

	var event model.PendingSwapEvent
	if err := sonic.Unmarshal(msg.Value, &event); err != nil {
		sc.logger.Warn("❌ JSON Parse Error", zap.String("consumerID", sc.id), zap.Error(err), zap.String("raw", string(msg.Value)))
		return
	}

	// 个别上游实例投毫秒级时间戳，统一折算成秒
	if !utils.IsUnixSeconds(event.Time) {
		event.Time /= 1000
	}

	// 过滤掉10分钟前的陈旧事件：镜像过期信号等于追高
	eventTime := time.Unix(event.Time, 0)
	if time.Since(eventTime) > 10*time.Minute {
		return
	}

	signal, ok := toSignal(event)
	if !ok {
		return
	}

	sc.dispatch(signal)
}

func (sc *SignalConsumer) ID() string {
	return sc.id
}

// Stop 停止信号消费者
func (sc *SignalConsumer) Stop() error {
	if err := sc.Consumer.Stop(); err != nil {
		return err
	}
	for i := 0; i < sc.workerSize; i++ {
		close(sc.buffers[i])
	}
	return nil
}

// dispatch 按 chain:wallet 分片，保证同钱包顺序
func (sc *SignalConsumer) dispatch(signal model.MirrorSignal) {
	idx := sc.hashBy(fmt.Sprintf("%s:%s", signal.Token.Chain, signal.SourceWallet))

	// buffer 接近满载时短暂休眠，给 worker 追赶的机会
	if len(sc.buffers[idx]) > cap(sc.buffers[idx])*8/10 {
		time.Sleep(100 * time.Millisecond)
	}

	select {
	case sc.buffers[idx] <- signal:
		monitor.KafkaWorkerMessagesDispatched.WithLabelValues(strconv.Itoa(int(idx))).Inc()
	default:
		sc.logger.Warn("❌ buffers is full", zap.String("consumerID", sc.id), zap.Any("idx", idx))
	}
}

func (sc *SignalConsumer) hashBy(key string) uint32 {
	return utils.GetHashBucket(key, uint32(sc.workerSize))
}

// toSignal 把上游的待确认交易事件折算成镜像信号。
// token_in 是被观测代币则为卖出，token_out 是则为买入
func toSignal(event model.PendingSwapEvent) (model.MirrorSignal, bool) {
	amountUSD, err := decimal.NewFromString(event.AmountUSD)
	if err != nil {
		amountUSD = decimal.Zero
	}

	var side model.TradeSide
	var tokenAddress string
	switch {
	case event.TokenOut != "" && !isQuoteAsset(event.TokenOut):
		side = model.SideBuy
		tokenAddress = event.TokenOut
	case event.TokenIn != "" && !isQuoteAsset(event.TokenIn):
		side = model.SideSell
		tokenAddress = event.TokenIn
	default:
		return model.MirrorSignal{}, false
	}

	return model.MirrorSignal{
		SourceWallet: utils.ChecksumAddress(event.Wallet, event.Chain),
		Side:         side,
		Token: model.TokenIdentity{
			Chain:    event.Chain,
			Address:  utils.ChecksumAddress(tokenAddress, event.Chain),
			Symbol:   event.TokenSymbol,
			Decimals: event.TokenDecimals,
		},
		AmountUSD:    amountUSD,
		TxHash:       event.TxHash,
		DiscoveredAt: time.Unix(event.Time, 0),
	}, true
}

// 常见报价资产，swap 的另一腿
var quoteAssets = map[string]struct{}{
	"0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c": {}, // WBNB
	"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": {}, // WETH
	"0x4200000000000000000000000000000000000006": {}, // WETH (BASE)
	"0x8ac76a51cc950d9822d68b83fe1ad97b32cd580d": {}, // USDC (BSC)
	"0x55d398326f99059ff775485246999027b3197955": {}, // USDT (BSC)
	"so11111111111111111111111111111111111111112": {}, // wSOL
	"epjfwdd5aufqssqem2qn1xzybapc8g4weggkzwytdt1v": {}, // USDC (SOL)
}

func isQuoteAsset(address string) bool {
	_, ok := quoteAssets[strings.ToLower(address)]
	return ok
}
