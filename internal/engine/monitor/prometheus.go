package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	// KafkaMessagesReceived Kafka 消费相关
	KafkaMessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_received_total",
			Help: "Total number of messages received from Kafka.",
		},
		[]string{"topic"},
	)
	KafkaWorkerMessagesDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_consumer_worker_dispatch_count_total",
			Help: "Number of tasks assigned to each signal worker.",
		},
		[]string{"worker_id"},
	)
	KafkaWorkerMessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_worker_messages_processed_total",
			Help: "Total number of messages processed by each signal consumer worker.",
		},
		[]string{"worker_id"},
	)
	KafkaWorkerProcessDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_worker_process_duration_seconds",
			Help:    "Time taken to process a message by each signal consumer worker.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"worker_id"},
	)

	// SimulationsTotal 蜜罐模拟指标
	SimulationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "honeypot_simulations_total",
			Help: "Total number of honeypot simulations by chain and result.",
		},
		[]string{"chain", "result"},
	)
	SimulationRevertTags = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "honeypot_revert_tags_total",
			Help: "Known revert signature tags observed during simulation.",
		},
		[]string{"scenario", "tag"},
	)
	SimulationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "honeypot_simulation_duration_seconds",
			Help:    "Time taken to run a full honeypot simulation.",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
		[]string{"chain"},
	)

	// RiskLevelsAssigned 风险评估指标
	RiskLevelsAssigned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_levels_assigned_total",
			Help: "Risk levels assigned by the composite scorer.",
		},
		[]string{"chain", "level"},
	)

	// ExecutionAttempts 交易执行指标
	ExecutionAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_execution_attempts_total",
			Help: "State machine attempts by final state reached.",
		},
		[]string{"chain", "state"},
	)
	ExecutionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_execution_outcomes_total",
			Help: "Terminal execution outcomes by status and fail kind.",
		},
		[]string{"chain", "status", "kind"},
	)
	ExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trade_execution_duration_seconds",
			Help:    "Time from confirmed proposal to terminal state.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"chain"},
	)

	// MirrorSignalVerdicts 镜像信号指标
	MirrorSignalVerdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_signal_verdicts_total",
			Help: "Mirror signal processing verdicts.",
		},
		[]string{"verdict"},
	)

	// ProposalEvents 确认闸门指标
	ProposalEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposal_events_total",
			Help: "Proposal lifecycle events (submitted/confirmed/expired/cancelled/blocked).",
		},
		[]string{"event"},
	)

	// AsyncWriterMessagesQueued AsyncWriter 指标
	AsyncWriterMessagesQueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "async_writer_messages_queued_total",
			Help: "Total number of messages queued to async writer.",
		},
		[]string{"writer_id"},
	)
	AsyncWriterMessagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "async_writer_messages_dropped_total",
			Help: "Total number of messages dropped due to full queue.",
		},
		[]string{"writer_id"},
	)
	AsyncWriterBatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "async_writer_batch_size",
			Help:    "Number of items in each batch submitted to the writer.",
			Buckets: []float64{10, 50, 100, 200, 500, 1000},
		},
		[]string{"writer_id"},
	)
	AsyncWriterFlushCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "async_writer_flush_count_total",
			Help: "Total number of batch flushes triggered.",
		},
		[]string{"writer_id"},
	)
	AsyncWriterFlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "async_writer_flush_duration_seconds",
			Help:    "Time taken to flush a batch.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"writer_id"},
	)
	AsyncWriterItemsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "async_writer_items_written_total",
			Help: "Total number of items successfully written by the async writer.",
		},
		[]string{"writer_id"},
	)
)

func init() {
	prometheus.MustRegister(
		// kafka指标
		KafkaMessagesReceived,
		KafkaWorkerMessagesDispatched,
		KafkaWorkerMessagesProcessed,
		KafkaWorkerProcessDuration,

		// 模拟与评分指标
		SimulationsTotal,
		SimulationRevertTags,
		SimulationDuration,
		RiskLevelsAssigned,

		// 执行指标
		ExecutionAttempts,
		ExecutionOutcomes,
		ExecutionDuration,

		// 镜像与闸门指标
		MirrorSignalVerdicts,
		ProposalEvents,

		// async 写入指标
		AsyncWriterMessagesQueued,
		AsyncWriterMessagesDropped,
		AsyncWriterBatchSize,
		AsyncWriterFlushCount,
		AsyncWriterFlushDuration,
		AsyncWriterItemsWritten,
	)
}
