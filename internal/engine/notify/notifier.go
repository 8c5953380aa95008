package notify

import (
	"context"
	"fmt"
	"time"

	"web3-trader/internal/engine/config"
	"web3-trader/internal/engine/model"
	"web3-trader/pkg/httpclient"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Alert 结构化告警，写入 Kafka 供下游（审计、bot、风控后台）消费
type Alert struct {
	Kind    string                 `json:"kind"`
	Chain   string                 `json:"chain,omitempty"`
	Token   string                 `json:"token,omitempty"`
	Title   string                 `json:"title"`
	Detail  string                 `json:"detail,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	At      time.Time              `json:"at"`
}

const (
	KindProposal   = "proposal"
	KindMirror     = "mirror"
	KindExecution  = "execution"
	KindRisk       = "risk"
	KindPanicSell  = "panic_sell"
)

// Notifier 告警出口：Lark webhook 给人看，Kafka 给程序看。
// 两条通道都是尽力而为，失败只记日志，绝不阻塞交易主流程
type Notifier struct {
	webhook string
	topic   string
	mq      *kafka.Writer
	http    *httpclient.HTTPClient
	logger  *zap.Logger
}

func NewNotifier(cfg config.Config, mq *kafka.Writer, logger *zap.Logger) *Notifier {
	return &Notifier{
		webhook: cfg.Lark.Webhook,
		topic:   cfg.Kafka.TopicAlerts,
		mq:      mq,
		http: httpclient.NewHTTPClient(httpclient.HTTPClientConfig{
			Timeout:    5 * time.Second,
			RateLimit:  120,
			MaxRetries: 1,
		}, logger),
		logger: logger,
	}
}

// Send 发送告警，fire-and-forget
func (n *Notifier) Send(a Alert) {
	if a.At.IsZero() {
		a.At = time.Now()
	}
	go n.dispatch(a)
}

func (n *Notifier) dispatch(a Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if n.mq != nil && n.topic != "" {
		raw, err := sonic.Marshal(a)
		if err == nil {
			err = n.mq.WriteMessages(ctx, kafka.Message{
				Topic: n.topic,
				Key:   []byte(a.Kind),
				Value: raw,
			})
		}
		if err != nil {
			n.logger.Warn("❌ write alert to kafka failed", zap.String("kind", a.Kind), zap.Error(err))
		}
	}

	if n.webhook != "" {
		n.sendLark(ctx, a)
	}
}

// sendLark Lark 自定义机器人 webhook，text 消息格式
func (n *Notifier) sendLark(ctx context.Context, a Alert) {
	text := fmt.Sprintf("【%s】%s", a.Kind, a.Title)
	if a.Detail != "" {
		text += "\n" + a.Detail
	}
	if a.Chain != "" {
		text += fmt.Sprintf("\nchain: %s token: %s", a.Chain, a.Token)
	}

	body := map[string]interface{}{
		"msg_type": "text",
		"content":  map[string]string{"text": text},
	}

	var resp map[string]interface{}
	if err := n.http.PostJSON(ctx, n.webhook, body, nil, &resp); err != nil {
		n.logger.Warn("❌ send lark alert failed", zap.String("kind", a.Kind), zap.Error(err))
	}
}

// RiskAlert 高风险代币评估告警
func (n *Notifier) RiskAlert(a *model.RiskAssessment) {
	n.Send(Alert{
		Kind:   KindRisk,
		Chain:  a.Token.Chain,
		Token:  a.Token.Address,
		Title:  fmt.Sprintf("token %s risk %s (%.1f)", a.Token.Symbol, a.Level, a.Score),
		Detail: a.Recommendation,
		Payload: map[string]interface{}{
			"score":   a.Score,
			"level":   a.Level,
			"factors": a.Factors,
		},
	})
}

// ExecutionAlert 执行终态告警
func (n *Notifier) ExecutionAlert(exec *model.TradeExecution) {
	detail := fmt.Sprintf("status=%s attempts=%d", exec.Status, len(exec.Attempts))
	if exec.Kind != "" {
		detail += fmt.Sprintf(" kind=%s", exec.Kind)
	}
	if exec.TxHash != "" {
		detail += fmt.Sprintf(" tx=%s", exec.TxHash)
	}
	n.Send(Alert{
		Kind:   KindExecution,
		Chain:  exec.Proposal.Chain,
		Token:  exec.Proposal.Token.Address,
		Title:  fmt.Sprintf("%s %s %s", exec.Proposal.Side, exec.Proposal.Token.Symbol, exec.Status),
		Detail: detail,
		Payload: map[string]interface{}{
			"proposal_id": exec.Proposal.ID,
			"status":      exec.Status,
			"fail_kind":   exec.Kind,
			"tx_hash":     exec.TxHash,
		},
	})
}

// MirrorAlert 镜像信号仅告警不执行的场景
func (n *Notifier) MirrorAlert(sig model.MirrorSignal, verdict string) {
	n.Send(Alert{
		Kind:  KindMirror,
		Chain: sig.Token.Chain,
		Token: sig.Token.Address,
		Title: fmt.Sprintf("mirror %s from %s: %s", sig.Side, sig.SourceWallet, verdict),
		Payload: map[string]interface{}{
			"source_wallet": sig.SourceWallet,
			"side":          sig.Side,
			"amount_usd":    sig.AmountUSD,
			"tx_hash":       sig.TxHash,
			"verdict":       verdict,
		},
	})
}
