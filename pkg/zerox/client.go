package zerox

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"web3-trader/pkg/httpclient"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// ErrNoRoute 0x 找不到可成交路径（流动性不足或代币未上所）
var ErrNoRoute = errors.New("zerox: no route for swap")

// Client 0x Swap API 客户端
type Client struct {
	http    *httpclient.HTTPClient
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

type Config struct {
	BaseURL   string
	APIKey    string
	RateLimit int // 每分钟
	Timeout   time.Duration
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.0x.org"
	}
	hc := httpclient.NewHTTPClient(httpclient.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
	}, logger)

	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{"0x-api-key": c.apiKey}
}

// GetQuote 获取可执行报价（含未签名交易 calldata）
func (c *Client) GetQuote(ctx context.Context, p QuoteParams) (*QuoteResponse, error) {
	query := map[string]string{
		"sellToken":  p.SellToken,
		"buyToken":   p.BuyToken,
		"sellAmount": p.SellAmount,
	}
	if p.Taker != "" {
		query["takerAddress"] = p.Taker
	}
	if p.SlippagePercent > 0 {
		query["slippagePercentage"] = strconv.FormatFloat(p.SlippagePercent, 'f', -1, 64)
	}
	if p.SkipValidation {
		query["skipValidation"] = "true"
	}

	var out QuoteResponse
	err := c.http.Get(ctx, c.baseURL+"/swap/v1/quote", query, c.headers(), &out)
	if err != nil {
		return nil, c.mapError(err)
	}
	return &out, nil
}

// GetPrice 纯询价，不产生交易载荷
func (c *Client) GetPrice(ctx context.Context, p QuoteParams) (*PriceResponse, error) {
	query := map[string]string{
		"sellToken":  p.SellToken,
		"buyToken":   p.BuyToken,
		"sellAmount": p.SellAmount,
	}

	var out PriceResponse
	err := c.http.Get(ctx, c.baseURL+"/swap/v1/price", query, c.headers(), &out)
	if err != nil {
		return nil, c.mapError(err)
	}
	return &out, nil
}

// mapError 把 0x 的校验错误折算成 ErrNoRoute，其余原样透传
func (c *Client) mapError(err error) error {
	var he *httpclient.HTTPError
	if errors.As(err, &he) && he.Code == 400 {
		var apiErr apiError
		if decodeErr := sonic.UnmarshalString(he.Body, &apiErr); decodeErr == nil {
			for _, ve := range apiErr.ValidationErrors {
				if strings.Contains(ve.Reason, "INSUFFICIENT_ASSET_LIQUIDITY") {
					return fmt.Errorf("%w: %s", ErrNoRoute, ve.Reason)
				}
			}
			if strings.Contains(apiErr.Reason, "INSUFFICIENT_ASSET_LIQUIDITY") ||
				strings.Contains(apiErr.Reason, "NO_OPTIMAL_PATH") {
				return fmt.Errorf("%w: %s", ErrNoRoute, apiErr.Reason)
			}
		}
	}
	return err
}
