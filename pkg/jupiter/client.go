package jupiter

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

// ErrNoRoute Jupiter 找不到可成交路径
var ErrNoRoute = errors.New("jupiter: no route for swap")

// Client Jupiter v6 Swap API 客户端
type Client struct {
	http    *httpclient.HTTPClient
	baseURL string
	logger  *zap.Logger
}

type Config struct {
	BaseURL   string
	RateLimit int
	Timeout   time.Duration
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://quote-api.jup.ag/v6"
	}
	hc := httpclient.NewHTTPClient(httpclient.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
	}, logger)

	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// GetQuote 询价
func (c *Client) GetQuote(ctx context.Context, p QuoteParams) (*QuoteResponse, error) {
	query := map[string]string{
		"inputMint":   p.InputMint,
		"outputMint":  p.OutputMint,
		"amount":      p.Amount,
		"slippageBps": strconv.Itoa(p.SlippageBps),
	}

	var out QuoteResponse
	err := c.http.Get(ctx, c.baseURL+"/quote", query, nil, &out)
	if err != nil {
		return nil, c.mapError(err)
	}
	if out.OutAmount == "" || out.OutAmount == "0" {
		return nil, ErrNoRoute
	}
	return &out, nil
}

// BuildSwapTx 用报价换取未签名交易（base64）
func (c *Client) BuildSwapTx(ctx context.Context, quote *QuoteResponse, userPublicKey string) (*SwapResponse, error) {
	body := swapRequest{
		QuoteResponse:           quote,
		UserPublicKey:           userPublicKey,
		WrapAndUnwrapSol:        true,
		DynamicComputeUnitLimit: true,
	}

	var out SwapResponse
	err := c.http.PostJSON(ctx, c.baseURL+"/swap", body, nil, &out)
	if err != nil {
		return nil, c.mapError(err)
	}
	if out.SwapTransaction == "" {
		return nil, fmt.Errorf("jupiter: empty swap transaction")
	}
	return &out, nil
}

func (c *Client) mapError(err error) error {
	var he *httpclient.HTTPError
	if errors.As(err, &he) && (he.Code == 400 || he.Code == 404) {
		var apiErr apiError
		if decodeErr := sonic.UnmarshalString(he.Body, &apiErr); decodeErr == nil {
			if apiErr.ErrorCode == "COULD_NOT_FIND_ANY_ROUTE" ||
				strings.Contains(apiErr.Error, "no route") ||
				strings.Contains(apiErr.Error, "Could not find any route") {
				return fmt.Errorf("%w: %s", ErrNoRoute, apiErr.Error)
			}
		}
	}
	return err
}
