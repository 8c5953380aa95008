package dexscreener

import (
	"context"
	"fmt"
	"strings"
	"time"

	"web3-trader/pkg/httpclient"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Client DexScreener 行情客户端（免 key）
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
		cfg.BaseURL = "https://api.dexscreener.com"
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

type pairsResponse struct {
	Pairs []Pair `json:"pairs"`
}

// Pair DexScreener 交易对
type Pair struct {
	ChainID   string `json:"chainId"`
	DexID     string `json:"dexId"`
	PairAddr  string `json:"pairAddress"`
	BaseToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD  string `json:"priceUsd"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
}

// TokenMarket 归一化后的行情快照
type TokenMarket struct {
	Symbol       string
	PriceUSD     decimal.Decimal
	LiquidityUSD float64
	Volume24hUSD float64
	DexID        string
}

// GetMarket 查代币行情。多交易对时取流动性最深的一个
func (c *Client) GetMarket(ctx context.Context, tokenAddress string) (*TokenMarket, error) {
	url := c.baseURL + "/latest/dex/tokens/" + tokenAddress

	var out pairsResponse
	if err := c.http.Get(ctx, url, nil, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Pairs) == 0 {
		return nil, fmt.Errorf("dexscreener: no pairs for %s", tokenAddress)
	}

	best := out.Pairs[0]
	for _, p := range out.Pairs[1:] {
		if p.Liquidity.USD > best.Liquidity.USD {
			best = p
		}
	}

	price, err := decimal.NewFromString(best.PriceUSD)
	if err != nil {
		price = decimal.Zero
	}

	return &TokenMarket{
		Symbol:       best.BaseToken.Symbol,
		PriceUSD:     price,
		LiquidityUSD: best.Liquidity.USD,
		Volume24hUSD: best.Volume.H24,
		DexID:        best.DexID,
	}, nil
}
