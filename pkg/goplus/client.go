package goplus

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"web3-trader/pkg/httpclient"

	"go.uber.org/zap"
)

// Client GoPlus token security API 客户端
type Client struct {
	http    *httpclient.HTTPClient
	baseURL string
	logger  *zap.Logger
}

type Config struct {
	BaseURL   string
	APIKey    string
	RateLimit int
	Timeout   time.Duration
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.gopluslabs.io/api/v1"
	}
	hc := httpclient.NewHTTPClient(httpclient.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		XApiKey:   cfg.APIKey,
	}, logger)

	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// ScanEVM 扫描 EVM 代币。chainID 是十进制数字串（BSC=56）
func (c *Client) ScanEVM(ctx context.Context, chainID int64, tokenAddress string) (*SecurityScan, error) {
	url := fmt.Sprintf("%s/token_security/%d", c.baseURL, chainID)
	query := map[string]string{"contract_addresses": tokenAddress}

	var raw rawResponse
	if err := c.http.Get(ctx, url, query, nil, &raw); err != nil {
		return nil, err
	}
	if raw.Code != 1 {
		return nil, fmt.Errorf("goplus: code=%d message=%s", raw.Code, raw.Message)
	}

	entry, ok := raw.Result[strings.ToLower(tokenAddress)]
	if !ok {
		return nil, fmt.Errorf("goplus: token %s not in scan result", tokenAddress)
	}
	return normalizeEVM(entry), nil
}

// ScanSolana 扫描 Solana 代币
func (c *Client) ScanSolana(ctx context.Context, mint string) (*SecurityScan, error) {
	url := c.baseURL + "/solana/token_security"
	query := map[string]string{"contract_addresses": mint}

	var raw rawSolanaResponse
	if err := c.http.Get(ctx, url, query, nil, &raw); err != nil {
		return nil, err
	}
	if raw.Code != 1 {
		return nil, fmt.Errorf("goplus: code=%d message=%s", raw.Code, raw.Message)
	}

	entry, ok := raw.Result[mint]
	if !ok {
		return nil, fmt.Errorf("goplus: token %s not in scan result", mint)
	}

	scan := &SecurityScan{
		IsMintable: entry.Mintable.Status == "1",
		SellTax:    parseRate(entry.TransferFee.ActualFeeRate),
	}
	if entry.Freezable.Status == "1" {
		scan.TransferPausable = true
		scan.FlaggedFunctions = append(scan.FlaggedFunctions, "freezeAccount")
	}
	scan.OwnershipConcentration = topHolderShare(entry.Holders)
	return scan, nil
}

func normalizeEVM(e rawTokenEntry) *SecurityScan {
	scan := &SecurityScan{
		TokenName:        e.TokenName,
		TokenSymbol:      e.TokenSymbol,
		IsHoneypot:       flag(e.IsHoneypot),
		CannotSellAll:    flag(e.CannotSellAll),
		CannotBuy:        flag(e.CannotBuy),
		TransferPausable: flag(e.TransferPausable),
		IsProxy:          flag(e.IsProxy),
		IsMintable:       flag(e.IsMintable),
		IsOpenSource:     flag(e.IsOpenSource),
		HasBlacklist:     flag(e.IsBlacklisted),
		IsAntiWhale:      flag(e.IsAntiWhale),
		TradingCooldown:  flag(e.TradingCooldown),
		BuyTax:           parseRate(e.BuyTax),
		SellTax:          parseRate(e.SellTax),
	}

	if scan.HasBlacklist {
		scan.FlaggedFunctions = append(scan.FlaggedFunctions, "blacklist")
	}
	if scan.IsMintable {
		scan.FlaggedFunctions = append(scan.FlaggedFunctions, "mint")
	}
	if scan.TransferPausable {
		scan.FlaggedFunctions = append(scan.FlaggedFunctions, "pause")
	}
	if scan.TradingCooldown {
		scan.FlaggedFunctions = append(scan.FlaggedFunctions, "cooldown")
	}

	scan.OwnershipConcentration = topHolderShare(e.Holders)
	return scan
}

func flag(s string) bool {
	return s == "1"
}

func parseRate(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// topHolderShare 前十持仓占比之和
func topHolderShare(holders []rawHolder) float64 {
	var total float64
	for i, h := range holders {
		if i >= 10 {
			break
		}
		total += parseRate(h.Percent)
	}
	if total > 1 {
		total = 1
	}
	return total
}
