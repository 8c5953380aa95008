package goplus

// rawResponse GoPlus token_security 响应外层
type rawResponse struct {
	Code    int                      `json:"code"`
	Message string                   `json:"message"`
	Result  map[string]rawTokenEntry `json:"result"`
}

// rawTokenEntry GoPlus 的布尔字段都是 "0"/"1" 字符串，税率是小数字符串
type rawTokenEntry struct {
	TokenName       string `json:"token_name"`
	TokenSymbol     string `json:"token_symbol"`
	IsOpenSource    string `json:"is_open_source"`
	IsProxy         string `json:"is_proxy"`
	IsMintable      string `json:"is_mintable"`
	IsHoneypot      string `json:"is_honeypot"`
	CannotSellAll   string `json:"cannot_sell_all"`
	CannotBuy       string `json:"cannot_buy"`
	TransferPausable string `json:"transfer_pausable"`
	IsBlacklisted   string `json:"is_blacklisted"`
	IsWhitelisted   string `json:"is_whitelisted"`
	IsAntiWhale     string `json:"is_anti_whale"`
	TradingCooldown string `json:"trading_cooldown"`
	BuyTax          string `json:"buy_tax"`
	SellTax         string `json:"sell_tax"`
	OwnerAddress    string `json:"owner_address"`
	CreatorAddress  string `json:"creator_address"`
	CreatorPercent  string `json:"creator_percent"`
	OwnerPercent    string `json:"owner_percent"`
	HolderCount     string `json:"holder_count"`
	Holders         []rawHolder `json:"holders"`
}

type rawHolder struct {
	Address string `json:"address"`
	Percent string `json:"percent"`
}

// rawSolanaResponse Solana 端点的响应结构不同
type rawSolanaResponse struct {
	Code    int                       `json:"code"`
	Message string                    `json:"message"`
	Result  map[string]rawSolanaEntry `json:"result"`
}

type rawSolanaEntry struct {
	Mintable struct {
		Status string `json:"status"`
	} `json:"mintable"`
	Freezable struct {
		Status string `json:"status"`
	} `json:"freezable"`
	TransferFee struct {
		ActualFeeRate string `json:"actual_fee_rate"`
	} `json:"transfer_fee"`
	Holders []rawHolder `json:"holders"`
}

// SecurityScan 归一化后的扫描结果，布尔/数值已经转成 Go 类型
type SecurityScan struct {
	TokenName              string
	TokenSymbol            string
	IsHoneypot             bool
	CannotSellAll          bool
	CannotBuy              bool
	TransferPausable       bool
	IsProxy                bool
	IsMintable             bool
	IsOpenSource           bool
	HasBlacklist           bool
	IsAntiWhale            bool
	TradingCooldown        bool
	BuyTax                 float64 // 0.05 = 5%
	SellTax                float64
	OwnershipConcentration float64 // 前十持仓占比 0-1
	FlaggedFunctions       []string
}
