package zerox

// QuoteParams swap/v1/quote 请求参数
type QuoteParams struct {
	SellToken         string
	BuyToken          string
	SellAmount        string // 最小单位十进制字符串
	Taker             string
	SlippagePercent   float64 // 0.01 = 1%
	SkipValidation    bool
}

// QuoteResponse swap/v1/quote 响应。字段保持 0x 原始命名
type QuoteResponse struct {
	ChainID            int64    `json:"chainId"`
	Price              string   `json:"price"`
	GuaranteedPrice    string   `json:"guaranteedPrice"`
	To                 string   `json:"to"`
	Data               string   `json:"data"`
	Value              string   `json:"value"`
	Gas                string   `json:"gas"`
	EstimatedGas       string   `json:"estimatedGas"`
	GasPrice           string   `json:"gasPrice"`
	BuyAmount          string   `json:"buyAmount"`
	SellAmount         string   `json:"sellAmount"`
	AllowanceTarget    string   `json:"allowanceTarget"`
	Sources            []Source `json:"sources"`
	EstimatedPriceImpact string `json:"estimatedPriceImpact"`
}

// Source 流动性来源占比
type Source struct {
	Name       string `json:"name"`
	Proportion string `json:"proportion"`
}

// PriceResponse swap/v1/price 响应（纯询价，不构建交易）
type PriceResponse struct {
	Price                string `json:"price"`
	BuyAmount            string `json:"buyAmount"`
	SellAmount           string `json:"sellAmount"`
	EstimatedPriceImpact string `json:"estimatedPriceImpact"`
}

// apiError 0x 错误响应体
type apiError struct {
	Code             int    `json:"code"`
	Reason           string `json:"reason"`
	ValidationErrors []struct {
		Field  string `json:"field"`
		Code   int    `json:"code"`
		Reason string `json:"reason"`
	} `json:"validationErrors"`
}
