package zerox

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		RateLimit: 6000,
		Timeout:   5 * time.Second,
	}, zap.NewNop())
	return c, srv
}

func TestGetQuote(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/swap/v1/quote" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("0x-api-key") != "test-key" {
			t.Error("missing api key header")
		}
		if r.URL.Query().Get("sellAmount") != "1000000000000000000" {
			t.Errorf("sellAmount = %s", r.URL.Query().Get("sellAmount"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"chainId": 56,
			"price": "245.3",
			"to": "0xdef1c0ded9bec7f1a1670819833240f027b25eff",
			"data": "0xd9627aa4",
			"value": "1000000000000000000",
			"gas": "288000",
			"buyAmount": "245300000000000000000",
			"sellAmount": "1000000000000000000",
			"allowanceTarget": "0xdef1c0ded9bec7f1a1670819833240f027b25eff",
			"sources": [{"name": "PancakeSwap_V2", "proportion": "1"}]
		}`))
	})

	quote, err := c.GetQuote(context.Background(), QuoteParams{
		SellToken:  "WBNB",
		BuyToken:   "0x1234",
		SellAmount: "1000000000000000000",
	})
	if err != nil {
		t.Fatal(err)
	}
	if quote.To != "0xdef1c0ded9bec7f1a1670819833240f027b25eff" {
		t.Errorf("to = %s", quote.To)
	}
	if quote.BuyAmount != "245300000000000000000" {
		t.Errorf("buyAmount = %s", quote.BuyAmount)
	}
	if len(quote.Sources) != 1 || quote.Sources[0].Name != "PancakeSwap_V2" {
		t.Errorf("sources = %+v", quote.Sources)
	}
}

func TestGetQuoteNoRoute(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{
			"code": 100,
			"reason": "Validation Failed",
			"validationErrors": [{
				"field": "sellAmount",
				"code": 1004,
				"reason": "INSUFFICIENT_ASSET_LIQUIDITY"
			}]
		}`))
	})

	_, err := c.GetQuote(context.Background(), QuoteParams{
		SellToken:  "WBNB",
		BuyToken:   "0xdead",
		SellAmount: "1",
	})
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("err = %v, want ErrNoRoute", err)
	}
}

func TestGetQuoteServerError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.GetQuote(context.Background(), QuoteParams{
		SellToken: "WBNB", BuyToken: "0x1", SellAmount: "1",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrNoRoute) {
		t.Error("server error misread as no-route")
	}
}
