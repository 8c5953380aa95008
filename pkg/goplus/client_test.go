package goplus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestScanEVM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token_security/56" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"code": 1,
			"message": "OK",
			"result": {
				"0xabc": {
					"token_name": "ScamCoin",
					"token_symbol": "SCAM",
					"is_honeypot": "1",
					"cannot_sell_all": "1",
					"is_mintable": "1",
					"is_open_source": "0",
					"is_blacklisted": "1",
					"transfer_pausable": "0",
					"buy_tax": "0.03",
					"sell_tax": "0.45",
					"holders": [
						{"address": "0x1", "percent": "0.60"},
						{"address": "0x2", "percent": "0.15"}
					]
				}
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, RateLimit: 6000, Timeout: 5 * time.Second}, zap.NewNop())

	scan, err := c.ScanEVM(context.Background(), 56, "0xABC")
	if err != nil {
		t.Fatal(err)
	}
	if !scan.IsHoneypot || !scan.CannotSellAll {
		t.Errorf("honeypot flags not parsed: %+v", scan)
	}
	if scan.SellTax != 0.45 {
		t.Errorf("sell_tax = %v", scan.SellTax)
	}
	if scan.OwnershipConcentration != 0.75 {
		t.Errorf("concentration = %v", scan.OwnershipConcentration)
	}

	wantFlags := map[string]bool{"blacklist": true, "mint": true}
	for _, f := range scan.FlaggedFunctions {
		delete(wantFlags, f)
	}
	if len(wantFlags) != 0 {
		t.Errorf("missing flagged functions %v, got %v", wantFlags, scan.FlaggedFunctions)
	}
}

func TestScanEVMErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code": 4010, "message": "app_key not exist"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, RateLimit: 6000, Timeout: 5 * time.Second}, zap.NewNop())
	if _, err := c.ScanEVM(context.Background(), 1, "0x1"); err == nil {
		t.Fatal("expected error on non-1 code")
	}
}

func TestTopHolderShareClamped(t *testing.T) {
	holders := make([]rawHolder, 12)
	for i := range holders {
		holders[i] = rawHolder{Percent: "0.2"}
	}
	// 只取前十且上限 1.0
	if got := topHolderShare(holders); got != 1 {
		t.Errorf("share = %v, want 1", got)
	}
}
