package config

import (
	"testing"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	if cfg.Trading.MaxAttempts != 3 {
		t.Errorf("default max_attempts = %d, want 3", cfg.Trading.MaxAttempts)
	}
	if cfg.Trading.BlockScore != 3.0 {
		t.Errorf("default block_score = %v, want 3.0", cfg.Trading.BlockScore)
	}
	if cfg.Trading.BoundarySafe != 8.0 || cfg.Trading.BoundaryHigh != 2.0 {
		t.Errorf("default level boundaries = %+v", cfg.Trading)
	}
	if cfg.Worker.WorkerNum != 8 {
		t.Errorf("default worker_num = %d, want 8", cfg.Worker.WorkerNum)
	}

	t.Logf("cfg trading: %+v", cfg.Trading)
}

func TestMirrorSellDefaultsOn(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	setDefaults()

	var cfg Config
	if err := mapstructure.Decode(viper.AllSettings(), &cfg); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	applyDefaults(&cfg)

	if !cfg.Trading.MirrorSellEnabled {
		t.Error("mirror_sell_enabled not defaulted to true")
	}
	if cfg.Trading.MirrorBuyEnabled {
		t.Error("mirror_buy_enabled should default to false")
	}

	// 显式关闭不被默认值覆盖
	viper.Set("trading.mirror_sell_enabled", false)
	var off Config
	if err := mapstructure.Decode(viper.AllSettings(), &off); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	applyDefaults(&off)
	if off.Trading.MirrorSellEnabled {
		t.Error("explicit mirror_sell_enabled=false overridden by default")
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{}
	cfg.Trading.MaxAttempts = 5
	cfg.Trading.BlockScore = 4.5
	applyDefaults(&cfg)

	if cfg.Trading.MaxAttempts != 5 {
		t.Errorf("explicit max_attempts overwritten: %d", cfg.Trading.MaxAttempts)
	}
	if cfg.Trading.BlockScore != 4.5 {
		t.Errorf("explicit block_score overwritten: %v", cfg.Trading.BlockScore)
	}
}
