package tsetmc

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mshojaei77/tsetmc-go/common"
)

func TestNewDefaults(t *testing.T) {
	client, err := New(WithoutCache())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if client.Stocks() == nil || client.Prices() == nil || client.Market() == nil ||
		client.Trading() == nil || client.Data() == nil {
		t.Fatal("expected all services to be wired")
	}
	if client.Cache() != nil {
		t.Error("cache should be nil when disabled")
	}
	if client.Config().Client.BaseURL != "http://www.tsetmc.com" {
		t.Errorf("base url = %q", client.Config().Client.BaseURL)
	}
}

func TestNewWithOptions(t *testing.T) {
	client, err := New(
		WithoutCache(),
		WithLogger(common.NewSilentLogger()),
		WithBaseURL("http://primary.test"),
		WithLegacyBaseURL("http://legacy.test"),
		WithCDNBaseURL("http://cdn.test"),
		WithIFBBaseURL("http://ifb.test"),
		WithTimeout(5*time.Second),
		WithRateLimit(2),
		WithUserAgent("tester/1.0"),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	cfg := client.Config().Client
	if cfg.BaseURL != "http://primary.test" || cfg.LegacyBaseURL != "http://legacy.test" {
		t.Errorf("base urls = %q / %q", cfg.BaseURL, cfg.LegacyBaseURL)
	}
	if cfg.CDNBaseURL != "http://cdn.test" || cfg.IFBBaseURL != "http://ifb.test" {
		t.Errorf("cdn/ifb urls = %q / %q", cfg.CDNBaseURL, cfg.IFBBaseURL)
	}
	if cfg.GetTimeout() != 5*time.Second {
		t.Errorf("timeout = %v", cfg.GetTimeout())
	}
	if cfg.RateLimit != 2 || cfg.UserAgent != "tester/1.0" {
		t.Errorf("rate limit = %d, user agent = %q", cfg.RateLimit, cfg.UserAgent)
	}
}

func TestNewWithConfig(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Client.BaseURL = "http://override.test"
	cfg.Cache.Enabled = false

	client, err := New(WithConfig(cfg))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if client.Config() != cfg {
		t.Error("WithConfig should install the given config")
	}
	if client.Config().Client.BaseURL != "http://override.test" {
		t.Errorf("base url = %q", client.Config().Client.BaseURL)
	}
}

func TestNewWithCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")

	client, err := New(WithCacheDir(dir), WithLogger(common.NewSilentLogger()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if client.Cache() == nil {
		t.Fatal("cache should be wired when enabled")
	}

	if err := client.Cache().SaveJSON("snapshot", map[string]int{"rows": 1}); err != nil {
		t.Fatalf("SaveJSON failed: %v", err)
	}
	var out map[string]int
	if _, err := client.Cache().LoadJSON("snapshot", &out); err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if out["rows"] != 1 {
		t.Errorf("round trip = %+v", out)
	}
}
