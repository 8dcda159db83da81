package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 5000 {
		t.Fatalf("port = %d", cfg.Port)
	}
	if cfg.ReadLimit != 65536 {
		t.Fatalf("read limit = %d", cfg.ReadLimit)
	}
	if cfg.PingPeriod != 54*time.Second {
		t.Fatalf("ping period = %v", cfg.PingPeriod)
	}
	if cfg.RoomTTL != 5*time.Minute {
		t.Fatalf("room ttl = %v", cfg.RoomTTL)
	}
	if cfg.STUNURL == "" {
		t.Fatal("stun url default missing")
	}
	if cfg.DBPath == "" {
		t.Fatal("db path default missing")
	}
	if cfg.SummarizerURL != "" {
		t.Fatal("summarizer enabled by default")
	}
}
