package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	RoomTTL    time.Duration `mapstructure:"room_ttl"`
	STUNURL    string        `mapstructure:"stun_url"`

	// DBPath selects the sqlite chat store; empty disables persistence
	// and chat survives only in each client's transcript.
	DBPath string `mapstructure:"db_path"`

	// Summarizer is the external topic-suggestion service.
	SummarizerURL string `mapstructure:"summarizer_url"`
	SummarizerKey string `mapstructure:"summarizer_key"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 5000)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("room_ttl", "5m")
	v.SetDefault("stun_url", "stun:stun.l.google.com:19302")
	v.SetDefault("db_path", filepath.Join(xdg.DataHome, "commverse", "commverse.sqlite"))
	v.SetDefault("summarizer_url", "")
	v.SetDefault("summarizer_key", "")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
