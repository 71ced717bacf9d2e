// Package config loads application configuration from a yaml file and
// environment variables via viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Models    ModelsConfig    `mapstructure:"models"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig stores HTTP server settings.
type ServerConfig struct {
	Addr      string `mapstructure:"addr"`       // listen address
	StaticDir string `mapstructure:"static_dir"` // UI assets; empty disables the mount
}

// ChatConfig stores orchestration settings.
type ChatConfig struct {
	HistoryLimit          int           `mapstructure:"history_limit"`           // exchanges kept per conversation
	EnableImageGeneration bool          `mapstructure:"enable_image_generation"` // dispatch embedded image requests
	UseMocks              bool          `mapstructure:"use_mocks"`               // serve canned backend replies
	EnableCatbotFallback  bool          `mapstructure:"enable_catbot_fallback"`  // canned reply on text transport failure
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`         // per backend call
	BlockedWords          []string      `mapstructure:"blocked_words"`           // image prompt denylist
}

// ProvidersConfig stores inference endpoint settings.
type ProvidersConfig struct {
	DeepSeekEndpoint  string `mapstructure:"deepseek_endpoint"`
	DeepSeekModel     string `mapstructure:"deepseek_model"`
	DiffusionEndpoint string `mapstructure:"diffusion_endpoint"`
}

// ModelsConfig stores model snapshot cache settings.
type ModelsConfig struct {
	CacheDir string `mapstructure:"cache_dir"`
}

// LogConfig stores logging settings.
type LogConfig struct {
	Level         string `mapstructure:"level"`          // zerolog level name
	EnableTracing bool   `mapstructure:"enable_tracing"` // span logging around backend calls
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/luma")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.static_dir", "static")

	v.SetDefault("chat.history_limit", 10)
	v.SetDefault("chat.enable_image_generation", false)
	v.SetDefault("chat.use_mocks", false)
	v.SetDefault("chat.enable_catbot_fallback", false)
	v.SetDefault("chat.request_timeout", "30s")
	v.SetDefault("chat.blocked_words", []string{})

	v.SetDefault("providers.deepseek_endpoint", "http://localhost:8001/v1/chat/completions")
	v.SetDefault("providers.deepseek_model", "OpenVINO/DeepSeek-R1-Distill-Qwen-1.5B-int4-ov")
	v.SetDefault("providers.diffusion_endpoint", "http://localhost:8002/v1/images/generations")

	v.SetDefault("models.cache_dir", "data/models")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.enable_tracing", true)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Chat.HistoryLimit < 0 {
		return nil, fmt.Errorf("chat.history_limit must be non-negative, got %d", cfg.Chat.HistoryLimit)
	}
	if cfg.Chat.RequestTimeout <= 0 {
		return nil, fmt.Errorf("chat.request_timeout must be positive, got %s", cfg.Chat.RequestTimeout)
	}

	return &cfg, nil
}
