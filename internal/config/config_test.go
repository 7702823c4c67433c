package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		TelegramBotToken:        "token",
		DatabaseURL:             "postgres://localhost/bot",
		DBMaxConns:              5,
		DBMinConns:              1,
		BotMaxInflight:          64,
		BotUpdateTimeoutSeconds: 60,
		FlowTTL:                 5 * time.Minute,
	}
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("корректная конфигурация отклонена: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"нулевой inflight", func(c *Config) { c.BotMaxInflight = 0 }},
		{"нулевой таймаут polling", func(c *Config) { c.BotUpdateTimeoutSeconds = 0 }},
		{"min > max соединений", func(c *Config) { c.DBMinConns = 10 }},
		{"нулевой max соединений", func(c *Config) { c.DBMaxConns = 0 }},
		{"нулевой TTL диалога", func(c *Config) { c.FlowTTL = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("ожидалась ошибка валидации")
			}
		})
	}
}
