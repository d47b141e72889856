package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string `env:"LISTEN_ADDR"`
	Port              string `env:"PORT" envDefault:"8080"`
	DatabasePath      string `env:"DATABASE_PATH" envDefault:"habitlog.db"`
	SessionSecret     string `env:"SESSION_SECRET" envDefault:"habitlog-dev-secret"`
	GinMode           string `env:"GIN_MODE" envDefault:"release"`
	Timezone          string `env:"TIMEZONE"`
	HolidaysFile      string `env:"HOLIDAYS_FILE"`
	SuperRootUserName string `env:"SUPER_ROOT_USER_NAME"`
	SuperRootPassword string `env:"SUPER_ROOT_PASSWORD"`
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() (AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Port = trimOr(cfg.Port, "8080")
	cfg.ListenAddr = trimOr(cfg.ListenAddr, fmt.Sprintf(":%s", cfg.Port))
	cfg.DatabasePath = trimOr(cfg.DatabasePath, "habitlog.db")
	cfg.SessionSecret = trimOr(cfg.SessionSecret, "habitlog-dev-secret")
	cfg.GinMode = trimOr(cfg.GinMode, "release")
	cfg.Timezone = strings.TrimSpace(cfg.Timezone)
	cfg.HolidaysFile = strings.TrimSpace(cfg.HolidaysFile)
	cfg.SuperRootUserName = strings.TrimSpace(cfg.SuperRootUserName)
	cfg.SuperRootPassword = strings.TrimSpace(cfg.SuperRootPassword)

	return cfg, nil
}

// Location 返回用户所在时区，未配置时使用 time.Local
func (c AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", c.Timezone, err)
	}
	return loc, nil
}

func trimOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
