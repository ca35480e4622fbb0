package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// 存储后端类型
const (
	StorageMemory = "memory"
	StorageGdata  = "gdata"
	StorageSQLite = "sqlite"
)

// ServerEnv 地牢服务进程配置（来自环境变量）
type ServerEnv struct {
	Addr          string `env:"DUNGEON_ADDR" envDefault:":8080"`
	CatalogPath   string `env:"DUNGEON_CATALOG_PATH"` // 为空时使用嵌入的 data/dungeon/catalog.yaml
	RanksPath     string `env:"DUNGEON_RANKS_PATH"`   // 为空时使用嵌入的 data/dungeon/ranks.yaml
	Storage       string `env:"DUNGEON_STORAGE" envDefault:"gdata"`
	SQLitePath    string `env:"DUNGEON_SQLITE_PATH" envDefault:"dungeonrun.db"`
	AppName       string `env:"DUNGEON_APP_NAME" envDefault:"dungeonrun"`
	StartLevel    int    `env:"DUNGEON_START_LEVEL" envDefault:"25"`
	StartCurrency int    `env:"DUNGEON_START_CURRENCY" envDefault:"500000"`
	StartKeys     int    `env:"DUNGEON_START_KEYS" envDefault:"0"`
}

// LoadServerEnv 从环境变量加载服务配置
func LoadServerEnv() (ServerEnv, error) {
	var cfg ServerEnv
	if err := env.Parse(&cfg); err != nil {
		return ServerEnv{}, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.Storage {
	case StorageMemory, StorageGdata, StorageSQLite:
	default:
		return ServerEnv{}, fmt.Errorf("DUNGEON_STORAGE must be one of: memory, gdata, sqlite, got %q", cfg.Storage)
	}
	if cfg.StartLevel < 0 || cfg.StartCurrency < 0 || cfg.StartKeys < 0 {
		return ServerEnv{}, fmt.Errorf("starting player values cannot be negative")
	}
	return cfg, nil
}
