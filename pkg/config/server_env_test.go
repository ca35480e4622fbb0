package config

import "testing"

// TestLoadServerEnvDefaults 测试环境变量默认值
func TestLoadServerEnvDefaults(t *testing.T) {
	cfg, err := LoadServerEnv()
	if err != nil {
		t.Fatalf("LoadServerEnv() error: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Storage != StorageGdata || cfg.StartLevel != 25 || cfg.StartCurrency != 500000 {
		t.Errorf("defaults = %+v", cfg)
	}
}

// TestLoadServerEnvOverrides 测试环境变量覆盖
func TestLoadServerEnvOverrides(t *testing.T) {
	t.Setenv("DUNGEON_STORAGE", "sqlite")
	t.Setenv("DUNGEON_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("DUNGEON_START_KEYS", "4")

	cfg, err := LoadServerEnv()
	if err != nil {
		t.Fatalf("LoadServerEnv() error: %v", err)
	}
	if cfg.Storage != StorageSQLite || cfg.SQLitePath != "/tmp/x.db" || cfg.StartKeys != 4 {
		t.Errorf("overrides = %+v", cfg)
	}
}

// TestLoadServerEnvInvalid 测试非法存储类型和数值
func TestLoadServerEnvInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "未知存储", key: "DUNGEON_STORAGE", value: "redis"},
		{name: "负金币", key: "DUNGEON_START_CURRENCY", value: "-1"},
		{name: "非数字等级", key: "DUNGEON_START_LEVEL", value: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadServerEnv(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
