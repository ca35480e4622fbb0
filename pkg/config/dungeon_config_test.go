package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/decker502/dungeonrun/pkg/types"
)

// TestDefaultDungeonConfig 测试内置默认配置覆盖全部等级
func TestDefaultDungeonConfig(t *testing.T) {
	cfg := DefaultDungeonConfig()

	if cfg.DefaultRouteID != DefaultRouteID {
		t.Errorf("DefaultRouteID = %q, want %q", cfg.DefaultRouteID, DefaultRouteID)
	}
	for _, id := range types.AllRanks() {
		rs, ok := cfg.Rank(id)
		if !ok {
			t.Fatalf("missing default settings for rank %s", id)
		}
		if rs.Floors < 1 {
			t.Errorf("rank %s: floors = %d, want >= 1", id, rs.Floors)
		}
	}

	c, _ := cfg.Rank(types.RankC)
	if c.Floors != 4 || c.DailyEntries != 3 || c.EntryCostCurrency != 400000 || c.EntryCostKeys != 0 {
		t.Errorf("rank C defaults = %+v", c)
	}
}

// TestParseDungeonConfigAppliesDefaults 测试部分配置补齐默认值
func TestParseDungeonConfigAppliesDefaults(t *testing.T) {
	data := []byte(`
ranks:
  - id: B
    unlockLevel: 35
    floors: 2
    dailyEntries: 0
    entryCostCurrency: 10
`)
	cfg, err := ParseDungeonConfig(data)
	if err != nil {
		t.Fatalf("ParseDungeonConfig() error: %v", err)
	}

	if len(cfg.Ranks) != len(types.AllRanks()) {
		t.Fatalf("len(Ranks) = %d, want %d", len(cfg.Ranks), len(types.AllRanks()))
	}
	for i, id := range types.AllRanks() {
		if cfg.Ranks[i].ID != id {
			t.Errorf("Ranks[%d].ID = %s, want %s", i, cfg.Ranks[i].ID, id)
		}
	}

	b, _ := cfg.Rank(types.RankB)
	if b.UnlockLevel != 35 || b.Floors != 2 || b.DailyEntries != 0 || b.EntryCostCurrency != 10 {
		t.Errorf("rank B overrides not kept: %+v", b)
	}
	if b.RewardMultiplier != 1.25 {
		t.Errorf("rank B RewardMultiplier = %v, want default 1.25", b.RewardMultiplier)
	}
	if b.DisplayName == "" {
		t.Error("rank B DisplayName should fall back to default")
	}
	if cfg.DefaultRouteID != DefaultRouteID || cfg.RecentRunLimit != DefaultRecentRunLimit {
		t.Errorf("top-level defaults not applied: %+v", cfg)
	}
}

// TestParseDungeonConfigValidation 测试非法配置
func TestParseDungeonConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "未知等级", yaml: "ranks:\n  - id: D\n", wantErr: "unknown rank"},
		{name: "重复等级", yaml: "ranks:\n  - id: C\n  - id: C\n", wantErr: "duplicate rank"},
		{name: "负层数", yaml: "ranks:\n  - id: C\n    floors: -1\n", wantErr: "floors"},
		{name: "负每日次数", yaml: "ranks:\n  - id: C\n    dailyEntries: -2\n", wantErr: "dailyEntries"},
		{name: "负消耗", yaml: "ranks:\n  - id: C\n    entryCostKeys: -1\n", wantErr: "entry costs"},
		{name: "YAML语法错误", yaml: "ranks: [", wantErr: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDungeonConfig([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

// TestLoadDungeonConfigFile 测试从文件加载
func TestLoadDungeonConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ranks.yaml")
	if err := os.WriteFile(path, []byte("defaultRouteId: route-x\nrecentRunLimit: 3\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg, err := LoadDungeonConfig(path)
	if err != nil {
		t.Fatalf("LoadDungeonConfig() error: %v", err)
	}
	if cfg.DefaultRouteID != "route-x" || cfg.RecentRunLimit != 3 {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := LoadDungeonConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
