package config

import (
	"fmt"
	"os"

	"github.com/decker502/dungeonrun/pkg/types"
	"gopkg.in/yaml.v3"
)

// DefaultRouteID 目录中没有路线映射到某等级时使用的路线ID
const DefaultRouteID = "route-default"

// DefaultRecentRunLimit 保留的最近结束记录数量
const DefaultRecentRunLimit = 10

// DungeonConfig 地牢等级静态配置
// 定义每个等级的默认解锁等级、层数、每日次数、消耗等
type DungeonConfig struct {
	DefaultRouteID string         `yaml:"defaultRouteId"` // 默认路线ID，如 "route-default"
	RecentRunLimit int            `yaml:"recentRunLimit"` // 最近结束记录保留数量，默认 10
	Ranks          []RankSettings `yaml:"ranks"`          // 各等级配置（按任意顺序，缺失的等级使用内置默认值）
}

// RankSettings 单个等级的静态配置
type RankSettings struct {
	ID                types.RankID `yaml:"id"`                // 等级ID，如 "C"
	DisplayName       string       `yaml:"displayName"`       // 显示名称
	Icon              string       `yaml:"icon"`              // 图标资源ID
	UnlockLevel       int          `yaml:"unlockLevel"`       // 入场所需玩家等级
	Floors            int          `yaml:"floors"`            // 层数（>= 1）
	RoomsPerFloor     int          `yaml:"roomsPerFloor"`     // 每层房间数
	DailyEntries      int          `yaml:"dailyEntries"`      // 每日入场次数上限，0 表示不限
	RewardMultiplier  float64      `yaml:"rewardMultiplier"`  // 奖励倍率
	EntryCostCurrency int          `yaml:"entryCostCurrency"` // 入场金币消耗
	EntryCostKeys     int          `yaml:"entryCostKeys"`     // 入场钥匙消耗
}

// builtinRanks 内置等级默认值
var builtinRanks = []RankSettings{
	{ID: types.RankC, DisplayName: "C 级地牢", Icon: "ICON_RANK_C", UnlockLevel: 20, Floors: 4, RoomsPerFloor: 3, DailyEntries: 3, RewardMultiplier: 1.0, EntryCostCurrency: 400000, EntryCostKeys: 0},
	{ID: types.RankB, DisplayName: "B 级地牢", Icon: "ICON_RANK_B", UnlockLevel: 30, Floors: 5, RoomsPerFloor: 3, DailyEntries: 3, RewardMultiplier: 1.25, EntryCostCurrency: 600000, EntryCostKeys: 1},
	{ID: types.RankA, DisplayName: "A 级地牢", Icon: "ICON_RANK_A", UnlockLevel: 40, Floors: 6, RoomsPerFloor: 4, DailyEntries: 2, RewardMultiplier: 1.5, EntryCostCurrency: 900000, EntryCostKeys: 1},
	{ID: types.RankS, DisplayName: "S 级地牢", Icon: "ICON_RANK_S", UnlockLevel: 50, Floors: 7, RoomsPerFloor: 4, DailyEntries: 2, RewardMultiplier: 2.0, EntryCostCurrency: 1200000, EntryCostKeys: 2},
	{ID: types.RankSS, DisplayName: "SS 级地牢", Icon: "ICON_RANK_SS", UnlockLevel: 60, Floors: 8, RoomsPerFloor: 5, DailyEntries: 1, RewardMultiplier: 2.5, EntryCostCurrency: 1600000, EntryCostKeys: 2},
	{ID: types.RankSSS, DisplayName: "SSS 级地牢", Icon: "ICON_RANK_SSS", UnlockLevel: 70, Floors: 10, RoomsPerFloor: 5, DailyEntries: 1, RewardMultiplier: 3.0, EntryCostCurrency: 2000000, EntryCostKeys: 3},
}

// DefaultDungeonConfig 返回内置默认配置
func DefaultDungeonConfig() *DungeonConfig {
	ranks := make([]RankSettings, len(builtinRanks))
	copy(ranks, builtinRanks)
	return &DungeonConfig{
		DefaultRouteID: DefaultRouteID,
		RecentRunLimit: DefaultRecentRunLimit,
		Ranks:          ranks,
	}
}

// LoadDungeonConfig 从YAML文件加载等级配置
// 参数：
//
//	filepath - 配置文件路径
//
// 返回：
//
//	*DungeonConfig - 应用默认值并验证后的配置
//	error - 文件读取、解析或验证失败时返回错误
func LoadDungeonConfig(filepath string) (*DungeonConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read dungeon config file %s: %w", filepath, err)
	}

	cfg, err := ParseDungeonConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid dungeon config in %s: %w", filepath, err)
	}
	return cfg, nil
}

// ParseDungeonConfig 从YAML字节解析等级配置（用于嵌入资源）
func ParseDungeonConfig(data []byte) (*DungeonConfig, error) {
	var cfg DungeonConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse dungeon config YAML: %w", err)
	}

	if err := validateDungeonConfig(&cfg); err != nil {
		return nil, err
	}
	applyDungeonDefaults(&cfg)

	return &cfg, nil
}

// Rank 查询等级配置
func (c *DungeonConfig) Rank(id types.RankID) (RankSettings, bool) {
	for _, r := range c.Ranks {
		if r.ID == id {
			return r, true
		}
	}
	return RankSettings{}, false
}

// applyDungeonDefaults 补齐缺失的等级和可选字段
// 确保每个等级都有完整定义（旧配置文件可正常加载）
func applyDungeonDefaults(cfg *DungeonConfig) {
	if cfg.DefaultRouteID == "" {
		cfg.DefaultRouteID = DefaultRouteID
	}
	if cfg.RecentRunLimit <= 0 {
		cfg.RecentRunLimit = DefaultRecentRunLimit
	}

	// 按内置全序重排，缺失的等级整体使用默认值
	ranks := make([]RankSettings, 0, len(builtinRanks))
	for _, def := range builtinRanks {
		rs, ok := cfg.Rank(def.ID)
		if !ok {
			ranks = append(ranks, def)
			continue
		}
		if rs.DisplayName == "" {
			rs.DisplayName = def.DisplayName
		}
		if rs.Icon == "" {
			rs.Icon = def.Icon
		}
		if rs.Floors == 0 {
			rs.Floors = def.Floors
		}
		if rs.RoomsPerFloor == 0 {
			rs.RoomsPerFloor = def.RoomsPerFloor
		}
		if rs.RewardMultiplier == 0 {
			rs.RewardMultiplier = def.RewardMultiplier
		}
		ranks = append(ranks, rs)
	}
	cfg.Ranks = ranks
}

// validateDungeonConfig 验证等级配置的合法性
func validateDungeonConfig(cfg *DungeonConfig) error {
	seen := make(map[types.RankID]bool, len(cfg.Ranks))
	for i, r := range cfg.Ranks {
		if !r.ID.IsValid() {
			return fmt.Errorf("ranks[%d]: unknown rank id %q", i, r.ID)
		}
		if seen[r.ID] {
			return fmt.Errorf("ranks[%d]: duplicate rank id %q", i, r.ID)
		}
		seen[r.ID] = true

		if r.Floors < 0 {
			return fmt.Errorf("ranks[%d]: floors cannot be negative, got %d", i, r.Floors)
		}
		if r.RoomsPerFloor < 0 {
			return fmt.Errorf("ranks[%d]: roomsPerFloor cannot be negative, got %d", i, r.RoomsPerFloor)
		}
		if r.DailyEntries < 0 {
			return fmt.Errorf("ranks[%d]: dailyEntries cannot be negative, got %d", i, r.DailyEntries)
		}
		if r.RewardMultiplier < 0 {
			return fmt.Errorf("ranks[%d]: rewardMultiplier cannot be negative, got %v", i, r.RewardMultiplier)
		}
		if r.EntryCostCurrency < 0 || r.EntryCostKeys < 0 {
			return fmt.Errorf("ranks[%d]: entry costs cannot be negative", i)
		}
	}
	return nil
}
