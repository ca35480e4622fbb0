package game

import (
	"log"

	"github.com/decker502/dungeonrun/pkg/config"
	"github.com/decker502/dungeonrun/pkg/types"
)

// RankDefinition 等级定义（构建后不可修改）
type RankDefinition struct {
	ID                types.RankID
	DisplayName       string
	Icon              string
	UnlockLevel       int
	Floors            int // >= 1
	RoomsPerFloor     int
	DailyEntries      int // 0 表示不限
	RewardMultiplier  float64
	EntryCostCurrency int
	EntryCostKeys     int
	RouteID           string
	Boss              string // 代表角色ID，目录没有角色时为空
}

// BuildRankCatalog 根据静态配置和内容目录构建全部等级定义
//
// 纯函数，不会失败：
//   - 路线：目录中第一条关联该等级的路线，否则使用配置的默认路线ID
//   - 代表角色：按等级序号取目录角色，越界时取最后一个
//   - 消耗与倍率：路线修饰符存在时覆盖静态默认值
//
// 参数：
//   - cfg: 等级静态配置，nil 时使用内置默认配置
//   - catalog: 内容目录，nil 时视为空目录
//
// 返回：
//   - map[types.RankID]*RankDefinition: 每个等级一份完整定义
func BuildRankCatalog(cfg *config.DungeonConfig, catalog config.ContentCatalog) map[types.RankID]*RankDefinition {
	if cfg == nil {
		cfg = config.DefaultDungeonConfig()
	}
	if catalog == nil {
		catalog = config.NewCatalog(config.CatalogData{})
	}
	defaults := config.DefaultDungeonConfig()
	characters := catalog.Characters()

	ranks := make(map[types.RankID]*RankDefinition, len(types.AllRanks()))
	for _, id := range types.AllRanks() {
		rs, ok := cfg.Rank(id)
		if !ok {
			rs, _ = defaults.Rank(id)
		}

		def := &RankDefinition{
			ID:                id,
			DisplayName:       rs.DisplayName,
			Icon:              rs.Icon,
			UnlockLevel:       rs.UnlockLevel,
			Floors:            max(rs.Floors, 1),
			RoomsPerFloor:     max(rs.RoomsPerFloor, 1),
			DailyEntries:      rs.DailyEntries,
			RewardMultiplier:  rs.RewardMultiplier,
			EntryCostCurrency: rs.EntryCostCurrency,
			EntryCostKeys:     rs.EntryCostKeys,
		}

		route, ok := catalog.RouteForRank(id)
		if !ok {
			def.RouteID = cfg.DefaultRouteID
			route, ok = catalog.Route(cfg.DefaultRouteID)
		} else {
			def.RouteID = route.ID
		}
		if ok {
			applyRouteModifiers(def, route.Modifiers)
		}

		if len(characters) > 0 {
			idx := min(id.Ordinal(), len(characters)-1)
			def.Boss = characters[idx].ID
		}

		ranks[id] = def
	}
	return ranks
}

// applyRouteModifiers 用路线修饰符覆盖消耗与倍率
// 负数消耗会被忽略，保留等级默认值
func applyRouteModifiers(def *RankDefinition, mods config.Modifiers) {
	if v, ok := mods.Get(config.ModRewardMultiplier); ok {
		def.RewardMultiplier = v
	}
	if v, ok := mods.Get(config.ModEntryCost); ok {
		if v < 0 {
			log.Printf("[RankCatalog] Warning: rank %s ignores negative %s %v", def.ID, config.ModEntryCost, v)
		} else {
			def.EntryCostCurrency = int(v)
		}
	}
	if v, ok := mods.Get(config.ModKeyCost); ok {
		if v < 0 {
			log.Printf("[RankCatalog] Warning: rank %s ignores negative %s %v", def.ID, config.ModKeyCost, v)
		} else {
			def.EntryCostKeys = int(v)
		}
	}
}
