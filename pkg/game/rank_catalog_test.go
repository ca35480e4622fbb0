package game

import (
	"testing"

	"github.com/decker502/dungeonrun/pkg/config"
	"github.com/decker502/dungeonrun/pkg/types"
)

// TestBuildRankCatalog 测试等级定义构建
func TestBuildRankCatalog(t *testing.T) {
	catalog, err := config.ParseContentCatalog([]byte(testCatalogYAML))
	if err != nil {
		t.Fatalf("ParseContentCatalog() error: %v", err)
	}
	ranks := BuildRankCatalog(config.DefaultDungeonConfig(), catalog)

	if len(ranks) != len(types.AllRanks()) {
		t.Fatalf("len(ranks) = %d, want %d", len(ranks), len(types.AllRanks()))
	}

	tests := []struct {
		name       string
		rank       types.RankID
		wantRoute  string
		wantBoss   string
		wantReward float64
	}{
		{name: "目录路线", rank: types.RankC, wantRoute: "route-c", wantBoss: "goblin-king", wantReward: 1.0},
		{name: "路线修饰符覆盖倍率", rank: types.RankB, wantRoute: "route-b", wantBoss: "lich", wantReward: 1.2},
		{name: "角色越界取最后一个", rank: types.RankA, wantRoute: "route-a", wantBoss: "lich", wantReward: 1.5},
		{name: "无路线使用默认路线ID", rank: types.RankSSS, wantRoute: config.DefaultRouteID, wantBoss: "lich", wantReward: 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := ranks[tt.rank]
			if def == nil {
				t.Fatalf("rank %s missing", tt.rank)
			}
			if def.RouteID != tt.wantRoute {
				t.Errorf("RouteID = %q, want %q", def.RouteID, tt.wantRoute)
			}
			if def.Boss != tt.wantBoss {
				t.Errorf("Boss = %q, want %q", def.Boss, tt.wantBoss)
			}
			if def.RewardMultiplier != tt.wantReward {
				t.Errorf("RewardMultiplier = %v, want %v", def.RewardMultiplier, tt.wantReward)
			}
		})
	}
}

// TestBuildRankCatalogCostOverride 测试路线修饰符覆盖入场消耗
func TestBuildRankCatalogCostOverride(t *testing.T) {
	catalog := config.NewCatalog(config.CatalogData{
		Routes: []config.Route{{
			ID:        "cheap",
			Rank:      types.RankC,
			Floors:    []string{"f1"},
			Modifiers: config.Modifiers{config.ModEntryCost: 1000, config.ModKeyCost: 0},
		}},
	})
	def := BuildRankCatalog(nil, catalog)[types.RankC]
	if def.EntryCostCurrency != 1000 || def.EntryCostKeys != 0 {
		t.Errorf("costs = %d/%d, want 1000/0", def.EntryCostCurrency, def.EntryCostKeys)
	}
	if def.RewardMultiplier != 1.0 {
		t.Errorf("RewardMultiplier = %v, want default 1.0", def.RewardMultiplier)
	}
}

// TestBuildRankCatalogIgnoresNegativeCost 测试负数消耗不会覆盖默认值
// 否则 CanEnter 放行而 Enter 在扣费时失败
func TestBuildRankCatalogIgnoresNegativeCost(t *testing.T) {
	catalog := config.NewCatalog(config.CatalogData{
		Routes: []config.Route{{
			ID:        "broken",
			Rank:      types.RankC,
			Floors:    []string{"f1"},
			Modifiers: config.Modifiers{config.ModEntryCost: -5, config.ModKeyCost: -1},
		}},
	})
	ranks := BuildRankCatalog(nil, catalog)
	def := ranks[types.RankC]
	want, _ := config.DefaultDungeonConfig().Rank(types.RankC)
	if def.EntryCostCurrency != want.EntryCostCurrency || def.EntryCostKeys != want.EntryCostKeys {
		t.Errorf("costs = %d/%d, want defaults %d/%d",
			def.EntryCostCurrency, def.EntryCostKeys, want.EntryCostCurrency, want.EntryCostKeys)
	}

	ctrl := NewRunController(ranks, catalog, NewProgressionState(), richWallet(), RunControllerOptions{})
	if g := ctrl.CanEnter(types.RankC, 99); !g.Allowed {
		t.Fatalf("CanEnter(C) = %+v", g)
	}
	if _, err := ctrl.Enter(types.RankC); err != nil {
		t.Errorf("Enter(C) after CanEnter allowed error: %v", err)
	}
}

// TestBuildRankCatalogEmptyInputs 测试空输入仍产出全部等级
func TestBuildRankCatalogEmptyInputs(t *testing.T) {
	ranks := BuildRankCatalog(nil, nil)
	for _, id := range types.AllRanks() {
		def, ok := ranks[id]
		if !ok {
			t.Fatalf("rank %s missing", id)
		}
		if def.Boss != "" {
			t.Errorf("rank %s Boss = %q, want empty", id, def.Boss)
		}
		if def.Floors < 1 || def.RoomsPerFloor < 1 {
			t.Errorf("rank %s floors/rooms = %d/%d", id, def.Floors, def.RoomsPerFloor)
		}
		if def.RouteID != config.DefaultRouteID {
			t.Errorf("rank %s RouteID = %q", id, def.RouteID)
		}
	}
}

// TestBuildRankCatalogClampsFloors 测试层数至少为 1
func TestBuildRankCatalogClampsFloors(t *testing.T) {
	cfg := config.DefaultDungeonConfig()
	setRank(cfg, types.RankC, func(rs *config.RankSettings) {
		rs.Floors = 0
		rs.RoomsPerFloor = 0
	})
	def := BuildRankCatalog(cfg, nil)[types.RankC]
	if def.Floors != 1 || def.RoomsPerFloor != 1 {
		t.Errorf("floors/rooms = %d/%d, want 1/1", def.Floors, def.RoomsPerFloor)
	}
}
