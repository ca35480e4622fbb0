package game

import (
	"testing"
	"time"

	"github.com/decker502/dungeonrun/pkg/config"
	"github.com/decker502/dungeonrun/pkg/types"
)

// TestCanEnterLevelMonotonic 测试等级不足时任何等级都不能进入
func TestCanEnterLevelMonotonic(t *testing.T) {
	env := newTestEnv(t, richWallet(), nil)
	for _, id := range types.AllRanks() {
		env.state.unlock(id)
	}

	for _, id := range types.AllRanks() {
		def, _ := env.ctrl.Rank(id)
		t.Run(string(id), func(t *testing.T) {
			if got := env.ctrl.CanEnter(id, def.UnlockLevel-1); got.Allowed || got.Code != GateLevelTooLow {
				t.Errorf("CanEnter(%s, %d) = %+v, want level_too_low", id, def.UnlockLevel-1, got)
			}
			if got := env.ctrl.CanEnter(id, def.UnlockLevel); !got.Allowed {
				t.Errorf("CanEnter(%s, %d) = %+v, want allowed", id, def.UnlockLevel, got)
			}
		})
	}
}

// TestCanEnterPrerequisite 测试未解锁等级需要前一等级全部通关
func TestCanEnterPrerequisite(t *testing.T) {
	env := newTestEnv(t, richWallet(), nil)

	if got := env.ctrl.CanEnter(types.RankC, 99); !got.Allowed {
		t.Fatalf("lowest rank should be enterable: %+v", got)
	}
	if got := env.ctrl.CanEnter(types.RankB, 99); got.Code != GateLocked {
		t.Fatalf("CanEnter(B) = %+v, want locked", got)
	}

	for floor := 1; floor <= 3; floor++ {
		_ = env.ctrl.ClearFloor(types.RankC, floor, 0)
	}
	if got := env.ctrl.CanEnter(types.RankB, 99); got.Code != GateLocked {
		t.Errorf("partially cleared C should keep B locked, got %+v", got)
	}

	_ = env.ctrl.ClearFloor(types.RankC, 4, 0)
	if got := env.ctrl.CanEnter(types.RankB, 99); !got.Allowed {
		t.Errorf("CanEnter(B) after clearing C = %+v", got)
	}
	if got := env.ctrl.CanEnter(types.RankA, 99); got.Code != GateLocked {
		t.Errorf("CanEnter(A) = %+v, want locked", got)
	}

	// 已解锁的等级（如从存档加载）不再检查前置
	env.state.unlock(types.RankSS)
	if got := env.ctrl.CanEnter(types.RankSS, 99); !got.Allowed {
		t.Errorf("CanEnter(SS) when unlocked = %+v", got)
	}
}

// TestCanEnterCheckOrder 测试检查顺序与短路
func TestCanEnterCheckOrder(t *testing.T) {
	tests := []struct {
		name   string
		wallet *Wallet
		rank   types.RankID
		level  int
		want   GateCode
	}{
		{name: "未知等级", wallet: richWallet(), rank: "X", level: 99, want: GateUnknownRank},
		{name: "等级不足优先于未解锁", wallet: NewWallet(1, 0, 0), rank: types.RankB, level: 1, want: GateLevelTooLow},
		{name: "未解锁优先于金币", wallet: NewWallet(99, 0, 0), rank: types.RankB, level: 99, want: GateLocked},
		{name: "金币不足", wallet: NewWallet(25, 399999, 10), rank: types.RankC, level: 25, want: GateInsufficientCurrency},
		{name: "钥匙不足", wallet: NewWallet(99, 10_000_000, 0), rank: types.RankB, level: 99, want: GateInsufficientKeys},
		{name: "全部满足", wallet: NewWallet(25, 400000, 0), rank: types.RankC, level: 25, want: GateOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.wallet, nil)
			if tt.want == GateInsufficientKeys {
				env.state.unlock(types.RankB)
			}
			got := env.ctrl.CanEnter(tt.rank, tt.level)
			if got.Code != tt.want {
				t.Errorf("CanEnter() code = %q, want %q (reason: %s)", got.Code, tt.want, got.Reason)
			}
			if got.Allowed != (tt.want == GateOK) {
				t.Errorf("CanEnter() allowed = %v", got.Allowed)
			}
			if !got.Allowed && got.Reason == "" {
				t.Error("rejection should carry a reason")
			}
		})
	}
}

// TestDailyCap 测试每日次数上限
func TestDailyCap(t *testing.T) {
	env := newTestEnv(t, richWallet(), func(cfg *config.DungeonConfig) {
		setRank(cfg, types.RankC, func(rs *config.RankSettings) { rs.DailyEntries = 2 })
	})

	for i := 1; i <= 2; i++ {
		if _, err := env.ctrl.Enter(types.RankC); err != nil {
			t.Fatalf("Enter #%d error: %v", i, err)
		}
	}

	got := env.ctrl.CanEnter(types.RankC, 99)
	if got.Allowed || got.Code != GateDailyLimit {
		t.Fatalf("third CanEnter = %+v, want daily_limit", got)
	}
	if _, err := env.ctrl.Enter(types.RankC); err == nil {
		t.Fatal("third Enter should be rejected")
	}
	if env.state.DailyEntries[types.RankC] != 2 {
		t.Errorf("DailyEntries[C] = %d, want 2", env.state.DailyEntries[types.RankC])
	}

	ranks := env.ctrl.GetAvailableRanks(99)
	if ranks[0].Rank != types.RankC || ranks[0].EntriesUsed != 2 || ranks[0].EntriesRemaining != 0 {
		t.Errorf("GetAvailableRanks()[0] = %+v", ranks[0])
	}
}

// TestDailyUnlimited 测试每日次数为 0 时不限
func TestDailyUnlimited(t *testing.T) {
	env := newTestEnv(t, richWallet(), func(cfg *config.DungeonConfig) {
		setRank(cfg, types.RankC, func(rs *config.RankSettings) { rs.DailyEntries = 0 })
	})

	for i := 1; i <= 5; i++ {
		if _, err := env.ctrl.Enter(types.RankC); err != nil {
			t.Fatalf("Enter #%d error: %v", i, err)
		}
	}
	if got := env.ctrl.GetAvailableRanks(99)[0].EntriesRemaining; got != -1 {
		t.Errorf("EntriesRemaining = %d, want -1", got)
	}
}

// TestDailyResetAcrossDays 测试跨日重置每日次数
func TestDailyResetAcrossDays(t *testing.T) {
	env := newTestEnv(t, richWallet(), func(cfg *config.DungeonConfig) {
		setRank(cfg, types.RankC, func(rs *config.RankSettings) { rs.DailyEntries = 1 })
	})

	if _, err := env.ctrl.Enter(types.RankC); err != nil {
		t.Fatalf("Enter error: %v", err)
	}
	firstDay := env.state.LastResetDate

	// 挑战进行中跨日：不重置
	env.clock.Advance(24 * time.Hour)
	if got := env.ctrl.CanEnter(types.RankC, 99); got.Code != GateDailyLimit {
		t.Errorf("CanEnter during active run across days = %+v, want daily_limit", got)
	}

	if _, err := env.ctrl.Abandon(); err != nil {
		t.Fatalf("Abandon error: %v", err)
	}
	if got := env.ctrl.CanEnter(types.RankC, 99); !got.Allowed {
		t.Fatalf("CanEnter after day change = %+v", got)
	}
	// 只读检查不会写入重置
	if env.state.LastResetDate != firstDay || env.state.DailyEntries[types.RankC] != 1 {
		t.Error("CanEnter must not reset the stored counters")
	}

	if _, err := env.ctrl.Enter(types.RankC); err != nil {
		t.Fatalf("Enter on new day error: %v", err)
	}
	if env.state.LastResetDate == firstDay {
		t.Error("LastResetDate should move to the new day")
	}
	if env.state.DailyEntries[types.RankC] != 1 {
		t.Errorf("DailyEntries[C] = %d, want 1", env.state.DailyEntries[types.RankC])
	}
}

// TestGetAvailableRanks 测试等级概览
func TestGetAvailableRanks(t *testing.T) {
	env := newTestEnv(t, NewWallet(25, 500000, 0), nil)

	ranks := env.ctrl.GetAvailableRanks(25)
	if len(ranks) != len(types.AllRanks()) {
		t.Fatalf("len(GetAvailableRanks()) = %d", len(ranks))
	}
	for i, id := range types.AllRanks() {
		if ranks[i].Rank != id {
			t.Errorf("ranks[%d] = %s, want %s", i, ranks[i].Rank, id)
		}
	}

	c := ranks[0]
	if !c.Allowed || !c.Unlocked || c.EntriesRemaining != 3 || c.DisplayName == "" {
		t.Errorf("rank C summary = %+v", c)
	}
	b := ranks[1]
	if b.Allowed || b.Unlocked || b.Reason == "" {
		t.Errorf("rank B summary = %+v", b)
	}
}
