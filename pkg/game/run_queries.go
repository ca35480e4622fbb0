package game

import "github.com/decker502/dungeonrun/pkg/types"

// RankSummary 等级列表中的单项
type RankSummary struct {
	Rank             types.RankID
	DisplayName      string
	Icon             string
	UnlockLevel      int
	Unlocked         bool
	Cleared          bool
	EntriesUsed      int
	EntriesRemaining int // -1 表示不限次数
	Allowed          bool
	Reason           string
	BestTime         string
}

// GetAvailableRanks 返回全部等级的概览（按全序）
func (c *RunController) GetAvailableRanks(playerLevel int) []RankSummary {
	out := make([]RankSummary, 0, len(c.ranks))
	for _, id := range types.AllRanks() {
		def, ok := c.ranks[id]
		if !ok {
			continue
		}
		used := c.dailyEntriesUsed(id)
		remaining := -1
		if def.DailyEntries > 0 {
			remaining = max(def.DailyEntries-used, 0)
		}
		gate := c.CanEnter(id, playerLevel)

		s := RankSummary{
			Rank:             id,
			DisplayName:      def.DisplayName,
			Icon:             def.Icon,
			UnlockLevel:      def.UnlockLevel,
			Unlocked:         c.state.IsUnlocked(id),
			Cleared:          c.IsRankCleared(id),
			EntriesUsed:      used,
			EntriesRemaining: remaining,
			Allowed:          gate.Allowed,
			Reason:           gate.Reason,
		}
		if best, ok := c.state.BestTimes[id]; ok {
			s.BestTime = best.String()
		}
		out = append(out, s)
	}
	return out
}

// RankProgress 等级通关进度
type RankProgress struct {
	Rank    types.RankID
	Cleared int
	Total   int
	Percent float64 // 0 ~ 100
}

// GetRankProgress 返回等级通关进度，未知等级返回空进度
func (c *RunController) GetRankProgress(rank types.RankID) RankProgress {
	def, ok := c.ranks[rank]
	if !ok {
		return RankProgress{Rank: rank}
	}
	cleared := c.state.countCleared(rank, def.Floors)
	return RankProgress{
		Rank:    rank,
		Cleared: cleared,
		Total:   def.Floors,
		Percent: float64(cleared) * 100 / float64(def.Floors),
	}
}

// FloorState 层在当前挑战中的状态
type FloorState string

const (
	FloorCleared  FloorState = "cleared"
	FloorCurrent  FloorState = "current"
	FloorUpcoming FloorState = "upcoming"
)

// FloorStatus 层时间线中的单项
type FloorStatus struct {
	FloorIndex  int
	FloorNumber int
	TemplateID  string
	State       FloorState
	Branch      string // 已选择的分支ID
}

// GetFloorTimeline 合并当前挑战的层序列与每层状态，供界面显示
// 没有进行中的挑战时返回 nil
func (c *RunController) GetFloorTimeline() []FloorStatus {
	run := c.state.ActiveRun
	if run == nil {
		return nil
	}

	out := make([]FloorStatus, len(run.Sequence))
	for i, id := range run.Sequence {
		n := i + 1
		st := FloorUpcoming
		switch {
		case run.ClearedFloors[n].Cleared:
			st = FloorCleared
		case i == run.FloorIndex:
			st = FloorCurrent
		}
		out[i] = FloorStatus{
			FloorIndex:  i,
			FloorNumber: n,
			TemplateID:  id,
			State:       st,
			Branch:      run.BranchChoices[n].ID,
		}
	}
	return out
}
