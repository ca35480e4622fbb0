package game

import (
	"time"

	"github.com/decker502/dungeonrun/pkg/config"
	"github.com/decker502/dungeonrun/pkg/types"
)

// dateLayout 每日次数重置使用的日历日期格式
const dateLayout = "2006-01-02"

// FloorClear 单层通关记录
type FloorClear struct {
	Cleared   bool          `yaml:"cleared"`
	ClearedAt time.Time     `yaml:"clearedAt"`
	Time      time.Duration `yaml:"time,omitempty"` // 通关用时，0 表示未记录
}

// ProgressionState 玩家的地牢进度
//
// 每个玩家一份，生命周期与存档相同。
// 只有 RunController 会修改 ActiveRun、ClearedFloors 和 DailyEntries。
type ProgressionState struct {
	UnlockedRanks []types.RankID                      `yaml:"unlockedRanks"` // 已解锁等级（只增不减，按解锁顺序）
	ClearedFloors map[types.RankID]map[int]FloorClear `yaml:"clearedFloors"` // 等级 -> 层号(从1开始) -> 通关记录
	DailyEntries  map[types.RankID]int                `yaml:"dailyEntries"`  // 今日已用入场次数
	LastResetDate string                              `yaml:"lastResetDate"` // 上次重置每日次数的日期，如 "2026-10-19"
	BestTimes     map[types.RankID]time.Duration      `yaml:"bestTimes"`     // 最佳通关用时
	RecentRuns    []RunSummary                        `yaml:"recentRuns"`    // 最近结束的挑战（新的在后）
	ActiveRun     *RunState                           `yaml:"-"`             // 当前挑战，单独以二进制快照保存
}

// NewProgressionState 创建新的进度（默认解锁最低等级）
func NewProgressionState() *ProgressionState {
	s := &ProgressionState{}
	s.normalize()
	return s
}

// normalize 补齐空映射并保证最低等级已解锁（用于新建和从存档加载）
func (s *ProgressionState) normalize() {
	if s.ClearedFloors == nil {
		s.ClearedFloors = make(map[types.RankID]map[int]FloorClear)
	}
	if s.DailyEntries == nil {
		s.DailyEntries = make(map[types.RankID]int)
	}
	if s.BestTimes == nil {
		s.BestTimes = make(map[types.RankID]time.Duration)
	}
	if s.UnlockedRanks == nil {
		s.UnlockedRanks = []types.RankID{}
	}
	s.unlock(types.LowestRank())
}

// IsUnlocked 检查等级是否已解锁
func (s *ProgressionState) IsUnlocked(rank types.RankID) bool {
	for _, r := range s.UnlockedRanks {
		if r == rank {
			return true
		}
	}
	return false
}

// unlock 解锁等级
//
// 返回：
//   - bool: 本次调用新解锁时返回 true，已解锁时返回 false
func (s *ProgressionState) unlock(rank types.RankID) bool {
	if s.IsUnlocked(rank) {
		return false
	}
	s.UnlockedRanks = append(s.UnlockedRanks, rank)
	return true
}

// countCleared 统计等级 1..floors 中已通关的层数
func (s *ProgressionState) countCleared(rank types.RankID, floors int) int {
	n := 0
	for floor := 1; floor <= floors; floor++ {
		if s.ClearedFloors[rank][floor].Cleared {
			n++
		}
	}
	return n
}

// isRankCleared 等级的 1..floors 层全部通关时为 true
func (s *ProgressionState) isRankCleared(rank types.RankID, floors int) bool {
	return floors > 0 && s.countCleared(rank, floors) == floors
}

// RunState 一次地牢挑战的状态
type RunState struct {
	ID            string
	Rank          types.RankID
	RouteID       string
	Sequence      []string                    // 层模板ID序列
	FloorIndex    int                         // 当前层下标（从0开始）
	BranchChoices map[int]config.BranchOption // 层号 -> 已选择分支
	Modifiers     config.Modifiers            // 路线与分支合并后的修饰符（含有效奖励倍率）
	StartTime     time.Time
	ClearedFloors map[int]FloorClear // 本次挑战中通关的层（层号从1开始）
	CurrentRoom   *Room              // 当前层的具体内容，结束后为 nil
	Finished      bool
	Timeline      []TimelineEntry
}

// FloorNumber 当前层号（从1开始）
func (r *RunState) FloorNumber() int {
	return r.FloorIndex + 1
}

// Room 具体化后的层内容
type Room struct {
	FloorIndex       int
	FloorNumber      int
	TemplateID       string
	Type             string
	Description      string
	Icon             string
	Rooms            int // 本层房间数
	Branches         []config.BranchOption
	Spawns           []config.SpawnEntry
	Rewards          []config.RewardEntry // 已乘以奖励倍率
	RewardMultiplier float64
	Placeholder      bool // 目录中找不到层模板时为 true
}

// Branch 按ID查找本层分支
func (r *Room) Branch(id string) (config.BranchOption, bool) {
	for _, b := range r.Branches {
		if b.ID == id {
			return b, true
		}
	}
	return config.BranchOption{}, false
}

// BranchIDs 返回本层全部分支ID
func (r *Room) BranchIDs() []string {
	ids := make([]string, 0, len(r.Branches))
	for _, b := range r.Branches {
		ids = append(ids, b.ID)
	}
	return ids
}

// RunOutcome 挑战结束方式
type RunOutcome string

const (
	OutcomeFinished  RunOutcome = "finished"
	OutcomeAbandoned RunOutcome = "abandoned"
)

// RunSummary 挑战结束时交给时间线记录器的摘要
type RunSummary struct {
	RunID         string        `yaml:"runId"`
	Rank          types.RankID  `yaml:"rank"`
	RouteID       string        `yaml:"routeId"`
	Outcome       RunOutcome    `yaml:"outcome"`
	FloorsCleared int           `yaml:"floorsCleared"`
	TotalFloors   int           `yaml:"totalFloors"`
	StartedAt     time.Time     `yaml:"startedAt"`
	EndedAt       time.Time     `yaml:"endedAt"`
	Elapsed       time.Duration `yaml:"elapsed"`
}
