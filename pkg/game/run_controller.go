package game

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/decker502/dungeonrun/pkg/config"
	"github.com/decker502/dungeonrun/pkg/types"
	"github.com/google/uuid"
)

// RunPhase 挑战状态机的阶段
type RunPhase string

const (
	PhaseIdle           RunPhase = "idle"
	PhaseEntered        RunPhase = "entered"
	PhaseAwaitingBranch RunPhase = "awaiting_branch"
	PhaseFinished       RunPhase = "finished"
)

// RunControllerOptions 可选依赖
type RunControllerOptions struct {
	Notifier       Notifier         // 通知接收方，nil 时丢弃通知
	Clock          func() time.Time // 时钟，nil 时使用 time.Now
	DefaultRouteID string           // 默认路线ID，空时使用 config.DefaultRouteID
	RecentRunLimit int              // 保留的结束摘要数量
}

// RunController 地牢挑战控制器
//
// 职责：
//   - 入场检查（CanEnter）
//   - 进入地牢、逐层推进、分支选择、放弃挑战
//   - 通关层记录与等级解锁级联
//   - 为展示层提供只读查询
//
// 架构说明：
//   - 每个 ProgressionState 对应一个控制器，同一时刻最多一个进行中的挑战
//   - 单调用方、同步执行，不加锁
//   - 被拒绝的命令不会修改任何状态：所有检查都在第一次写入之前完成
type RunController struct {
	ranks    map[types.RankID]*RankDefinition
	state    *ProgressionState
	player   PlayerAccount
	resolver *FloorResolver
	timeline *TimelineRecorder
	notifier Notifier
	now      func() time.Time
}

// NewRunController 创建挑战控制器
//
// 参数：
//   - ranks: BuildRankCatalog 构建的等级定义
//   - catalog: 内容目录
//   - state: 玩家进度（由 ProgressionStore.EnsureState 获得）
//   - player: 玩家账户快照
//   - opts: 可选依赖
func NewRunController(ranks map[types.RankID]*RankDefinition, catalog config.ContentCatalog, state *ProgressionState, player PlayerAccount, opts RunControllerOptions) *RunController {
	if state == nil {
		state = NewProgressionState()
	}
	if player == nil {
		player = NewWallet(0, 0, 0)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}

	return &RunController{
		ranks:    ranks,
		state:    state,
		player:   player,
		resolver: NewFloorResolver(catalog, opts.DefaultRouteID),
		timeline: NewTimelineRecorder(state, opts.Clock, opts.RecentRunLimit),
		notifier: opts.Notifier,
		now:      opts.Clock,
	}
}

// State 返回控制器管理的进度
func (c *RunController) State() *ProgressionState {
	return c.state
}

// Rank 查询等级定义
func (c *RunController) Rank(rank types.RankID) (*RankDefinition, bool) {
	def, ok := c.ranks[rank]
	return def, ok
}

// EnterResult 进入地牢的结果
type EnterResult struct {
	RunID    string
	RouteID  string
	Sequence []string
	Room     *Room
}

// Enter 进入指定等级的地牢
//
// 入场检查失败时返回 *GateError，不修改任何状态。
// 已有进行中的挑战时视为玩家确认重新进入，旧挑战被放弃。
//
// 参数：
//   - rank: 等级ID
//
// 返回：
//   - EnterResult: 路线、层序列和第一层内容
//   - error: 入场被拒绝或扣费失败
func (c *RunController) Enter(rank types.RankID) (EnterResult, error) {
	gate := c.CanEnter(rank, c.player.Level())
	if !gate.Allowed {
		return EnterResult{}, &GateError{Rank: rank, Code: gate.Code, Reason: gate.Reason}
	}
	def := c.ranks[rank]

	if err := c.player.Spend(def.EntryCostCurrency, def.EntryCostKeys); err != nil {
		return EnterResult{}, fmt.Errorf("enter rank %s: %w", rank, err)
	}

	if c.state.ActiveRun != nil {
		log.Printf("[RunController] Re-entry confirmed, abandoning run %s", c.state.ActiveRun.ID)
		c.endRun(OutcomeAbandoned)
	}

	c.resetDailyIfDue()
	c.state.DailyEntries[rank]++
	if c.state.unlock(rank) {
		log.Printf("[RunController] Rank %s unlocked on entry", rank)
	}

	routeID, sequence, mods := c.resolver.ResolveRoute(def)
	mods[config.ModRewardMultiplier] = def.RewardMultiplier

	run := &RunState{
		ID:            uuid.NewString(),
		Rank:          rank,
		RouteID:       routeID,
		Sequence:      sequence,
		FloorIndex:    0,
		BranchChoices: make(map[int]config.BranchOption),
		Modifiers:     mods,
		StartTime:     c.now(),
		ClearedFloors: make(map[int]FloorClear),
	}
	run.CurrentRoom = c.resolver.Materialize(run, def, 0)
	c.state.ActiveRun = run

	c.timeline.Record(TimelineRunEntered, 0, map[string]string{
		"rank":  string(rank),
		"route": routeID,
	})
	c.notifier.Notify(RunEntered{
		Rank:     rank,
		RunID:    run.ID,
		RouteID:  routeID,
		Sequence: append([]string(nil), sequence...),
		Room:     *run.CurrentRoom,
	})

	log.Printf("[RunController] Entered rank %s: run=%s route=%s floors=%d cost=%d/%d",
		rank, run.ID, routeID, len(sequence), def.EntryCostCurrency, def.EntryCostKeys)

	return EnterResult{
		RunID:    run.ID,
		RouteID:  routeID,
		Sequence: append([]string(nil), sequence...),
		Room:     run.CurrentRoom,
	}, nil
}

// AdvanceOptions 推进参数
type AdvanceOptions struct {
	BranchID  string        // 选择的分支ID（当前层有分支时必填）
	ClearTime time.Duration // 本层用时（可选）
}

// AdvanceStatus 推进结果类型
type AdvanceStatus string

const (
	AdvanceBranchRequired AdvanceStatus = "branch_required"
	AdvanceNextRoom       AdvanceStatus = "next_room"
	AdvanceFinished       AdvanceStatus = "finished"
)

// AdvanceResult 推进结果
type AdvanceResult struct {
	Status     AdvanceStatus
	FloorIndex int                   // 推进后的层下标（完成时为最后一层）
	Room       *Room                 // 下一层内容（需要分支时为当前层）
	Branches   []config.BranchOption // 需要选择的分支
	Summary    *RunSummary           // 完成时的摘要
}

// Advance 通关当前层并推进到下一层
//
// 当前层有分支且尚未选择时返回 AdvanceBranchRequired，不修改状态，
// 调用方需带上 BranchID 再次调用。
//
// 返回：
//   - AdvanceResult: 下一层、需要分支或已完成
//   - error: ErrNoActiveRun、ErrNoCurrentRoom、*BranchError 或 ErrBranchAlreadyChosen
func (c *RunController) Advance(opts AdvanceOptions) (AdvanceResult, error) {
	run := c.state.ActiveRun
	if run == nil {
		return AdvanceResult{}, ErrNoActiveRun
	}
	room := run.CurrentRoom
	if room == nil {
		return AdvanceResult{}, ErrNoCurrentRoom
	}
	def := c.ranks[run.Rank]
	floorNumber := run.FloorNumber()

	chosen, hasChoice := run.BranchChoices[floorNumber]
	var branch *config.BranchOption
	if opts.BranchID != "" {
		b, ok := room.Branch(opts.BranchID)
		if !ok {
			return AdvanceResult{}, &BranchError{FloorNumber: floorNumber, BranchID: opts.BranchID, Valid: room.BranchIDs()}
		}
		if hasChoice && chosen.ID != b.ID {
			return AdvanceResult{}, fmt.Errorf("floor %d: %w (%s)", floorNumber, ErrBranchAlreadyChosen, chosen.ID)
		}
		if !hasChoice {
			branch = &b
		}
	} else if len(room.Branches) > 0 && !hasChoice {
		return AdvanceResult{
			Status:     AdvanceBranchRequired,
			FloorIndex: run.FloorIndex,
			Room:       room,
			Branches:   append([]config.BranchOption(nil), room.Branches...),
		}, nil
	}

	if branch != nil {
		run.Modifiers = run.Modifiers.Merge(branch.Modifiers)
		run.BranchChoices[floorNumber] = *branch
		c.timeline.Record(TimelineBranchChosen, run.FloorIndex, map[string]string{
			"floor":  floorLabel(floorNumber),
			"branch": branch.ID,
		})
		log.Printf("[RunController] Floor %d: branch %s chosen (reward x%.2f)", floorNumber, branch.ID, run.Modifiers.RewardMultiplier())
	}

	fc := FloorClear{Cleared: true, ClearedAt: c.now(), Time: opts.ClearTime}
	if _, done := run.ClearedFloors[floorNumber]; !done {
		run.ClearedFloors[floorNumber] = fc
	}
	c.clearFloor(def, floorNumber, fc)
	c.timeline.Record(TimelineFloorCleared, run.FloorIndex, map[string]string{
		"floor":  floorLabel(floorNumber),
		"timeMs": strconv.FormatInt(opts.ClearTime.Milliseconds(), 10),
	})

	if run.FloorIndex >= len(run.Sequence)-1 {
		run.Finished = true
		run.CurrentRoom = nil
		index := run.FloorIndex
		summary := c.endRun(OutcomeFinished)
		return AdvanceResult{Status: AdvanceFinished, FloorIndex: index, Summary: &summary}, nil
	}

	run.FloorIndex++
	run.CurrentRoom = c.resolver.Materialize(run, def, run.FloorIndex)
	c.timeline.Record(TimelineRoomReady, run.FloorIndex, map[string]string{
		"floor":    floorLabel(run.FloorNumber()),
		"template": run.CurrentRoom.TemplateID,
	})
	c.notifier.Notify(NextRoomReady{
		Rank:       run.Rank,
		RunID:      run.ID,
		FloorIndex: run.FloorIndex,
		Room:       *run.CurrentRoom,
	})

	return AdvanceResult{Status: AdvanceNextRoom, FloorIndex: run.FloorIndex, Room: run.CurrentRoom}, nil
}

// Abandon 放弃当前挑战，不再记录任何通关
func (c *RunController) Abandon() (RunSummary, error) {
	if c.state.ActiveRun == nil {
		return RunSummary{}, ErrNoActiveRun
	}
	return c.endRun(OutcomeAbandoned), nil
}

// endRun 结束当前挑战：写入时间线、更新最佳用时、归档摘要并丢弃挑战
func (c *RunController) endRun(outcome RunOutcome) RunSummary {
	run := c.state.ActiveRun
	now := c.now()

	var floorTotal time.Duration
	for _, fc := range run.ClearedFloors {
		floorTotal += fc.Time
	}
	summary := RunSummary{
		RunID:         run.ID,
		Rank:          run.Rank,
		RouteID:       run.RouteID,
		Outcome:       outcome,
		FloorsCleared: len(run.ClearedFloors),
		TotalFloors:   len(run.Sequence),
		StartedAt:     run.StartTime,
		EndedAt:       now,
		Elapsed:       now.Sub(run.StartTime),
	}

	if outcome == OutcomeFinished {
		runTime := floorTotal
		if runTime <= 0 {
			runTime = summary.Elapsed
		}
		if best, ok := c.state.BestTimes[run.Rank]; runTime > 0 && (!ok || runTime < best) {
			c.state.BestTimes[run.Rank] = runTime
			log.Printf("[RunController] New best time for rank %s: %v", run.Rank, runTime)
		}
		c.timeline.Record(TimelineRunFinished, run.FloorIndex, map[string]string{"elapsed": summary.Elapsed.String()})
	} else {
		c.timeline.Record(TimelineRunAbandoned, run.FloorIndex, map[string]string{"floorsCleared": strconv.Itoa(summary.FloorsCleared)})
	}

	c.timeline.Archive(summary)
	c.state.ActiveRun = nil

	if outcome == OutcomeFinished {
		c.notifier.Notify(RunFinished{Rank: run.Rank, Summary: summary})
	} else {
		c.notifier.Notify(RunAbandoned{Rank: run.Rank, Summary: summary})
	}
	log.Printf("[RunController] Run %s %s: rank=%s floors=%d/%d", run.ID, outcome, run.Rank, summary.FloorsCleared, summary.TotalFloors)
	return summary
}

// ClearFloor 记录等级某层通关，并在等级首次全部通关时级联解锁下一等级
//
// 重复通关同一层只会刷新通关时间，不会重复触发 RankCleared。
//
// 参数：
//   - rank: 等级ID
//   - floorNumber: 层号（1..rank.Floors）
//   - clearTime: 本层用时，0 表示未记录
func (c *RunController) ClearFloor(rank types.RankID, floorNumber int, clearTime time.Duration) error {
	def, ok := c.ranks[rank]
	if !ok {
		return fmt.Errorf("clear floor: %w %q", ErrUnknownRank, rank)
	}
	if floorNumber < 1 || floorNumber > def.Floors {
		return fmt.Errorf("clear floor %d of rank %s: %w", floorNumber, rank, ErrInvalidFloor)
	}
	c.clearFloor(def, floorNumber, FloorClear{Cleared: true, ClearedAt: c.now(), Time: clearTime})
	return nil
}

func (c *RunController) clearFloor(def *RankDefinition, floorNumber int, fc FloorClear) {
	wasCleared := c.state.isRankCleared(def.ID, def.Floors)

	floors := c.state.ClearedFloors[def.ID]
	if floors == nil {
		floors = make(map[int]FloorClear)
		c.state.ClearedFloors[def.ID] = floors
	}
	floors[floorNumber] = fc

	if wasCleared || !c.state.isRankCleared(def.ID, def.Floors) {
		return
	}

	log.Printf("[RunController] Rank %s fully cleared", def.ID)
	c.notifier.Notify(RankCleared{Rank: def.ID})

	if next, ok := def.ID.Next(); ok && c.state.unlock(next) {
		log.Printf("[RunController] Unlocked rank %s (cleared %s)", next, def.ID)
		c.notifier.Notify(RankUnlocked{Rank: next})
	}
}

// IsRankCleared 等级的全部层都已通关时返回 true
func (c *RunController) IsRankCleared(rank types.RankID) bool {
	def, ok := c.ranks[rank]
	if !ok {
		return false
	}
	return c.state.isRankCleared(rank, def.Floors)
}

// Phase 返回状态机当前阶段
func (c *RunController) Phase() RunPhase {
	run := c.state.ActiveRun
	switch {
	case run == nil:
		return PhaseIdle
	case run.Finished || run.CurrentRoom == nil:
		return PhaseFinished
	case len(run.CurrentRoom.Branches) > 0:
		if _, ok := run.BranchChoices[run.FloorNumber()]; !ok {
			return PhaseAwaitingBranch
		}
	}
	return PhaseEntered
}

// GetActiveRun 返回当前挑战，没有时返回 nil
func (c *RunController) GetActiveRun() *RunState {
	return c.state.ActiveRun
}
