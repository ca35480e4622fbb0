package game

import "time"

// TimelineKind 时间线条目类型
type TimelineKind string

const (
	TimelineRunEntered   TimelineKind = "run_entered"
	TimelineBranchChosen TimelineKind = "branch_chosen"
	TimelineFloorCleared TimelineKind = "floor_cleared"
	TimelineRoomReady    TimelineKind = "room_ready"
	TimelineRunFinished  TimelineKind = "run_finished"
	TimelineRunAbandoned TimelineKind = "run_abandoned"
)

// TimelineEntry 时间线条目，Data 对记录器是不透明的
type TimelineEntry struct {
	Kind       TimelineKind
	At         time.Time
	FloorIndex int
	Data       map[string]string
}

// TimelineRecorder 当前挑战的只追加日志
type TimelineRecorder struct {
	state *ProgressionState
	now   func() time.Time
	limit int // RecentRuns 保留数量
}

// NewTimelineRecorder 创建时间线记录器
func NewTimelineRecorder(state *ProgressionState, now func() time.Time, limit int) *TimelineRecorder {
	if now == nil {
		now = time.Now
	}
	if limit <= 0 {
		limit = 10
	}
	return &TimelineRecorder{state: state, now: now, limit: limit}
}

// Record 向当前挑战追加一条记录
//
// 没有进行中的挑战时不做任何事
//
// 返回：
//   - bool: 是否写入
func (t *TimelineRecorder) Record(kind TimelineKind, floorIndex int, data map[string]string) bool {
	run := t.state.ActiveRun
	if run == nil {
		return false
	}
	run.Timeline = append(run.Timeline, TimelineEntry{
		Kind:       kind,
		At:         t.now(),
		FloorIndex: floorIndex,
		Data:       data,
	})
	return true
}

// Archive 保存挑战结束摘要，超出上限时丢弃最旧的
func (t *TimelineRecorder) Archive(summary RunSummary) {
	t.state.RecentRuns = append(t.state.RecentRuns, summary)
	if over := len(t.state.RecentRuns) - t.limit; over > 0 {
		t.state.RecentRuns = append([]RunSummary(nil), t.state.RecentRuns[over:]...)
	}
}
