package game

import (
	"fmt"

	"github.com/decker502/dungeonrun/pkg/types"
)

// GateCode 入场检查结果代码
type GateCode string

const (
	GateOK                   GateCode = ""
	GateUnknownRank          GateCode = "unknown_rank"
	GateLevelTooLow          GateCode = "level_too_low"
	GateLocked               GateCode = "locked"
	GateDailyLimit           GateCode = "daily_limit"
	GateInsufficientCurrency GateCode = "insufficient_currency"
	GateInsufficientKeys     GateCode = "insufficient_keys"
)

// GateResult 入场检查结果
type GateResult struct {
	Allowed bool
	Code    GateCode
	Reason  string // 面向玩家的原因说明，Allowed 为 true 时为空
}

func deny(code GateCode, format string, args ...any) GateResult {
	return GateResult{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// CanEnter 检查玩家当前能否进入指定等级
//
// 按顺序检查，遇到第一个失败立即返回：
//  1. 等级定义存在
//  2. 玩家等级达到解锁等级
//  3. 未解锁时，前一等级必须已全部通关
//  4. 每日次数未用完（上限为 0 时跳过）
//  5. 金币足够
//  6. 钥匙足够
//
// 只读取进度和玩家快照，不做任何修改。
//
// 参数：
//   - rank: 等级ID
//   - playerLevel: 玩家等级
//
// 返回：
//   - GateResult: 检查结果
func (c *RunController) CanEnter(rank types.RankID, playerLevel int) GateResult {
	def, ok := c.ranks[rank]
	if !ok {
		return deny(GateUnknownRank, "未知的地牢等级 %q", rank)
	}

	if playerLevel < def.UnlockLevel {
		return deny(GateLevelTooLow, "需要玩家等级 %d（当前 %d）", def.UnlockLevel, playerLevel)
	}

	if !c.state.IsUnlocked(rank) {
		if prev, ok := rank.Prev(); ok && !c.IsRankCleared(prev) {
			return deny(GateLocked, "需要先通关 %s 级地牢", prev)
		}
	}

	if def.DailyEntries > 0 && c.dailyEntriesUsed(rank) >= def.DailyEntries {
		return deny(GateDailyLimit, "今日挑战次数已用完（%d/%d）", def.DailyEntries, def.DailyEntries)
	}

	if have := c.player.Currency(); have < def.EntryCostCurrency {
		return deny(GateInsufficientCurrency, "金币不足：需要 %d，当前 %d", def.EntryCostCurrency, have)
	}

	if have := c.player.Keys(); have < def.EntryCostKeys {
		return deny(GateInsufficientKeys, "钥匙不足：需要 %d，当前 %d", def.EntryCostKeys, have)
	}

	return GateResult{Allowed: true}
}

// dailyEntriesUsed 返回今日已用次数
// 跨日后首次访问前按 0 计算；挑战进行中不跨日重置
func (c *RunController) dailyEntriesUsed(rank types.RankID) int {
	if c.dailyResetDue() {
		return 0
	}
	return c.state.DailyEntries[rank]
}

// dailyResetDue 日期已变化且没有进行中的挑战时为 true
func (c *RunController) dailyResetDue() bool {
	return c.state.ActiveRun == nil && c.state.LastResetDate != c.today()
}

// resetDailyIfDue 跨日后重置每日次数
func (c *RunController) resetDailyIfDue() {
	if !c.dailyResetDue() {
		return
	}
	c.state.DailyEntries = make(map[types.RankID]int)
	c.state.LastResetDate = c.today()
}

func (c *RunController) today() string {
	return c.now().Format(dateLayout)
}
