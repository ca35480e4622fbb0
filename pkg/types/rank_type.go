// Package types 定义共享的基础类型
// 这个包不依赖任何其他业务包，用于解决循环引用问题
package types

import "strings"

// RankID 地牢等级标识
// 等级之间存在固定的全序关系：C < B < A < S < SS < SSS
type RankID string

const (
	RankC   RankID = "C"
	RankB   RankID = "B"
	RankA   RankID = "A"
	RankS   RankID = "S"
	RankSS  RankID = "SS"
	RankSSS RankID = "SSS"
)

// rankOrder 等级全序（从低到高）
var rankOrder = []RankID{RankC, RankB, RankA, RankS, RankSS, RankSSS}

// AllRanks 返回按从低到高排序的全部等级（副本，修改不影响原数据）
func AllRanks() []RankID {
	ranks := make([]RankID, len(rankOrder))
	copy(ranks, rankOrder)
	return ranks
}

// LowestRank 返回最低等级，新存档默认解锁该等级
func LowestRank() RankID {
	return rankOrder[0]
}

// ParseRank 解析等级字符串（大小写不敏感）
//
// 返回：
//   - RankID: 解析后的等级
//   - bool: 字符串不是已知等级时返回 false
func ParseRank(s string) (RankID, bool) {
	r := RankID(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", false
	}
	return r, true
}

// Ordinal 返回等级在全序中的下标，未知等级返回 -1
func (r RankID) Ordinal() int {
	for i, id := range rankOrder {
		if id == r {
			return i
		}
	}
	return -1
}

// IsValid 检查是否为已知等级
func (r RankID) IsValid() bool {
	return r.Ordinal() >= 0
}

// Next 返回下一个更高的等级
//
// 返回：
//   - RankID: 下一个等级
//   - bool: 已是最高等级或等级未知时返回 false
func (r RankID) Next() (RankID, bool) {
	i := r.Ordinal()
	if i < 0 || i+1 >= len(rankOrder) {
		return "", false
	}
	return rankOrder[i+1], true
}

// Prev 返回紧邻的更低等级（前置等级）
//
// 返回：
//   - RankID: 前置等级
//   - bool: 已是最低等级或等级未知时返回 false
func (r RankID) Prev() (RankID, bool) {
	i := r.Ordinal()
	if i <= 0 {
		return "", false
	}
	return rankOrder[i-1], true
}

// Less 按全序比较两个等级
func (r RankID) Less(other RankID) bool {
	return r.Ordinal() < other.Ordinal()
}

// String 返回等级的字符串表示
func (r RankID) String() string {
	return string(r)
}
