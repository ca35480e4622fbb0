package config

// 修饰符键（路线与分支共用）
const (
	ModRewardMultiplier = "rewardMultiplier" // 奖励倍率，合并时相乘
	ModEntryCost        = "entryCost"        // 入场金币消耗，覆盖等级默认值
	ModKeyCost          = "keyCost"          // 入场钥匙消耗，覆盖等级默认值
)

// Modifiers 路线/分支修饰符集合
// 除奖励倍率外，合并时后者覆盖前者
type Modifiers map[string]float64

// Get 读取修饰符
//
// 返回：
//   - float64: 修饰符值
//   - bool: 未配置该修饰符时返回 false
func (m Modifiers) Get(key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m[key]
	return v, ok
}

// Clone 返回修饰符的深拷贝（nil 返回空集合）
func (m Modifiers) Clone() Modifiers {
	out := make(Modifiers, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge 将 other 合并到副本中并返回
// rewardMultiplier 按乘法叠加，其余键直接覆盖
func (m Modifiers) Merge(other Modifiers) Modifiers {
	out := m.Clone()
	for k, v := range other {
		if k == ModRewardMultiplier {
			if cur, ok := out[k]; ok {
				out[k] = cur * v
				continue
			}
		}
		out[k] = v
	}
	return out
}

// RewardMultiplier 返回有效奖励倍率，未配置时为 1
func (m Modifiers) RewardMultiplier() float64 {
	if v, ok := m.Get(ModRewardMultiplier); ok {
		return v
	}
	return 1
}
