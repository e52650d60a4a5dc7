package clipboard

import (
	"math"

	"clipwatch/config"
	"clipwatch/model"
)

// noCounter 初始计数，任何 Provider 都不会返回这个值
const noCounter = math.MinInt64

// Tracker 决定一次剪贴板变化是否产生新的历史项
// 只保存状态，不做任何读写
type Tracker struct {
	policy      config.DedupPolicy
	lastCounter int64
	last        model.Content
}

// NewTracker 创建去重状态，未知策略按内容去重
func NewTracker(policy config.DedupPolicy) *Tracker {
	if policy != config.DedupCounter {
		policy = config.DedupContent
	}
	return &Tracker{policy: policy, lastCounter: noCounter}
}

// Changed 记录本次计数，返回是否与上次不同
func (t *Tracker) Changed(counter int64) bool {
	if counter == t.lastCounter {
		return false
	}
	t.lastCounter = counter
	return true
}

// IsNew 候选内容是否需要记录
func (t *Tracker) IsNew(c model.Content) bool {
	if t.policy == config.DedupCounter {
		return true
	}
	return t.last == nil || !t.last.Equal(c)
}

// Captured 候选内容已写入存储
func (t *Tracker) Captured(c model.Content) {
	t.last = c
}

// Last 最近一次写入的内容
func (t *Tracker) Last() model.Content {
	return t.last
}

// Policy 当前去重策略
func (t *Tracker) Policy() config.DedupPolicy {
	return t.policy
}
