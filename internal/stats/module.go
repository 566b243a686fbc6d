package stats

import (
	"strconv"
	"time"
)

// Tag 来源标签声明（key在同一来源内唯一，重复声明会被忽略并告警）
type Tag struct {
	Key   string
	Value string
}

// Option 采样间隔覆盖声明。低于进程最小间隔的声明会被忽略并告警，
// 否则向下取整到tick周期的整数倍。
type Option struct {
	Interval time.Duration
}

// Module 统计来源身份契约：稳定名称 + 标签集 + 可选间隔覆盖。
// 同一次注册生命周期内 Tags() 的返回必须保持一致。
type Module interface {
	Name() string
	Tags() []Tag
	Options() []Option
}

// NoTagModule 无标签来源身份
type NoTagModule string

func (m NoTagModule) Name() string      { return string(m) }
func (m NoTagModule) Tags() []Tag       { return nil }
func (m NoTagModule) Options() []Option { return nil }

// SingleTagModule 单标签来源身份
type SingleTagModule struct {
	Module   string
	TagKey   string
	TagValue string
}

func (m SingleTagModule) Name() string { return m.Module }
func (m SingleTagModule) Tags() []Tag {
	return []Tag{{Key: m.TagKey, Value: m.TagValue}}
}
func (m SingleTagModule) Options() []Option { return nil }

// QueueStats 队列深度观测来源的保留身份（module=queue, index+module标签）
type QueueStats struct {
	ID     int
	Module string
}

func (m QueueStats) Name() string { return "queue" }
func (m QueueStats) Tags() []Tag {
	return []Tag{
		{Key: "index", Value: strconv.Itoa(m.ID)},
		{Key: "module", Value: m.Module},
	}
}
func (m QueueStats) Options() []Option { return nil }
