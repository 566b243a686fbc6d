package stats

import (
	"strings"

	"github.com/stats-agent/internal/stats/pb"
	"github.com/stats-agent/pkg/counter"
)

// StatsPrefix 线路指标名前缀
const StatsPrefix = "stats_agent"

// SendMessageType 外发消息类型标记，供下游发送方识别载荷
type SendMessageType uint8

const (
	// SendMessageTypeStats 统计记录载荷
	SendMessageTypeStats SendMessageType = iota
)

// Sendable 可编码外发的载荷能力
type Sendable interface {
	Encode(buf []byte) ([]byte, error)
	MessageType() SendMessageType
}

// Batch 一个来源在一个采样时刻的不可变计数快照。
// 构造后只读，调度线程与发送方共享同一实例，编码可被多次执行。
type Batch struct {
	module    string
	hostname  string
	tags      []Tag
	points    []counter.CounterPoint
	timestamp uint32
}

// Module 来源模块名
func (b *Batch) Module() string { return b.module }

// Timestamp 采样时刻（秒）
func (b *Batch) Timestamp() uint32 { return b.timestamp }

// Points 计数序列（调用方不得修改）
func (b *Batch) Points() []counter.CounterPoint { return b.points }

// ToStats 转换为线路统计记录：
//   - 指标名 = 前缀_模块名，模块名中的连字符替换为下划线
//   - 标签展开为两条平行序列并保持来源顺序，缺失host标签时追加一条
//   - 计数值统一转为64位浮点
func (b *Batch) ToStats() *pb.Stats {
	tagNames := make([]string, 0, len(b.tags)+1)
	tagValues := make([]string, 0, len(b.tags)+1)

	hasHost := false
	for _, t := range b.tags {
		if t.Key == "host" {
			hasHost = true
		}
		tagNames = append(tagNames, t.Key)
		tagValues = append(tagValues, t.Value)
	}
	if !hasHost {
		tagNames = append(tagNames, "host")
		tagValues = append(tagValues, b.hostname)
	}

	metricNames := make([]string, 0, len(b.points))
	metricValues := make([]float64, 0, len(b.points))
	for _, p := range b.points {
		metricNames = append(metricNames, p.Name)
		metricValues = append(metricValues, p.Value.Float64())
	}

	return &pb.Stats{
		Name:               strings.ReplaceAll(StatsPrefix+"_"+b.module, "-", "_"),
		Timestamp:          uint64(b.timestamp),
		TagNames:           tagNames,
		TagValues:          tagValues,
		MetricsFloatNames:  metricNames,
		MetricsFloatValues: metricValues,
		OrgID:              0,
		TeamID:             0,
	}
}

// Encode 实现 Sendable
func (b *Batch) Encode(buf []byte) ([]byte, error) {
	return b.ToStats().Marshal(buf), nil
}

// MessageType 实现 Sendable
func (b *Batch) MessageType() SendMessageType {
	return SendMessageTypeStats
}
