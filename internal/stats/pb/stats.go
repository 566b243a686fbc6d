// Package pb 定义统计记录的紧凑线路格式（protobuf 编码）。
// 编码结果对相同输入完全确定：字段按编号升序，序列保持来源顺序。
package pb

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// 字段编号（与采集服务端协议一致，不可变更）
const (
	fieldName              = 1
	fieldTimestamp         = 2
	fieldTagNames          = 3
	fieldTagValues         = 4
	fieldMetricsFloatNames = 5
	fieldMetricsFloatVals  = 6
	fieldOrgID             = 7
	fieldTeamID            = 8
)

// Stats 一条统计记录：一个来源在一个采样时刻的全部计数
type Stats struct {
	Name               string
	Timestamp          uint64
	TagNames           []string
	TagValues          []string
	MetricsFloatNames  []string
	MetricsFloatValues []float64
	OrgID              uint32
	TeamID             uint32
}

// Marshal 追加编码到 buf，返回扩展后的切片
func (s *Stats) Marshal(buf []byte) []byte {
	if s.Name != "" {
		buf = protowire.AppendTag(buf, fieldName, protowire.BytesType)
		buf = protowire.AppendString(buf, s.Name)
	}
	if s.Timestamp != 0 {
		buf = protowire.AppendTag(buf, fieldTimestamp, protowire.VarintType)
		buf = protowire.AppendVarint(buf, s.Timestamp)
	}
	for _, v := range s.TagNames {
		buf = protowire.AppendTag(buf, fieldTagNames, protowire.BytesType)
		buf = protowire.AppendString(buf, v)
	}
	for _, v := range s.TagValues {
		buf = protowire.AppendTag(buf, fieldTagValues, protowire.BytesType)
		buf = protowire.AppendString(buf, v)
	}
	for _, v := range s.MetricsFloatNames {
		buf = protowire.AppendTag(buf, fieldMetricsFloatNames, protowire.BytesType)
		buf = protowire.AppendString(buf, v)
	}
	if len(s.MetricsFloatValues) > 0 {
		// packed repeated double
		buf = protowire.AppendTag(buf, fieldMetricsFloatVals, protowire.BytesType)
		buf = protowire.AppendVarint(buf, uint64(8*len(s.MetricsFloatValues)))
		for _, v := range s.MetricsFloatValues {
			buf = protowire.AppendFixed64(buf, math.Float64bits(v))
		}
	}
	if s.OrgID != 0 {
		buf = protowire.AppendTag(buf, fieldOrgID, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(s.OrgID))
	}
	if s.TeamID != 0 {
		buf = protowire.AppendTag(buf, fieldTeamID, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(s.TeamID))
	}
	return buf
}

// Size 编码后的字节数
func (s *Stats) Size() int {
	return len(s.Marshal(nil))
}

// Unmarshal 从 data 解码（主要用于回环测试与调试）
func (s *Stats) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("consume tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch {
		case typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("consume bytes for field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
			switch num {
			case fieldName:
				s.Name = string(b)
			case fieldTagNames:
				s.TagNames = append(s.TagNames, string(b))
			case fieldTagValues:
				s.TagValues = append(s.TagValues, string(b))
			case fieldMetricsFloatNames:
				s.MetricsFloatNames = append(s.MetricsFloatNames, string(b))
			case fieldMetricsFloatVals:
				if len(b)%8 != 0 {
					return fmt.Errorf("packed double field %d has %d bytes", num, len(b))
				}
				for len(b) > 0 {
					v, n := protowire.ConsumeFixed64(b)
					if n < 0 {
						return fmt.Errorf("consume fixed64: %w", protowire.ParseError(n))
					}
					s.MetricsFloatValues = append(s.MetricsFloatValues, math.Float64frombits(v))
					b = b[n:]
				}
			}
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("consume varint for field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
			switch num {
			case fieldTimestamp:
				s.Timestamp = v
			case fieldOrgID:
				s.OrgID = uint32(v)
			case fieldTeamID:
				s.TeamID = uint32(v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("skip field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return nil
}
