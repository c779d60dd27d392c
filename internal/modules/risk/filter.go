package risk

import "strings"

// DefaultLowMarkers 默认低危标记
var DefaultLowMarkers = []string{"[低]", "低"}

// Severity 风险等级分类，仅用于统计
type Severity string

const (
	SeverityHigh    Severity = "高"
	SeverityMedium  Severity = "中"
	SeverityLow     Severity = "低"
	SeverityUnknown Severity = "未知"
)

// Filter 风险等级过滤器
type Filter struct {
	markers []string
}

// NewFilter 创建过滤器，未指定标记时使用默认低危标记
func NewFilter(markers []string) *Filter {
	if len(markers) == 0 {
		markers = DefaultLowMarkers
	}
	return &Filter{markers: markers}
}

// IsLow 风险等级文本包含任一低危标记即视为低危
// level 应为未去括号的原始文本，标记 "[低]" 才能命中
// 按子串判断，默认标记下 "中低" 同样视为低危；空值视为非低危
func (f *Filter) IsLow(level string) bool {
	if level == "" {
		return false
	}
	for _, marker := range f.markers {
		if marker != "" && strings.Contains(level, marker) {
			return true
		}
	}
	return false
}

// Keep 是否保留该行
func (f *Filter) Keep(level string) bool {
	return !f.IsLow(level)
}

// Classify 取文本中第一个出现的等级字
func Classify(level string) Severity {
	for _, r := range level {
		switch s := Severity(string(r)); s {
		case SeverityHigh, SeverityMedium, SeverityLow:
			return s
		}
	}
	return SeverityUnknown
}
