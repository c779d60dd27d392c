package extractor

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// DefaultHighRiskPorts 默认高危端口
var DefaultHighRiskPorts = []int{135, 136, 137, 139, 445}

// digitRun 匹配最长的连续十进制数字（含全角等非ASCII数字），"14455" 作为整体，不会拆出 445
var digitRun = regexp.MustCompile(`\p{Nd}+`)

const maxPort = 65535

// PortSet 端口集合
type PortSet map[int]struct{}

// NewPortSet 由端口列表创建集合
func NewPortSet(ports ...int) PortSet {
	set := make(PortSet, len(ports))
	for _, p := range ports {
		set[p] = struct{}{}
	}
	return set
}

// Contains 是否包含端口
func (s PortSet) Contains(port int) bool {
	_, ok := s[port]
	return ok
}

// Sorted 升序返回端口列表
func (s PortSet) Sorted() []int {
	ports := make([]int, 0, len(s))
	for p := range s {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}

// String 升序、以 ", " 连接；空集合返回空字符串
func (s PortSet) String() string {
	if len(s) == 0 {
		return ""
	}
	sorted := s.Sorted()
	parts := make([]string, len(sorted))
	for i, p := range sorted {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}

// PortExtractor 从其它信息中识别高危端口
type PortExtractor struct {
	highRisk PortSet
}

// NewPortExtractor 创建端口提取器，未指定端口时使用默认高危端口
func NewPortExtractor(highRisk []int) *PortExtractor {
	if len(highRisk) == 0 {
		highRisk = DefaultHighRiskPorts
	}
	return &PortExtractor{highRisk: NewPortSet(highRisk...)}
}

// Extract 扫描文本中的数字串，返回命中高危端口的集合
// 空白文本直接跳过，无法解析的数字串不计入结果
func (e *PortExtractor) Extract(texts []string) PortSet {
	found := make(PortSet)
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, token := range digitRun.FindAllString(text, -1) {
			port, ok := parsePort(token)
			if !ok {
				continue
			}
			if e.highRisk.Contains(port) {
				found[port] = struct{}{}
			}
		}
	}
	return found
}

// parsePort 将数字串转换为端口号，超出端口范围返回 false
func parsePort(token string) (int, bool) {
	n := 0
	for _, r := range token {
		n = n*10 + digitValue(r)
		if n > maxPort {
			return 0, false
		}
	}
	return n, token != ""
}

// digitValue Unicode 十进制数字以 0-9 连续排列，按所在连续段的偏移取值
func digitValue(r rune) int {
	if r >= '0' && r <= '9' {
		return int(r - '0')
	}
	start := r
	for unicode.IsDigit(start - 1) {
		start--
	}
	return int(r-start) % 10
}
