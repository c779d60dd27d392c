package builder

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"vulnmerge/internal/core/types"
	"vulnmerge/internal/modules/risk"
)

var (
	// ErrInsufficientColumns 源工作表列数不足
	ErrInsufficientColumns = errors.New("列数不足")
	// ErrEmptyResult 过滤后没有可写入的数据
	ErrEmptyResult = errors.New("没有有效数据")
)

var bracketStripper = strings.NewReplacer("[", "", "]", "")

// StripBrackets 删除文本中的方括号
func StripBrackets(s string) string {
	return bracketStripper.Replace(s)
}

// HostFromFile 由文件名得到主机标识（去掉目录和扩展名）
func HostFromFile(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Layout 源工作表结构，列号从1开始
type Layout struct {
	NameColumn     int
	RiskColumn     int
	InfoColumn     int
	VulnMinColumns int
	InfoMinColumns int
	VulnHeaderRows int
	InfoHeaderRows int
}

// DefaultLayout 远程漏洞取第4、6列，其它信息取第2列
func DefaultLayout() Layout {
	return Layout{
		NameColumn:     4,
		RiskColumn:     6,
		InfoColumn:     2,
		VulnMinColumns: 6,
		InfoMinColumns: 2,
		VulnHeaderRows: 1,
		InfoHeaderRows: 1,
	}
}

// VulnerabilityRows 从远程漏洞表提取漏洞名称和风险等级
// 两列按行配对，长度不一致时截断到较短的一列；空行同样保留并参与编号
func (l Layout) VulnerabilityRows(table types.Table) ([]types.VulnerabilityRow, error) {
	if width := table.Width(); width < l.VulnMinColumns {
		return nil, fmt.Errorf("%w: 远程漏洞表只有 %d 列，至少需要 %d 列", ErrInsufficientColumns, width, l.VulnMinColumns)
	}

	names := table.Column(l.NameColumn-1, l.VulnHeaderRows)
	levels := table.Column(l.RiskColumn-1, l.VulnHeaderRows)

	n := len(names)
	if len(levels) < n {
		n = len(levels)
	}

	rows := make([]types.VulnerabilityRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, types.VulnerabilityRow{
			Name:      strings.TrimSpace(names[i]),
			RiskLevel: strings.TrimSpace(levels[i]),
		})
	}
	return rows, nil
}

// InfoTexts 从其它信息表提取自由文本列
func (l Layout) InfoTexts(table types.Table) ([]string, error) {
	if width := table.Width(); width < l.InfoMinColumns {
		return nil, fmt.Errorf("%w: 其它信息表只有 %d 列，至少需要 %d 列", ErrInsufficientColumns, width, l.InfoMinColumns)
	}
	return table.Column(l.InfoColumn-1, l.InfoHeaderRows), nil
}

// Builder 生成单个主机的输出记录
type Builder struct {
	filter *risk.Filter
}

// NewBuilder 创建记录生成器
func NewBuilder(filter *risk.Filter) *Builder {
	if filter == nil {
		filter = risk.NewFilter(nil)
	}
	return &Builder{filter: filter}
}

// Build 过滤低危漏洞并生成带序号的记录
// 高危端口按主机计算一次，写入每一行；过滤后没有数据时返回 ErrEmptyResult
func (b *Builder) Build(host string, rows []types.VulnerabilityRow, ports string) (*types.HostReport, error) {
	report := &types.HostReport{
		Host:          StripBrackets(host),
		HighRiskPorts: ports,
		Severity:      make(map[string]int),
	}

	hasContent := false
	for _, row := range rows {
		// 低危标记可能带括号（如 "[低]"），按原始文本判断
		if b.filter.IsLow(row.RiskLevel) {
			report.Dropped++
			continue
		}

		name := StripBrackets(row.Name)
		level := StripBrackets(row.RiskLevel)
		report.Records = append(report.Records, types.EnrichedRecord{
			Seq:               len(report.Records) + 1,
			Host:              report.Host,
			VulnerabilityName: name,
			RiskLevel:         level,
			HighRiskPorts:     ports,
		})
		report.Severity[string(risk.Classify(level))]++

		if strings.TrimSpace(name) != "" || strings.TrimSpace(level) != "" || ports != "" {
			hasContent = true
		}
	}

	if !hasContent {
		report.Records = nil
		return report, ErrEmptyResult
	}
	return report, nil
}
