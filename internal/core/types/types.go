package types

import "time"

// ===========================================
// 源数据结构
// ===========================================

// VulnerabilityRow 远程漏洞表中的一行（第4列漏洞名称、第6列风险等级）
type VulnerabilityRow struct {
	Name      string
	RiskLevel string
}

// Table 从工作表读取的原始单元格文本，按行存放
type Table [][]string

// Width 表格列数（取最长行的长度）
func (t Table) Width() int {
	width := 0
	for _, row := range t {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Column 提取指定列（从0开始），跳过前 skip 行；缺失单元格以空字符串补齐
func (t Table) Column(index, skip int) []string {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(t) {
		return nil
	}
	values := make([]string, 0, len(t)-skip)
	for _, row := range t[skip:] {
		if index < len(row) {
			values = append(values, row[index])
		} else {
			values = append(values, "")
		}
	}
	return values
}

// ===========================================
// 输出数据结构
// ===========================================

// ReportHeaders 输出工作表的表头，顺序与 EnrichedRecord.Values 一致
var ReportHeaders = []string{"序号", "IP", "漏洞名称", "风险等级", "是否整改", "整改措施", "高危端口", "备注"}

// EnrichedRecord 输出工作表中的一行
// 是否整改、整改措施、备注三列由运维人员填写，生成时为空
type EnrichedRecord struct {
	Seq               int
	Host              string
	VulnerabilityName string
	RiskLevel         string
	RemediationStatus string
	RemediationAction string
	HighRiskPorts     string
	Notes             string
}

// Values 按列顺序返回单元格值
func (r EnrichedRecord) Values() []interface{} {
	return []interface{}{
		r.Seq,
		r.Host,
		r.VulnerabilityName,
		r.RiskLevel,
		r.RemediationStatus,
		r.RemediationAction,
		r.HighRiskPorts,
		r.Notes,
	}
}

// HostReport 单个主机（单个输入文件）的汇总结果
type HostReport struct {
	Host          string
	SheetName     string
	HighRiskPorts string
	Records       []EnrichedRecord
	Dropped       int            // 被判定为低危而过滤的行数
	Severity      map[string]int // 保留行按风险等级计数
}

// Len 数据行数
func (h *HostReport) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Records)
}

// ===========================================
// 处理结果
// ===========================================

// FileStatus 单个输入文件的处理结果类型
type FileStatus string

const (
	StatusWritten             FileStatus = "written"
	StatusEmpty               FileStatus = "empty"
	StatusMissingSheet        FileStatus = "missing_sheet"
	StatusInsufficientColumns FileStatus = "insufficient_columns"
	StatusUnreadable          FileStatus = "unreadable"
	StatusWriteFailed         FileStatus = "write_failed"
)

// FileOutcome 单个文件的处理结果，文件级错误在此收敛，不向上传播
type FileOutcome struct {
	File      string         `json:"file"`
	Host      string         `json:"host"`
	Status    FileStatus     `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	SheetName string         `json:"sheet_name,omitempty"`
	Rows      int            `json:"rows"`
	Dropped   int            `json:"dropped"`
	Ports     string         `json:"high_risk_ports,omitempty"`
	Severity  map[string]int `json:"severity,omitempty"`
}

// Written 是否已写入输出工作簿
func (o FileOutcome) Written() bool {
	return o.Status == StatusWritten
}

// RunSummary 一次汇总运行的统计
type RunSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	OutputPath string
	Saved      bool
	Outcomes   []FileOutcome
}

// Count 按状态统计文件数
func (s *RunSummary) Count(status FileStatus) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Skipped 未写入输出的文件数
func (s *RunSummary) Skipped() int {
	return len(s.Outcomes) - s.Count(StatusWritten)
}

// TotalRows 写入的数据行总数
func (s *RunSummary) TotalRows() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Written() {
			n += o.Rows
		}
	}
	return n
}
