package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"vulnmerge/internal/core/types"
	"vulnmerge/internal/utils/formatter"

	"github.com/pterm/pterm"
)

var statusText = map[types.FileStatus]string{
	types.StatusWritten:             "已写入",
	types.StatusEmpty:               "无有效数据",
	types.StatusMissingSheet:        "缺少工作表",
	types.StatusInsufficientColumns: "列数不足",
	types.StatusUnreadable:          "无法读取",
	types.StatusWriteFailed:         "写入失败",
}

// StatusText 状态的中文描述
func StatusText(status types.FileStatus) string {
	if text, ok := statusText[status]; ok {
		return text
	}
	return string(status)
}

// formatStatus 写入为绿色，无数据类跳过为黄色，读写失败为红色
func formatStatus(status types.FileStatus) string {
	text := StatusText(status)
	switch status {
	case types.StatusWritten:
		return formatter.FormatSuccess(text)
	case types.StatusUnreadable, types.StatusWriteFailed:
		return formatter.FormatError(text)
	default:
		return formatter.FormatWarning(text)
	}
}

var severityOrder = []string{"高", "中", "低", "未知"}

// formatSeverity 风险分布，如 "高 2 中 1"
func formatSeverity(counts map[string]int) string {
	parts := make([]string, 0, len(counts))
	for _, level := range severityOrder {
		if n := counts[level]; n > 0 {
			parts = append(parts, formatter.FormatSeverity(level)+" "+strconv.Itoa(n))
		}
	}
	return strings.Join(parts, " ")
}

// SummaryTable 控制台摘要表数据
func SummaryTable(summary *types.RunSummary) pterm.TableData {
	data := pterm.TableData{{"文件", "工作表", "状态", "行数", "过滤", "高危端口", "风险分布"}}
	for _, o := range summary.Outcomes {
		data = append(data, []string{
			o.File,
			o.SheetName,
			formatStatus(o.Status),
			strconv.Itoa(o.Rows),
			strconv.Itoa(o.Dropped),
			o.Ports,
			formatSeverity(o.Severity),
		})
	}
	return data
}

// PrintSummary 打印摘要表
func PrintSummary(w io.Writer, summary *types.RunSummary) error {
	if len(summary.Outcomes) == 0 {
		return nil
	}

	table, err := pterm.DefaultTable.
		WithHasHeader(true).
		WithBoxed(false).
		WithData(SummaryTable(summary)).
		Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	_, err = fmt.Fprintf(w, "%s\n共 %s 个文件: 写入 %s, 跳过 %s, 数据行 %s\n",
		table,
		formatter.FormatNumber(len(summary.Outcomes)),
		formatter.FormatNumber(summary.Count(types.StatusWritten)),
		formatter.FormatNumber(summary.Skipped()),
		formatter.FormatNumber(summary.TotalRows()))
	if err != nil || !summary.Saved {
		return err
	}
	_, err = fmt.Fprintf(w, "输出文件: %s\n", formatter.FormatPath(summary.OutputPath))
	return err
}
