package report

import (
	"fmt"

	"vulnmerge/internal/core/types"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/width"
)

// 居中对齐的列：序号、IP、风险等级、是否整改、高危端口
var centeredColumns = []int{1, 2, 4, 5, 7}

// remediationColumn 是否整改列（E）
const remediationColumn = 5

const (
	columnPadding  = 5
	maxColumnWidth = 255
)

// ExcelStyler 默认格式：自适应列宽、部分列居中、是否整改列下拉选择
type ExcelStyler struct {
	Options     []string
	PromptTitle string
	Prompt      string
}

// NewExcelStyler 创建格式设置器，options 为是否整改列的可选值
func NewExcelStyler(options []string) *ExcelStyler {
	if len(options) == 0 {
		options = []string{"是", "否"}
	}
	return &ExcelStyler{
		Options:     options,
		PromptTitle: "整改提示",
		Prompt:      "请选择'是'后，请输入整改过程或截图。",
	}
}

// Style 实现 Styler
func (s *ExcelStyler) Style(f *excelize.File, sheet string, report *types.HostReport) error {
	lastRow := report.Len() + 1

	for col, w := range ColumnWidths(report) {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, float64(w)); err != nil {
			return fmt.Errorf("设置列宽失败: %w", err)
		}
	}

	center, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("创建样式失败: %w", err)
	}
	for _, col := range centeredColumns {
		top, _ := excelize.CoordinatesToCellName(col, 1)
		bottom, _ := excelize.CoordinatesToCellName(col, lastRow)
		if err := f.SetCellStyle(sheet, top, bottom, center); err != nil {
			return fmt.Errorf("设置对齐失败: %w", err)
		}
	}

	if report.Len() == 0 {
		return nil
	}

	top, _ := excelize.CoordinatesToCellName(remediationColumn, 2)
	bottom, _ := excelize.CoordinatesToCellName(remediationColumn, lastRow)
	dv := excelize.NewDataValidation(true)
	dv.Sqref = top + ":" + bottom
	if err := dv.SetDropList(s.Options); err != nil {
		return fmt.Errorf("设置下拉列表失败: %w", err)
	}
	dv.SetInput(s.PromptTitle, s.Prompt)
	if err := f.AddDataValidation(sheet, dv); err != nil {
		return fmt.Errorf("添加数据验证失败: %w", err)
	}
	return nil
}

// ColumnWidths 每列宽度 = 表头与数据中最大显示宽度 + 5，全角字符按2计算
func ColumnWidths(report *types.HostReport) []int {
	widths := make([]int, len(types.ReportHeaders))
	for i, h := range types.ReportHeaders {
		widths[i] = DisplayWidth(h)
	}
	for _, record := range report.Records {
		for i, v := range record.Values() {
			if w := DisplayWidth(fmt.Sprint(v)); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		widths[i] += columnPadding
		if widths[i] > maxColumnWidth {
			widths[i] = maxColumnWidth
		}
	}
	return widths
}

// DisplayWidth 文本显示宽度
func DisplayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}
