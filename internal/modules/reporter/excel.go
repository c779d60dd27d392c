package report

import (
	"fmt"
	"os"
	"path/filepath"

	"vulnmerge/internal/core/logger"
	"vulnmerge/internal/core/types"

	"github.com/xuri/excelize/v2"
)

// Styler 输出工作表的格式设置（列宽、对齐、下拉列表），与数据写入解耦
type Styler interface {
	Style(file *excelize.File, sheet string, report *types.HostReport) error
}

// ExcelSink 汇总工作簿，每个主机一个工作表
// 所有工作表写在内存中，Close 时统一保存
type ExcelSink struct {
	path    string
	file    *excelize.File
	styler  Styler
	names   *sheetNamer
	written int
	saved   bool
	closed  bool
}

// NewExcelSink 创建汇总工作簿，输出目录不存在时自动创建
func NewExcelSink(outputPath string, styler Styler) (*ExcelSink, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	logger.Debugf("创建汇总工作簿: %s", outputPath)
	return &ExcelSink{
		path:   outputPath,
		file:   excelize.NewFile(),
		styler: styler,
		names:  newSheetNamer(),
	}, nil
}

// Path 输出文件路径
func (s *ExcelSink) Path() string {
	return s.path
}

// Written 已写入的工作表数量
func (s *ExcelSink) Written() int {
	return s.written
}

// Saved 是否已保存到磁盘
func (s *ExcelSink) Saved() bool {
	return s.saved
}

// Write 写入一个主机的工作表，返回实际使用的工作表名
func (s *ExcelSink) Write(report *types.HostReport) (string, error) {
	if s.closed {
		return "", fmt.Errorf("工作簿已关闭")
	}
	if report.Len() == 0 {
		return "", fmt.Errorf("主机 %s 没有数据行", report.Host)
	}

	name := s.names.Reserve(report.SheetName)

	if s.written == 0 {
		// 复用新建工作簿自带的默认工作表
		if err := s.file.SetSheetName(s.file.GetSheetName(0), name); err != nil {
			return "", fmt.Errorf("创建工作表 %s 失败: %w", name, err)
		}
	} else if _, err := s.file.NewSheet(name); err != nil {
		return "", fmt.Errorf("创建工作表 %s 失败: %w", name, err)
	}

	header := make([]interface{}, len(types.ReportHeaders))
	for i, h := range types.ReportHeaders {
		header[i] = h
	}
	if err := s.file.SetSheetRow(name, "A1", &header); err != nil {
		return "", fmt.Errorf("写入表头失败: %w", err)
	}

	for idx, record := range report.Records {
		cell, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return "", err
		}
		row := record.Values()
		if err := s.file.SetSheetRow(name, cell, &row); err != nil {
			return "", fmt.Errorf("写入第 %d 行失败: %w", idx+2, err)
		}
	}

	s.written++

	if s.styler != nil {
		if err := s.styler.Style(s.file, name, report); err != nil {
			// 格式设置失败不影响数据
			logger.Warnf("工作表 '%s' 格式设置失败: %v", name, err)
		}
	}

	return name, nil
}

// Close 保存并释放工作簿，可重复调用
// 没有写入任何工作表时不生成文件
func (s *ExcelSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer s.file.Close()

	if s.written == 0 {
		logger.Warnf("没有可写入的工作表，未生成输出文件: %s", s.path)
		return nil
	}

	if err := s.file.SaveAs(s.path); err != nil {
		return fmt.Errorf("保存 Excel 报告失败: %w", err)
	}
	s.saved = true
	logger.Debugf("Excel报告已生成: %s", s.path)
	return nil
}
