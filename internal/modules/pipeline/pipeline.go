package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"vulnmerge/internal/core/logger"
	"vulnmerge/internal/core/types"
	"vulnmerge/internal/modules/builder"
	"vulnmerge/internal/modules/extractor"
	report "vulnmerge/internal/modules/reporter"
	"vulnmerge/internal/modules/source"
)

// TableLoader 读取单个输入文件的两张源表
type TableLoader interface {
	Load(path string) (*source.Tables, error)
}

// Sink 接收每个主机的结果，Close 时完成输出
type Sink interface {
	Write(host *types.HostReport) (string, error)
	Close() error
	Saved() bool
	Path() string
}

// Pipeline 逐个文件顺序处理：读取、提取端口、过滤、生成记录、写入
type Pipeline struct {
	loader    TableLoader
	layout    builder.Layout
	extractor *extractor.PortExtractor
	builder   *builder.Builder
}

// New 创建处理流程
func New(loader TableLoader, layout builder.Layout, ports *extractor.PortExtractor, b *builder.Builder) *Pipeline {
	return &Pipeline{
		loader:    loader,
		layout:    layout,
		extractor: ports,
		builder:   b,
	}
}

// Run 处理全部文件并关闭 sink；单个文件的失败不会中断运行
// 返回的错误只来自 sink 的最终保存
func (p *Pipeline) Run(files []string, sink Sink) (summary *types.RunSummary, err error) {
	summary = &types.RunSummary{
		StartedAt:  time.Now(),
		OutputPath: sink.Path(),
		Outcomes:   make([]types.FileOutcome, 0, len(files)),
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("处理过程中发生异常: %v", r)
		}
		if closeErr := sink.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		summary.Saved = sink.Saved()
		summary.FinishedAt = time.Now()
	}()

	total := len(files)
	for idx, file := range files {
		logger.Infof("正在处理文件 %d/%d: %s", idx+1, total, filepath.Base(file))
		outcome := p.ProcessFile(file, sink)
		summary.Outcomes = append(summary.Outcomes, outcome)
	}
	return summary, nil
}

// ProcessFile 处理单个文件，所有错误（包括读取库的 panic）都转换为结果值
func (p *Pipeline) ProcessFile(path string, sink Sink) (outcome types.FileOutcome) {
	name := filepath.Base(path)
	outcome = types.FileOutcome{File: name, Host: builder.HostFromFile(path)}

	defer func() {
		if r := recover(); r != nil {
			outcome.Status = types.StatusUnreadable
			outcome.Reason = fmt.Sprintf("解析异常: %v", r)
			outcome.SheetName = ""
			outcome.Rows = 0
		}
		logOutcome(outcome)
	}()

	hostReport, err := p.BuildReport(path)
	if hostReport != nil {
		outcome.Dropped = hostReport.Dropped
		outcome.Ports = hostReport.HighRiskPorts
	}
	if err != nil {
		outcome.Status = classify(err)
		outcome.Reason = err.Error()
		return outcome
	}

	sheet, err := sink.Write(hostReport)
	if err != nil {
		outcome.Status = types.StatusWriteFailed
		outcome.Reason = err.Error()
		return outcome
	}

	outcome.Status = types.StatusWritten
	outcome.SheetName = sheet
	outcome.Rows = hostReport.Len()
	outcome.Severity = hostReport.Severity
	return outcome
}

// BuildReport 读取文件并生成主机结果，不涉及输出
func (p *Pipeline) BuildReport(path string) (*types.HostReport, error) {
	tables, err := p.loader.Load(path)
	if err != nil {
		return nil, err
	}

	rows, err := p.layout.VulnerabilityRows(tables.Vuln)
	if err != nil {
		return nil, err
	}
	texts, err := p.layout.InfoTexts(tables.Info)
	if err != nil {
		return nil, err
	}

	host := builder.HostFromFile(path)
	ports := p.extractor.Extract(texts).String()

	hostReport, err := p.builder.Build(host, rows, ports)
	if hostReport != nil {
		hostReport.SheetName = report.SheetName(host)
	}
	return hostReport, err
}

func classify(err error) types.FileStatus {
	switch {
	case errors.Is(err, builder.ErrEmptyResult):
		return types.StatusEmpty
	case errors.Is(err, builder.ErrInsufficientColumns):
		return types.StatusInsufficientColumns
	case errors.Is(err, source.ErrMissingSheet):
		return types.StatusMissingSheet
	default:
		return types.StatusUnreadable
	}
}

func logOutcome(o types.FileOutcome) {
	switch o.Status {
	case types.StatusWritten:
		logger.Infof("已处理 %s: 数据已保存到工作表 '%s' (%d 行)", o.File, o.SheetName, o.Rows)
	case types.StatusEmpty:
		logger.Warnf("工作表 '%s' 没有有效数据，跳过写入。", o.Host)
	case types.StatusInsufficientColumns:
		logger.Warnf("警告: %s %s，跳过此文件。", o.File, o.Reason)
	default:
		logger.Errorf("处理 %s 时出错: %s", o.File, o.Reason)
	}
}
