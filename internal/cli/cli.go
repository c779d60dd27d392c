package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"vulnmerge/internal/core/config"
	"vulnmerge/internal/core/logger"
	"vulnmerge/internal/core/types"
	"vulnmerge/internal/modules/builder"
	"vulnmerge/internal/modules/extractor"
	"vulnmerge/internal/modules/pipeline"
	report "vulnmerge/internal/modules/reporter"
	"vulnmerge/internal/modules/risk"
	"vulnmerge/internal/modules/source"
	"vulnmerge/internal/utils/batch"
	"vulnmerge/internal/utils/formatter"

	"github.com/spf13/cobra"
)

// ErrNoInput 没有选择输入目录
var ErrNoInput = errors.New("未选择输入文件夹，程序结束。")

// CLIArgs CLI参数结构体
type CLIArgs struct {
	Input       string // 扫描结果目录 (-i)
	List        string // 文件列表，每行一个表格路径 (-l)
	Output      string // 汇总文件路径 (-o)
	ConfigFile  string // 配置文件路径 (-c)
	SummaryJSON string // 运行摘要JSON路径 (--summary-json)
	LogFile     string // 日志文件 (--log-file)

	Yes       bool // 跳过所有交互确认 (-y)
	NoCleanup bool // 不清理索引文件 (--no-cleanup)
	NoStyle   bool // 不设置列宽、对齐和下拉列表 (--no-style)
	Debug     bool // 调试模式 (--debug)
	NoColor   bool // 禁用彩色输出 (--nc)
}

// CLIApp CLI应用程序
type CLIApp struct {
	cfg       *config.Config
	args      *CLIArgs
	confirmer batch.Confirmer
	prompter  Prompter
	out       io.Writer
}

// NewCLIApp 创建应用，交互组件按参数选择
func NewCLIApp(cfg *config.Config, args *CLIArgs, out io.Writer) *CLIApp {
	app := &CLIApp{
		cfg:       cfg,
		args:      args,
		confirmer: ptermConfirmer{},
		prompter:  ptermPrompter{},
		out:       out,
	}
	if args.Yes {
		app.confirmer = batch.AlwaysConfirm
		app.prompter = nil
	}
	return app
}

// NewRootCmd 创建根命令
func NewRootCmd() *cobra.Command {
	args := &CLIArgs{}

	cmd := &cobra.Command{
		Use:   "vulnmerge",
		Short: "将逐主机的漏洞扫描表格汇总到一个工作簿",
		Long: `vulnmerge 读取目录下每个主机的扫描结果表格（.xls/.xlsx），
过滤低危漏洞、提取高危端口，并为每个主机在汇总工作簿中生成一个工作表。

示例:
  vulnmerge -i ./scans
  vulnmerge -i ./scans -o ./export.xlsx -y --summary-json summary.json
  vulnmerge -l files.txt --no-style`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(args)
			if err != nil {
				return err
			}
			defer logger.Close()
			return NewCLIApp(cfg, args, cmd.OutOrStdout()).Run()
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&args.Input, "input", "i", "", "扫描结果所在目录（为空时交互输入）")
	flags.StringVarP(&args.List, "list", "l", "", "文件列表路径，每行一个表格文件")
	flags.StringVarP(&args.Output, "output", "o", "", "汇总文件路径 (默认: ~/Desktop/export.xlsx)")
	flags.StringVarP(&args.ConfigFile, "config", "c", "", "配置文件路径 (默认: ./config.yaml 或 ./configs/config.yaml)")
	flags.StringVar(&args.SummaryJSON, "summary-json", "", "运行摘要JSON输出路径")
	flags.StringVar(&args.LogFile, "log-file", "", "同时写入的日志文件")
	flags.BoolVarP(&args.Yes, "yes", "y", false, "不进行交互确认，直接删除索引文件")
	flags.BoolVar(&args.NoCleanup, "no-cleanup", false, "跳过索引文件清理")
	flags.BoolVar(&args.NoStyle, "no-style", false, "不设置列宽、对齐和下拉列表")
	flags.BoolVar(&args.Debug, "debug", false, "调试模式")
	flags.BoolVar(&args.NoColor, "nc", false, "禁用彩色输出")

	return cmd
}

// Execute 执行CLI命令
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		logger.Fatalf("%v", err)
	}
}

// setup 加载配置并初始化日志系统
func setup(args *CLIArgs) (*config.Config, error) {
	cfg, err := config.InitConfig(args.ConfigFile)
	if err != nil {
		return nil, err
	}
	applyArgsToConfig(cfg, args)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}
	if err := logger.InitializeLogger(&cfg.Log); err != nil {
		return nil, err
	}
	logger.Debug("日志系统初始化完成")

	formatter.SetColorEnabled(cfg.Log.ColorOutput)
	if runtime.GOOS == "windows" {
		// Windows 10+默认支持ANSI颜色
		formatter.SetWindowsANSISupported(true)
	}
	return cfg, nil
}

// applyArgsToConfig 命令行参数覆盖配置文件
func applyArgsToConfig(cfg *config.Config, args *CLIArgs) {
	if args.Input != "" {
		cfg.Input.Dir = args.Input
	}
	if args.Output != "" {
		cfg.Output.Path = args.Output
	}
	if args.SummaryJSON != "" {
		cfg.Output.SummaryJSON = args.SummaryJSON
	}
	if args.NoStyle {
		cfg.Output.Style = false
	}
	if args.NoCleanup {
		cfg.Input.CleanupFiles = nil
	}
	if args.Debug {
		cfg.Log.Level = "debug"
	}
	if args.NoColor {
		cfg.Log.ColorOutput = false
	}
	if args.LogFile != "" {
		cfg.Log.File = args.LogFile
	}
}

// Run 清理索引文件、收集输入并执行汇总
func (app *CLIApp) Run() error {
	scanner := batch.NewInputScanner(app.cfg.Input.Extensions)

	files, err := app.collectInputs(scanner)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Warn("未找到需要处理的表格文件")
	}

	outputPath, err := config.ExpandHome(app.cfg.Output.Path)
	if err != nil {
		return err
	}

	var styler report.Styler
	if app.cfg.Output.Style {
		styler = report.NewExcelStyler(app.cfg.Output.RemediationOptions)
	}
	sink, err := report.NewExcelSink(outputPath, styler)
	if err != nil {
		return err
	}

	summary, err := app.newPipeline().Run(files, sink)
	if err != nil {
		return err
	}

	if err := report.PrintSummary(app.out, summary); err != nil {
		logger.Warnf("打印摘要失败: %v", err)
	}
	app.writeSummaryJSON(summary)

	if summary.Saved {
		logger.Infof("所有文件处理完成，输出文件路径: %s", outputPath)
	}
	return nil
}

// collectInputs 列表文件优先；否则使用输入目录，先清理索引文件再枚举
func (app *CLIApp) collectInputs(scanner *batch.InputScanner) ([]string, error) {
	if app.args.List != "" {
		return scanner.ParseListFile(app.args.List)
	}

	dir, err := app.resolveInputDir()
	if err != nil {
		return nil, err
	}

	if len(app.cfg.Input.CleanupFiles) > 0 {
		batch.Cleanup(dir, app.cfg.Input.CleanupFiles, app.confirmer)
	}
	return scanner.ScanDir(dir)
}

// resolveInputDir 配置或参数没有给出目录时交互询问
func (app *CLIApp) resolveInputDir() (string, error) {
	dir := strings.TrimSpace(app.cfg.Input.Dir)
	if dir == "" && app.prompter != nil {
		answer, err := app.prompter.Prompt("请输入扫描结果所在文件夹")
		if err != nil {
			return "", fmt.Errorf("读取输入目录失败: %w", err)
		}
		dir = strings.Trim(strings.TrimSpace(answer), `"'`)
	}
	if dir == "" {
		return "", ErrNoInput
	}

	dir, err := config.ExpandHome(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("输入目录不可用: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("输入路径不是目录: %s", dir)
	}

	logger.Infof("选择的文件夹路径: %s", dir)
	return dir, nil
}

func (app *CLIApp) newPipeline() *pipeline.Pipeline {
	src := app.cfg.Source
	loader := source.NewLoader(src.VulnSheets, src.InfoSheets, source.NewTextDecoder(src.Encoding))
	layout := builder.Layout{
		NameColumn:     src.NameColumn,
		RiskColumn:     src.RiskColumn,
		InfoColumn:     src.InfoColumn,
		VulnMinColumns: src.VulnMinColumns,
		InfoMinColumns: src.InfoMinColumns,
		VulnHeaderRows: src.VulnHeaderRows,
		InfoHeaderRows: src.InfoHeaderRows,
	}
	ports := extractor.NewPortExtractor(app.cfg.Filter.HighRiskPorts)
	b := builder.NewBuilder(risk.NewFilter(app.cfg.Filter.LowRiskMarkers))
	return pipeline.New(loader, layout, ports, b)
}

func (app *CLIApp) writeSummaryJSON(summary *types.RunSummary) {
	if app.cfg.Output.SummaryJSON == "" {
		return
	}
	path, err := config.ExpandHome(app.cfg.Output.SummaryJSON)
	if err != nil {
		logger.Warnf("摘要路径无效: %v", err)
		return
	}
	if _, err := report.WriteSummaryJSON(summary, path); err != nil {
		logger.Errorf("写入运行摘要失败: %v", err)
		return
	}
	logger.Infof("运行摘要已保存: %s", path)
}
