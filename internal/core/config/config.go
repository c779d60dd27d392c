package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vulnmerge/internal/core/logger"

	"gopkg.in/yaml.v3"
)

// Config 全局配置结构体
type Config struct {
	Input  InputConfig      `yaml:"input"`
	Source SourceConfig     `yaml:"source"`
	Filter FilterConfig     `yaml:"filter"`
	Output OutputConfig     `yaml:"output"`
	Log    logger.LogConfig `yaml:"log"`
}

// InputConfig 输入目录配置
type InputConfig struct {
	Dir          string   `yaml:"dir"`
	Extensions   []string `yaml:"extensions"`
	CleanupFiles []string `yaml:"cleanup_files"` // 处理前询问是否删除的索引文件
}

// SourceConfig 源工作簿结构配置，列号从1开始
type SourceConfig struct {
	VulnSheets     []string `yaml:"vuln_sheets"` // 远程漏洞工作表名（按顺序匹配第一个存在的）
	InfoSheets     []string `yaml:"info_sheets"` // 其它信息工作表名
	NameColumn     int      `yaml:"name_column"`
	RiskColumn     int      `yaml:"risk_column"`
	InfoColumn     int      `yaml:"info_column"`
	VulnMinColumns int      `yaml:"vuln_min_columns"`
	InfoMinColumns int      `yaml:"info_min_columns"`
	VulnHeaderRows int      `yaml:"vuln_header_rows"`
	InfoHeaderRows int      `yaml:"info_header_rows"`
	Encoding       string   `yaml:"encoding"` // 非UTF-8文本的解码字符集
}

// FilterConfig 过滤配置
type FilterConfig struct {
	HighRiskPorts  []int    `yaml:"high_risk_ports"`
	LowRiskMarkers []string `yaml:"low_risk_markers"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	Path               string   `yaml:"path"`
	SummaryJSON        string   `yaml:"summary_json"`
	RemediationOptions []string `yaml:"remediation_options"`
	Style              bool     `yaml:"style"`
}

// DefaultConfig 内置默认配置
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Extensions:   []string{".xls", ".xlsx"},
			CleanupFiles: []string{"index.xls", "index.xlsx"},
		},
		Source: SourceConfig{
			VulnSheets:     []string{"远程漏洞", "remote vulnerabilities"},
			InfoSheets:     []string{"其它信息", "其他信息", "other information"},
			NameColumn:     4,
			RiskColumn:     6,
			InfoColumn:     2,
			VulnMinColumns: 6,
			InfoMinColumns: 2,
			VulnHeaderRows: 1,
			InfoHeaderRows: 1,
			Encoding:       "gbk",
		},
		Filter: FilterConfig{
			HighRiskPorts:  []int{135, 136, 137, 139, 445},
			LowRiskMarkers: []string{"[低]", "低"},
		},
		Output: OutputConfig{
			Path:               filepath.Join("~", "Desktop", "export.xlsx"),
			RemediationOptions: []string{"是", "否"},
			Style:              true,
		},
		Log: logger.LogConfig{
			Level:       "info",
			ColorOutput: true,
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      30,
		},
	}
}

// LoadConfig 加载配置文件，未出现的字段保留默认值
func LoadConfig(configPath string) (*Config, error) {
	logger.Debugf("开始加载配置文件: %s", configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	logger.Debugf("配置文件加载成功: %s", configPath)
	return config, nil
}

// InitConfig 初始化配置：显式路径优先，否则依次查找默认位置，都不存在时使用内置默认值
func InitConfig(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return LoadConfig(explicitPath)
	}

	configPaths := []string{
		"config.yaml",
		"./configs/config.yaml",
	}

	for _, configPath := range configPaths {
		if _, err := os.Stat(configPath); err == nil {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return nil, fmt.Errorf("加载配置文件 %s 失败: %w", configPath, err)
			}
			return cfg, nil
		}
	}

	logger.Debugf("未找到配置文件 %v，使用默认配置", configPaths)
	return DefaultConfig(), nil
}

// Validate 验证配置
func Validate(config *Config) error {
	src := config.Source
	if len(src.VulnSheets) == 0 || len(src.InfoSheets) == 0 {
		return fmt.Errorf("工作表名称不能为空")
	}
	if src.NameColumn < 1 || src.RiskColumn < 1 || src.InfoColumn < 1 {
		return fmt.Errorf("列号必须从1开始")
	}
	if src.VulnMinColumns < src.NameColumn || src.VulnMinColumns < src.RiskColumn {
		return fmt.Errorf("远程漏洞最少列数(%d)小于使用的列号", src.VulnMinColumns)
	}
	if src.InfoMinColumns < src.InfoColumn {
		return fmt.Errorf("其它信息最少列数(%d)小于使用的列号", src.InfoMinColumns)
	}
	if src.VulnHeaderRows < 0 || src.InfoHeaderRows < 0 {
		return fmt.Errorf("表头行数不能为负数")
	}
	for _, port := range config.Filter.HighRiskPorts {
		if port < 0 || port > 65535 {
			return fmt.Errorf("无效的高危端口: %d", port)
		}
	}
	if len(config.Input.Extensions) == 0 {
		return fmt.Errorf("输入文件扩展名不能为空")
	}
	if strings.TrimSpace(config.Output.Path) == "" {
		return fmt.Errorf("输出文件路径不能为空")
	}
	return nil
}

// ExpandHome 展开路径开头的 ~
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("获取用户目录失败: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
