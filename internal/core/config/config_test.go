package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, []int{135, 136, 137, 139, 445}, cfg.Filter.HighRiskPorts)
	assert.Equal(t, 4, cfg.Source.NameColumn)
	assert.Equal(t, 6, cfg.Source.RiskColumn)
	assert.Equal(t, 2, cfg.Source.InfoColumn)
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
input:
  dir: /data/scans
filter:
  high_risk_ports: [445, 3389]
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/scans", cfg.Input.Dir)
	assert.Equal(t, []int{445, 3389}, cfg.Filter.HighRiskPorts)
	assert.Equal(t, "debug", cfg.Log.Level)
	// 未配置的字段沿用默认值
	assert.Equal(t, []string{"[低]", "低"}, cfg.Filter.LowRiskMarkers)
	assert.Equal(t, 6, cfg.Source.VulnMinColumns)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("source: [unclosed"), 0o644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "列号为0", mutate: func(c *Config) { c.Source.RiskColumn = 0 }},
		{name: "最少列数小于使用列", mutate: func(c *Config) { c.Source.VulnMinColumns = 5 }},
		{name: "信息表最少列数过小", mutate: func(c *Config) { c.Source.InfoMinColumns = 1 }},
		{name: "工作表名为空", mutate: func(c *Config) { c.Source.VulnSheets = nil }},
		{name: "端口越界", mutate: func(c *Config) { c.Filter.HighRiskPorts = []int{70000} }},
		{name: "输出路径为空", mutate: func(c *Config) { c.Output.Path = " " }},
		{name: "扩展名为空", mutate: func(c *Config) { c.Input.Extensions = nil }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandHome("~/Desktop/export.xlsx")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Desktop", "export.xlsx"), got)

	got, err = ExpandHome("/tmp/out.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out.xlsx", got)
}
