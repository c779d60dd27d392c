package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vulnmerge/internal/core/config"
	"vulnmerge/internal/utils/batch"
	"vulnmerge/internal/utils/formatter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubPrompter struct {
	answer string
	asked  int
}

func (p *stubPrompter) Prompt(string) (string, error) {
	p.asked++
	return p.answer, nil
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := NewRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"-i", "./scans", "-o", "out.xlsx", "-y", "--no-style", "--nc", "--debug", "--summary-json", "s.json",
	}))

	for name, expected := range map[string]string{
		"input":        "./scans",
		"output":       "out.xlsx",
		"yes":          "true",
		"no-style":     "true",
		"nc":           "true",
		"debug":        "true",
		"summary-json": "s.json",
		"no-cleanup":   "false",
	} {
		assert.Equal(t, expected, cmd.Flags().Lookup(name).Value.String(), name)
	}
}

func TestApplyArgsToConfig(t *testing.T) {
	testCases := []struct {
		name  string
		args  CLIArgs
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "空参数保留配置",
			args: CLIArgs{},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.DefaultConfig(), cfg)
			},
		},
		{
			name: "输入输出覆盖",
			args: CLIArgs{Input: "/scans", Output: "/tmp/a.xlsx", SummaryJSON: "/tmp/s.json"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "/scans", cfg.Input.Dir)
				assert.Equal(t, "/tmp/a.xlsx", cfg.Output.Path)
				assert.Equal(t, "/tmp/s.json", cfg.Output.SummaryJSON)
			},
		},
		{
			name: "开关参数",
			args: CLIArgs{NoStyle: true, NoCleanup: true, Debug: true, NoColor: true, LogFile: "run.log"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.False(t, cfg.Output.Style)
				assert.Empty(t, cfg.Input.CleanupFiles)
				assert.Equal(t, "debug", cfg.Log.Level)
				assert.False(t, cfg.Log.ColorOutput)
				assert.Equal(t, "run.log", cfg.Log.File)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			applyArgsToConfig(cfg, &tc.args)
			tc.check(t, cfg)
		})
	}
}

func TestCLIApp_NoInput(t *testing.T) {
	cfg := config.DefaultConfig()

	app := NewCLIApp(cfg, &CLIArgs{Yes: true}, &bytes.Buffer{})
	assert.True(t, errors.Is(app.Run(), ErrNoInput))

	prompter := &stubPrompter{answer: "   "}
	app = NewCLIApp(cfg, &CLIArgs{}, &bytes.Buffer{})
	app.prompter = prompter
	assert.True(t, errors.Is(app.Run(), ErrNoInput))
	assert.Equal(t, 1, prompter.asked)
}

func writeScan(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "远程漏洞"))
	_, err := f.NewSheet("其它信息")
	require.NoError(t, err)

	require.NoError(t, f.SetSheetRow("远程漏洞", "A1", &[]interface{}{"序号", "IP", "端口", "漏洞名称", "协议", "风险等级"}))
	require.NoError(t, f.SetSheetRow("远程漏洞", "A2", &[]interface{}{1, "10.0.0.5", 445, "SMB signing disabled", "tcp", "[中]"}))
	require.NoError(t, f.SetSheetRow("远程漏洞", "A3", &[]interface{}{2, "10.0.0.5", 23, "Telnet enabled", "tcp", "[低]"}))
	require.NoError(t, f.SetSheetRow("其它信息", "A1", &[]interface{}{"名称", "内容"}))
	require.NoError(t, f.SetSheetRow("其它信息", "A2", &[]interface{}{"端口", "port 445 open, port 23 open"}))
	require.NoError(t, f.SaveAs(path))
}

func plainOutput(t *testing.T) {
	t.Helper()
	prev := formatter.ColorsEnabled()
	formatter.SetColorEnabled(false)
	t.Cleanup(func() { formatter.SetColorEnabled(prev) })
}

func TestCLIApp_Run(t *testing.T) {
	plainOutput(t)
	dir := t.TempDir()
	writeScan(t, filepath.Join(dir, "10.0.0.5.xlsx"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.xls"), []byte("x"), 0o644))

	out := filepath.Join(t.TempDir(), "export.xlsx")
	summaryPath := filepath.Join(t.TempDir(), "summary.json")

	cfg := config.DefaultConfig()
	applyArgsToConfig(cfg, &CLIArgs{Output: out, SummaryJSON: summaryPath})

	prompter := &stubPrompter{answer: dir}
	var asked []string
	var buf bytes.Buffer
	app := NewCLIApp(cfg, &CLIArgs{}, &buf)
	app.prompter = prompter
	app.confirmer = batch.ConfirmFunc(func(q string) (bool, error) {
		asked = append(asked, q)
		return true, nil
	})

	require.NoError(t, app.Run())

	assert.Equal(t, 1, prompter.asked)
	assert.Len(t, asked, 1)
	_, err := os.Stat(filepath.Join(dir, "index.xls"))
	assert.True(t, os.IsNotExist(err))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"10.0.0.5"}, f.GetSheetList())

	_, err = os.Stat(summaryPath)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "共 1 个文件: 写入 1, 跳过 0, 数据行 1")
	assert.Contains(t, buf.String(), "输出文件: "+out)
}

func TestCLIApp_ListFile(t *testing.T) {
	plainOutput(t)
	dir := t.TempDir()
	writeScan(t, filepath.Join(dir, "10.0.0.5.xlsx"))
	list := filepath.Join(dir, "files.txt")
	require.NoError(t, os.WriteFile(list, []byte("10.0.0.5.xlsx\nmissing.xlsx\n"), 0o644))

	out := filepath.Join(t.TempDir(), "export.xlsx")
	cfg := config.DefaultConfig()
	cfg.Output.Path = out

	var buf bytes.Buffer
	require.NoError(t, NewCLIApp(cfg, &CLIArgs{List: list, Yes: true}, &buf).Run())
	assert.Contains(t, buf.String(), "共 2 个文件: 写入 1, 跳过 1")

	_, err := os.Stat(out)
	assert.NoError(t, err)
}
