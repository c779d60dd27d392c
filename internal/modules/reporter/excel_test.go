package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"vulnmerge/internal/core/types"
	"vulnmerge/internal/utils/formatter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func hostReport(host string, names ...string) *types.HostReport {
	report := &types.HostReport{Host: host, SheetName: SheetName(host), HighRiskPorts: "445"}
	for i, n := range names {
		report.Records = append(report.Records, types.EnrichedRecord{
			Seq:               i + 1,
			Host:              host,
			VulnerabilityName: n,
			RiskLevel:         "中",
			HighRiskPorts:     "445",
		})
	}
	return report
}

func TestExcelSink_WritesOneSheetPerHost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "export.xlsx")
	sink, err := NewExcelSink(path, nil)
	require.NoError(t, err)

	name, err := sink.Write(hostReport("10.0.0.5", "SMB signing disabled"))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", name)

	_, err = sink.Write(hostReport("10.0.0.6", "a", "b"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())
	assert.True(t, sink.Saved())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"10.0.0.5", "10.0.0.6"}, f.GetSheetList())

	rows, err := f.GetRows("10.0.0.5")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, types.ReportHeaders, rows[0])
	assert.Equal(t, []string{"1", "10.0.0.5", "SMB signing disabled", "中", "", "", "445"}, rows[1])

	rows, err = f.GetRows("10.0.0.6")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2", rows[2][0])
}

func TestExcelSink_NothingWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")
	sink, err := NewExcelSink(path, nil)
	require.NoError(t, err)

	_, err = sink.Write(&types.HostReport{Host: "empty", SheetName: "empty"})
	assert.Error(t, err)

	require.NoError(t, sink.Close())
	assert.False(t, sink.Saved())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, err = sink.Write(hostReport("late", "a"))
	assert.Error(t, err)
}

func TestExcelSink_Styled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")
	sink, err := NewExcelSink(path, NewExcelStyler(nil))
	require.NoError(t, err)

	_, err = sink.Write(hostReport("10.0.0.5", "一个很长的漏洞名称用于测试列宽", "b"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	dvs, err := f.GetDataValidations("10.0.0.5")
	require.NoError(t, err)
	require.Len(t, dvs, 1)
	assert.Equal(t, "E2:E3", dvs[0].Sqref)

	w, err := f.GetColWidth("10.0.0.5", "C")
	require.NoError(t, err)
	assert.Equal(t, float64(DisplayWidth("一个很长的漏洞名称用于测试列宽")+5), w)

	styleID, err := f.GetCellStyle("10.0.0.5", "B2")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Alignment)
	assert.Equal(t, "center", style.Alignment.Horizontal)
}

func TestSheetName(t *testing.T) {
	testCases := []struct {
		name     string
		host     string
		expected string
	}{
		{name: "普通IP", host: "10.0.0.5", expected: "10.0.0.5"},
		{name: "超长截断到31", host: strings.Repeat("a", 40), expected: strings.Repeat("a", 31)},
		{name: "非法字符删除", host: "host[1]:a/b", expected: "host1ab"},
		{name: "中文按字符截断", host: strings.Repeat("漏", 35), expected: strings.Repeat("漏", 31)},
		{name: "全部非法字符", host: "[]", expected: "Sheet"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SheetName(tc.host))
		})
	}
}

func TestSheetNamer_Unique(t *testing.T) {
	n := newSheetNamer()
	long := strings.Repeat("b", 31)

	assert.Equal(t, long, n.Reserve(long))
	assert.Equal(t, strings.Repeat("b", 29)+"_2", n.Reserve(long))
	assert.Equal(t, strings.Repeat("b", 29)+"_3", n.Reserve(long))
	assert.Equal(t, "Host", n.Reserve("Host"))
	assert.Equal(t, "host_2", n.Reserve("host"))
}

func TestColumnWidths(t *testing.T) {
	widths := ColumnWidths(hostReport("10.0.0.5", "abc"))
	require.Len(t, widths, len(types.ReportHeaders))
	assert.Equal(t, DisplayWidth("序号")+5, widths[0])
	assert.Equal(t, len("10.0.0.5")+5, widths[1])
	assert.Equal(t, 4, DisplayWidth("漏洞"))
}

func TestPrintSummary(t *testing.T) {
	prev := formatter.ColorsEnabled()
	formatter.SetColorEnabled(false)
	t.Cleanup(func() { formatter.SetColorEnabled(prev) })

	summary := &types.RunSummary{
		Outcomes: []types.FileOutcome{
			{File: "10.0.0.5.xlsx", SheetName: "10.0.0.5", Status: types.StatusWritten, Rows: 1, Dropped: 1, Ports: "445",
				Severity: map[string]int{"中": 1, "高": 2}},
			{File: "bad.xlsx", Status: types.StatusMissingSheet},
		},
	}

	data := SummaryTable(summary)
	require.Len(t, data, 3)
	assert.Equal(t, "已写入", data[1][2])
	assert.Equal(t, "缺少工作表", data[2][2])
	assert.Equal(t, "高 2 中 1", data[1][6])
	assert.Equal(t, "", data[2][6])

	var buf bytes.Buffer
	require.NoError(t, PrintSummary(&buf, summary))
	assert.Contains(t, buf.String(), "共 2 个文件: 写入 1, 跳过 1, 数据行 1")
	assert.NotContains(t, buf.String(), "输出文件")

	summary.Saved = true
	summary.OutputPath = "/tmp/export.xlsx"
	buf.Reset()
	require.NoError(t, PrintSummary(&buf, summary))
	assert.Contains(t, buf.String(), "输出文件: /tmp/export.xlsx")

	formatter.SetColorEnabled(true)
	if runtime.GOOS == "windows" {
		formatter.SetWindowsANSISupported(true)
	}
	buf.Reset()
	require.NoError(t, PrintSummary(&buf, summary))
	assert.Contains(t, buf.String(), "写入 "+formatter.ColorBlue+"1"+formatter.ColorReset)
	assert.Contains(t, buf.String(), formatter.ColorGray+"/tmp/export.xlsx"+formatter.ColorReset)
}

func TestWriteSummaryJSON(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	summary := &types.RunSummary{
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		OutputPath: "/tmp/export.xlsx",
		Saved:      true,
		Outcomes: []types.FileOutcome{
			{File: "a.xlsx", Host: "a", Status: types.StatusWritten, Rows: 3},
			{File: "b.xlsx", Host: "b", Status: types.StatusEmpty, Reason: "没有有效数据"},
		},
	}

	path := filepath.Join(t.TempDir(), "summary.json")
	_, err := WriteSummaryJSON(summary, path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got SummaryResult
	require.NoError(t, json.Unmarshal(data, &got))
	assert.NotEmpty(t, got.RunID)
	assert.Equal(t, int64(1500), got.DurationMs)
	assert.Equal(t, SummaryTotals{Files: 2, Written: 1, Skipped: 1, Rows: 3}, got.Totals)
	assert.Equal(t, types.StatusEmpty, got.Files[1].Status)
}
