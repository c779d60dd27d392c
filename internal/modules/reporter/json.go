package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vulnmerge/internal/core/logger"
	"vulnmerge/internal/core/types"

	uuid "github.com/satori/go.uuid"
)

// SummaryResult JSON 运行摘要
type SummaryResult struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	DurationMs int64               `json:"duration_ms"`
	OutputPath string              `json:"output_path"`
	Saved      bool                `json:"saved"`
	Totals     SummaryTotals       `json:"totals"`
	Files      []types.FileOutcome `json:"files"`
}

// SummaryTotals 汇总计数
type SummaryTotals struct {
	Files   int `json:"files"`
	Written int `json:"written"`
	Skipped int `json:"skipped"`
	Rows    int `json:"rows"`
}

// BuildSummary 由运行结果生成摘要
func BuildSummary(summary *types.RunSummary) *SummaryResult {
	files := summary.Outcomes
	if files == nil {
		files = []types.FileOutcome{}
	}
	return &SummaryResult{
		RunID:      uuid.NewV4().String(),
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		DurationMs: summary.FinishedAt.Sub(summary.StartedAt).Milliseconds(),
		OutputPath: summary.OutputPath,
		Saved:      summary.Saved,
		Totals: SummaryTotals{
			Files:   len(summary.Outcomes),
			Written: summary.Count(types.StatusWritten),
			Skipped: summary.Skipped(),
			Rows:    summary.TotalRows(),
		},
		Files: files,
	}
}

// WriteSummaryJSON 保存运行摘要
func WriteSummaryJSON(summary *types.RunSummary, outputPath string) (string, error) {
	if summary == nil {
		return "", fmt.Errorf("运行结果为空")
	}

	data, err := json.MarshalIndent(BuildSummary(summary), "", "  ")
	if err != nil {
		return "", fmt.Errorf("JSON序列化失败: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return "", fmt.Errorf("写入JSON文件失败: %w", err)
	}

	logger.Debugf("JSON摘要已生成: %s", outputPath)
	return outputPath, nil
}
