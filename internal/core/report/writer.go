package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/employee-delta-sync/internal/core/batch"
	"github.com/ogurasousui/employee-delta-sync/internal/core/delta"
)

// RowWriter は行の列を CSV ファイルへ書き出す契約です。
type RowWriter interface {
	WriteAll(path string, rows [][]string) error
}

// Config はレポート出力の設定です。
type Config struct {
	Enabled         bool
	OutputDirectory string
	FileNamePrefix  string
	Detailed        bool
}

// Result は 1 回のレポート生成の結果です。
type Result struct {
	BatchID     string
	SummaryFile string
	DetailFile  string
}

// Writer は直近の完了バッチの差分サマリとレポートを書き出します。
type Writer struct {
	deltas delta.UseCase
	writer RowWriter
	cfg    Config
	logger *slog.Logger
}

// NewWriter は Writer を生成します。
func NewWriter(deltas delta.UseCase, writer RowWriter, cfg Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{deltas: deltas, writer: writer, cfg: cfg, logger: logger}
}

// WriteLatest は直近の完了バッチについてレポートを生成します。
// レポートが無効、または完了バッチが存在しない場合は何も書きません。
func (w *Writer) WriteLatest(ctx context.Context) (Result, error) {
	if !w.cfg.Enabled {
		return Result{}, nil
	}

	latest, err := w.deltas.MostRecentBatch(ctx)
	if errors.Is(err, batch.ErrBatchNotFound) {
		w.logger.Info("no completed batch, skipping delta report")
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("resolve latest batch: %w", err)
	}

	return w.WriteForBatch(ctx, latest.BatchID)
}

// WriteForBatch は指定バッチのサマリ (と設定によっては明細) を書き出します。
func (w *Writer) WriteForBatch(ctx context.Context, batchID string) (Result, error) {
	if err := os.MkdirAll(w.cfg.OutputDirectory, 0o755); err != nil {
		return Result{}, fmt.Errorf("create report directory %s: %w", w.cfg.OutputDirectory, err)
	}

	summary, err := w.deltas.Summary(ctx, batchID)
	if err != nil {
		return Result{}, err
	}

	stamp := time.Now().UnixMilli()
	result := Result{BatchID: batchID}

	summaryRows := [][]string{
		{"batch_id", "new", "updated", "deleted", "total"},
		{
			batchID,
			strconv.Itoa(summary.New),
			strconv.Itoa(summary.Updated),
			strconv.Itoa(summary.Deleted),
			strconv.Itoa(summary.Total()),
		},
	}
	result.SummaryFile = filepath.Join(w.cfg.OutputDirectory,
		fmt.Sprintf("%ssummary-%s-%d.csv", w.cfg.FileNamePrefix, batchID, stamp))
	if err := w.writer.WriteAll(result.SummaryFile, summaryRows); err != nil {
		return Result{}, fmt.Errorf("write summary report: %w", err)
	}

	if w.cfg.Detailed {
		deltas, err := w.deltas.DeltasForBatch(ctx, batchID)
		if err != nil {
			return Result{}, err
		}
		result.DetailFile = filepath.Join(w.cfg.OutputDirectory,
			fmt.Sprintf("%sdetail-%s-%d.csv", w.cfg.FileNamePrefix, batchID, stamp))
		if err := w.writer.WriteAll(result.DetailFile, detailRows(deltas)); err != nil {
			return Result{}, fmt.Errorf("write detail report: %w", err)
		}
	}

	w.logger.Info("delta report written", "batch_id", batchID,
		"summary_file", result.SummaryFile, "detail_file", result.DetailFile)
	return result, nil
}

func detailRows(deltas []*delta.Delta) [][]string {
	rows := make([][]string, 0, len(deltas)+1)
	rows = append(rows, []string{
		"employee_id", "delta_type", "previous_batch_id", "changed_fields", "change_summary",
	})
	for _, d := range deltas {
		previousBatch := ""
		if d.PreviousBatchID != nil {
			previousBatch = *d.PreviousBatchID
		}
		rows = append(rows, []string{
			strconv.FormatInt(d.EmployeeID, 10),
			string(d.Type),
			previousBatch,
			strings.Join(d.ChangedFields, "|"),
			d.ChangeSummary,
		})
	}
	return rows
}
