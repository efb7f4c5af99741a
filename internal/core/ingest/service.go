package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ogurasousui/employee-delta-sync/internal/core/batch"
	"github.com/ogurasousui/employee-delta-sync/internal/core/delta"
	"github.com/ogurasousui/employee-delta-sync/internal/core/employee"
)

// Row は CSV 1 行分の、列名からセル値への対応です。
type Row map[string]string

// RowSource は CSV ファイルを行の列として読み出す契約です。
type RowSource interface {
	ReadAll(path string) ([]Row, error)
}

// Config は取り込み処理の設定です。ColumnMapping は CSV 列名から
// 論理フィールド名への対応で、対応のない列は無視されます。
type Config struct {
	FileFolder          string
	ProcessedFolder     string
	FileNamePrefix      string
	ColumnMapping       map[string]string
	DefaultStatus       string
	PreferredDateFormat string
}

// Result は 1 ファイル分の取り込み結果です。
type Result struct {
	BatchID string
	Total   int
	New     int
	Updated int
}

// SweepResult はディレクトリ掃引 1 回分の集計です。
type SweepResult struct {
	Files   int
	Failed  int
	Results []Result
}

// Service は取り込みオーケストレータです。1 ファイルにつき 1 バッチを作り、
// 行のマッピング、既存レコードとの重複排除、スナップショット作成、差分検出、
// バッチ確定までを順番に実行します。
//
// エントリポイントは再入不可です。同一バッチのスナップショット作成と
// 差分検出が交錯すると差分結果が壊れるため、実行全体を mutex で直列化します。
type Service struct {
	mu        sync.Mutex
	employees employee.Repository
	deltas    delta.UseCase
	source    RowSource
	mapper    *employee.FieldMapper
	cfg       Config
	logger    *slog.Logger
}

// NewService は Service を生成します。
func NewService(employees employee.Repository, deltas delta.UseCase, source RowSource, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		employees: employees,
		deltas:    deltas,
		source:    source,
		mapper:    employee.NewFieldMapper(cfg.PreferredDateFormat, logger),
		cfg:       cfg,
		logger:    logger,
	}
}

// IngestFile は CSV ファイル 1 件を独立したバッチとして取り込みます。
// 途中で失敗したバッチは FAILED で確定され、エラーが返ります。
func (s *Service) IngestFile(ctx context.Context, path string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingestFileLocked(ctx, path)
}

func (s *Service) ingestFileLocked(ctx context.Context, path string) (Result, error) {
	batchID := uuid.NewString()
	s.logger.Info("processing file", "file", path, "batch_id", batchID)

	if _, err := s.deltas.CreateIngestBatch(ctx, batchID, filepath.Base(path)); err != nil {
		return Result{}, err
	}

	result, err := s.runPipeline(ctx, path, batchID)
	if err != nil {
		msg := err.Error()
		if finErr := s.deltas.FinalizeIngestBatch(ctx, batchID, batch.StatusFailed, result.Total, result.New, 0, &msg); finErr != nil {
			s.logger.Warn("failed to finalize failed batch", "batch_id", batchID, "error", finErr)
		}
		return Result{}, fmt.Errorf("ingest %s: %w", path, err)
	}

	s.moveProcessedFile(path)
	return result, nil
}

func (s *Service) runPipeline(ctx context.Context, path, batchID string) (Result, error) {
	result := Result{BatchID: batchID}

	rows, err := s.source.ReadAll(path)
	if err != nil {
		return result, fmt.Errorf("read csv: %w", err)
	}

	mapped := s.mapRows(rows, batchID)
	result.Total = len(mapped)

	ids := make([]int64, 0, len(mapped))
	for _, e := range mapped {
		ids = append(ids, e.ID)
	}

	existing, err := s.employees.FindByIDs(ctx, ids)
	if err != nil {
		return result, fmt.Errorf("look up existing employees: %w", err)
	}
	existingIDs := make(map[int64]struct{}, len(existing))
	for _, e := range existing {
		existingIDs[e.ID] = struct{}{}
	}

	// 既知の ID は上書きしない。取り込みの合間に下流処理が書き換えた
	// フィールドを潰さないための仕様。
	newEmployees := make([]employee.Employee, 0, len(mapped))
	for _, e := range mapped {
		if _, ok := existingIDs[e.ID]; !ok {
			newEmployees = append(newEmployees, e)
		}
	}

	if len(newEmployees) > 0 {
		if err := s.employees.SaveAll(ctx, newEmployees); err != nil {
			return result, fmt.Errorf("save new employees: %w", err)
		}
		s.logger.Info("ingested new employees", "count", len(newEmployees), "batch_id", batchID)
	}
	if len(existingIDs) > 0 {
		s.logger.Info("skipped existing employees", "count", len(existingIDs), "batch_id", batchID)
	}
	result.New = len(newEmployees)

	// スナップショットは新規・既存を問わず全員分。差分検出が
	// 「このバッチに誰がいたか」を見られるようにするため。
	if err := s.deltas.CreateSnapshots(ctx, mapped, batchID); err != nil {
		return result, err
	}

	if _, err := s.deltas.DetectDeltas(ctx, batchID); err != nil {
		return result, fmt.Errorf("detect deltas: %w", err)
	}

	summary, err := s.deltas.Summary(ctx, batchID)
	if err != nil {
		return result, err
	}
	result.Updated = summary.Updated

	if err := s.deltas.FinalizeIngestBatch(ctx, batchID, batch.StatusCompleted, result.Total, result.New, result.Updated, nil); err != nil {
		return result, err
	}

	return result, nil
}

// mapRows は生の行を型付きレコードへ変換します。自然キーを解釈できない
// 行は重複排除もスナップショットもできないため、警告を残して捨てます。
func (s *Service) mapRows(rows []Row, batchID string) []employee.Employee {
	mapped := make([]employee.Employee, 0, len(rows))
	for _, row := range rows {
		var e employee.Employee
		for column, field := range s.cfg.ColumnMapping {
			raw, ok := row[column]
			if !ok {
				continue
			}
			s.mapper.Set(&e, field, raw, batchID)
		}

		if e.ID == 0 {
			s.logger.Warn("skipping row without a parsable id", "batch_id", batchID)
			continue
		}

		if s.cfg.DefaultStatus != "" {
			e = e.WithStatus(s.cfg.DefaultStatus)
		}
		e = e.WithBatchID(batchID)
		mapped = append(mapped, e)
	}
	return mapped
}

// SweepDirectory は取り込みディレクトリの対象ファイルを順に処理します。
// ファイル単位で失敗を隔離し、1 件の失敗で掃引全体は止めません。
func (s *Service) SweepDirectory(ctx context.Context) (SweepResult, error) {
	if err := os.MkdirAll(s.cfg.ProcessedFolder, 0o755); err != nil {
		return SweepResult{}, fmt.Errorf("create processed folder %s: %w", s.cfg.ProcessedFolder, err)
	}

	entries, err := os.ReadDir(s.cfg.FileFolder)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list ingest folder %s: %w", s.cfg.FileFolder, err)
	}

	var sweep SweepResult
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, s.cfg.FileNamePrefix) || !strings.HasSuffix(name, ".csv") {
			continue
		}

		sweep.Files++
		result, err := s.IngestFile(ctx, filepath.Join(s.cfg.FileFolder, name))
		if err != nil {
			s.logger.Error("file ingest failed", "file", name, "error", err)
			sweep.Failed++
			continue
		}
		sweep.Results = append(sweep.Results, result)
	}

	s.logger.Info("directory sweep completed",
		"folder", s.cfg.FileFolder, "files", sweep.Files, "failed", sweep.Failed)
	return sweep, nil
}

// moveProcessedFile は処理済みファイルをタイムスタンプ付きの名前で
// 退避します。移動の失敗はバッチの成否に影響させません。
func (s *Service) moveProcessedFile(path string) {
	if s.cfg.ProcessedFolder == "" {
		return
	}
	if err := os.MkdirAll(s.cfg.ProcessedFolder, 0o755); err != nil {
		s.logger.Warn("failed to create processed folder", "folder", s.cfg.ProcessedFolder, "error", err)
		return
	}

	name := filepath.Base(path)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	target := filepath.Join(s.cfg.ProcessedFolder, fmt.Sprintf("%s-%d%s", base, time.Now().UnixMilli(), ext))

	if err := os.Rename(path, target); err != nil {
		s.logger.Warn("failed to move processed file", "file", path, "target", target, "error", err)
		return
	}
	s.logger.Info("moved processed file", "target", target)
}
