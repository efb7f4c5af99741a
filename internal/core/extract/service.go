package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ogurasousui/employee-delta-sync/internal/core/employee"
)

// RowWriter は行の列を CSV ファイルへ書き出す契約です。
type RowWriter interface {
	WriteAll(path string, rows [][]string) error
}

// Config は抽出処理の設定です。ColumnMapping は出力する CSV 列名から
// 論理フィールド名への対応で、ヘッダ行の並びは列名の辞書順に固定します。
type Config struct {
	FileFolder           string
	FileNamePrefix       string
	ColumnMapping        map[string]string
	ReadyToExtractStatus string
	ExtractedStatus      string
}

// Result は 1 回の抽出の結果です。
type Result struct {
	BatchID    string
	OutputFile string
	Count      int
}

// Service は指定ステータスの社員レコードを CSV に書き出し、
// 書き出し後にステータスを抽出済みへ更新します。
type Service struct {
	employees employee.Repository
	writer    RowWriter
	mapper    *employee.FieldMapper
	cfg       Config
	logger    *slog.Logger
}

// NewService は Service を生成します。
func NewService(employees employee.Repository, writer RowWriter, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		employees: employees,
		writer:    writer,
		mapper:    employee.NewFieldMapper("", logger),
		cfg:       cfg,
		logger:    logger,
	}
}

// ExtractToDirectory は抽出対象の社員を 1 ファイルに書き出します。
// 対象が 1 件もないときはファイルを作らず空の結果を返します。
func (s *Service) ExtractToDirectory(ctx context.Context) (Result, error) {
	batchID := uuid.NewString()
	s.logger.Info("starting extract", "batch_id", batchID, "status", s.cfg.ReadyToExtractStatus)

	employees, err := s.employees.FindByStatus(ctx, s.cfg.ReadyToExtractStatus)
	if err != nil {
		return Result{}, fmt.Errorf("find employees by status %q: %w", s.cfg.ReadyToExtractStatus, err)
	}
	if len(employees) == 0 {
		s.logger.Info("no employees ready for extract", "batch_id", batchID)
		return Result{BatchID: batchID}, nil
	}

	if err := os.MkdirAll(s.cfg.FileFolder, 0o755); err != nil {
		return Result{}, fmt.Errorf("create extract folder %s: %w", s.cfg.FileFolder, err)
	}

	header := make([]string, 0, len(s.cfg.ColumnMapping))
	for column := range s.cfg.ColumnMapping {
		header = append(header, column)
	}
	sort.Strings(header)

	rows := make([][]string, 0, len(employees)+1)
	rows = append(rows, header)
	ids := make([]int64, 0, len(employees))
	for _, e := range employees {
		row := make([]string, len(header))
		for i, column := range header {
			row[i] = s.mapper.Get(e, s.cfg.ColumnMapping[column])
		}
		rows = append(rows, row)
		ids = append(ids, e.ID)
	}

	output := filepath.Join(s.cfg.FileFolder,
		fmt.Sprintf("%s%s-%d.csv", s.cfg.FileNamePrefix, batchID, time.Now().UnixMilli()))
	if err := s.writer.WriteAll(output, rows); err != nil {
		return Result{}, fmt.Errorf("write extract file %s: %w", output, err)
	}

	if err := s.employees.UpdateStatuses(ctx, ids, s.cfg.ExtractedStatus); err != nil {
		return Result{}, fmt.Errorf("mark employees extracted: %w", err)
	}

	s.logger.Info("extracted employees", "count", len(employees), "file", output, "batch_id", batchID)
	return Result{BatchID: batchID, OutputFile: output, Count: len(employees)}, nil
}
