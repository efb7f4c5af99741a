package delta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/employee-delta-sync/internal/core/batch"
	"github.com/ogurasousui/employee-delta-sync/internal/core/employee"
	"github.com/ogurasousui/employee-delta-sync/internal/core/snapshot"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// comparedFields は差分比較の対象フィールドを固定順で並べたものです。
// ChangedFields と変更サマリの並びはこの順序に従います。
var comparedFields = []string{"name", "age", "status", "dob"}

// Service はバッチ台帳・スナップショット・差分検出のユースケースをまとめます。
type Service struct {
	batches   batch.Registry
	snapshots snapshot.Store
	deltas    Repository
	ignored   map[string]struct{}
	clock     Clock
	tx        TransactionManager
	logger    *slog.Logger
}

// UseCase は差分検出ユースケースの公開インターフェースです。
type UseCase interface {
	CreateIngestBatch(ctx context.Context, batchID, sourceFile string) (*batch.IngestBatch, error)
	FinalizeIngestBatch(ctx context.Context, batchID string, status batch.Status, total, newCount, updated int, errorMessage *string) error
	CreateSnapshots(ctx context.Context, employees []employee.Employee, batchID string) error
	DetectDeltas(ctx context.Context, currentBatchID string) ([]*Delta, error)
	DeltasForBatch(ctx context.Context, batchID string) ([]*Delta, error)
	DeltasForBatchByType(ctx context.Context, batchID string, t Type) ([]*Delta, error)
	Summary(ctx context.Context, batchID string) (Summary, error)
	MostRecentBatch(ctx context.Context) (*batch.IngestBatch, error)
}

// NewService は Service を生成します。ignoredFields は比較から除外する
// フィールド名の集合です。clock / tx / logger は nil のとき既定実装になります。
func NewService(batches batch.Registry, snapshots snapshot.Store, deltas Repository, ignoredFields []string, clock Clock, tx TransactionManager, logger *slog.Logger) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	ignored := make(map[string]struct{}, len(ignoredFields))
	for _, f := range ignoredFields {
		ignored[strings.ToLower(strings.TrimSpace(f))] = struct{}{}
	}

	return &Service{
		batches:   batches,
		snapshots: snapshots,
		deltas:    deltas,
		ignored:   ignored,
		clock:     clock,
		tx:        tx,
		logger:    logger,
	}
}

// CreateIngestBatch は PROCESSING 状態のバッチを台帳に登録します。
func (s *Service) CreateIngestBatch(ctx context.Context, batchID, sourceFile string) (*batch.IngestBatch, error) {
	s.logger.Info("creating ingest batch", "batch_id", batchID, "source_file", sourceFile)

	created, err := s.batches.Create(ctx, batch.IngestBatch{
		BatchID:    batchID,
		IngestedAt: s.clock.Now(),
		SourceFile: sourceFile,
		Status:     batch.StatusProcessing,
	})
	if err != nil {
		return nil, fmt.Errorf("create ingest batch %s: %w", batchID, err)
	}
	return created, nil
}

// FinalizeIngestBatch はバッチの状態と件数を一度だけ確定します。
// 未知のバッチ ID は呼び出し側の二重確定を示すだけなので、警告ログを
// 残して何もしません。
func (s *Service) FinalizeIngestBatch(ctx context.Context, batchID string, status batch.Status, total, newCount, updated int, errorMessage *string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("finalize ingest batch %s: status %s is not terminal", batchID, status)
	}
	s.logger.Info("finalizing ingest batch", "batch_id", batchID, "status", string(status))

	err := s.batches.Finalize(ctx, batchID, status, total, newCount, updated, errorMessage)
	if errors.Is(err, batch.ErrBatchNotFound) {
		s.logger.Warn("batch not found for finalize", "batch_id", batchID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("finalize ingest batch %s: %w", batchID, err)
	}
	return nil
}

// CreateSnapshots はバッチ内の全社員についてスナップショットを保存します。
func (s *Service) CreateSnapshots(ctx context.Context, employees []employee.Employee, batchID string) error {
	if len(employees) == 0 {
		return nil
	}

	now := s.clock.Now()
	snapshots := make([]snapshot.Snapshot, 0, len(employees))
	for _, e := range employees {
		snapshots = append(snapshots, snapshot.FromEmployee(e, batchID, now))
	}

	if err := s.snapshots.SaveAll(ctx, snapshots); err != nil {
		return fmt.Errorf("save %d snapshots for batch %s: %w", len(snapshots), batchID, err)
	}
	s.logger.Info("saved snapshots", "count", len(snapshots), "batch_id", batchID)
	return nil
}

// DetectDeltas は現在バッチと直前の完了バッチのスナップショット集合を
// 比較し、NEW / UPDATED / DELETED の差分を検出して保存します。
// 呼び出し側はバッチ作成とスナップショット保存を先に済ませておく必要があります。
func (s *Service) DetectDeltas(ctx context.Context, currentBatchID string) ([]*Delta, error) {
	var result []*Delta
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		deltas, err := s.detectDeltas(txCtx, currentBatchID)
		if err != nil {
			return err
		}
		result = deltas
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) detectDeltas(ctx context.Context, currentBatchID string) ([]*Delta, error) {
	currentSnapshots, err := s.snapshots.FindByBatchID(ctx, currentBatchID)
	if err != nil {
		return nil, fmt.Errorf("load snapshots for batch %s: %w", currentBatchID, err)
	}
	currentByID := snapshotsByEmployeeID(currentSnapshots)

	currentBatch, err := s.batches.FindByBatchID(ctx, currentBatchID)
	if err != nil {
		return nil, fmt.Errorf("resolve batch %s: %w", currentBatchID, err)
	}

	previousBatch, err := s.batches.MostRecentCompletedBefore(ctx, currentBatch.IngestedAt)
	if errors.Is(err, batch.ErrBatchNotFound) {
		// 初回バッチ。全員を NEW として扱う。
		s.logger.Info("no previous batch found, marking all employees as new",
			"batch_id", currentBatchID, "count", len(currentSnapshots))
		deltas := make([]*Delta, 0, len(currentByID))
		for _, id := range sortedIDs(currentByID) {
			deltas = append(deltas, s.newDelta(currentByID[id], currentBatchID, nil))
		}
		return deltas, s.saveDeltas(ctx, currentBatchID, deltas)
	}
	if err != nil {
		return nil, fmt.Errorf("find previous batch before %s: %w", currentBatch.IngestedAt, err)
	}

	s.logger.Info("comparing with previous batch",
		"batch_id", currentBatchID, "previous_batch_id", previousBatch.BatchID)

	previousSnapshots, err := s.snapshots.FindByBatchID(ctx, previousBatch.BatchID)
	if err != nil {
		return nil, fmt.Errorf("load snapshots for batch %s: %w", previousBatch.BatchID, err)
	}
	previousByID := snapshotsByEmployeeID(previousSnapshots)

	var deltas []*Delta

	for _, id := range sortedIDs(currentByID) {
		if _, ok := previousByID[id]; !ok {
			deltas = append(deltas, s.newDelta(currentByID[id], currentBatchID, &previousBatch.BatchID))
		}
	}

	for _, id := range sortedIDs(previousByID) {
		if _, ok := currentByID[id]; !ok {
			deltas = append(deltas, s.deletedDelta(previousByID[id], currentBatchID, &previousBatch.BatchID))
		}
	}

	for _, id := range sortedIDs(currentByID) {
		previous, ok := previousByID[id]
		if !ok {
			continue
		}
		if d := s.updatedDelta(currentByID[id], previous, currentBatchID, &previousBatch.BatchID); d != nil {
			deltas = append(deltas, d)
		}
	}

	return deltas, s.saveDeltas(ctx, currentBatchID, deltas)
}

// saveDeltas は検出結果を一括保存します。空のときはストアを呼びません。
func (s *Service) saveDeltas(ctx context.Context, batchID string, deltas []*Delta) error {
	if len(deltas) == 0 {
		s.logger.Info("no deltas detected", "batch_id", batchID)
		return nil
	}

	if err := s.deltas.SaveAll(ctx, deltas); err != nil {
		return fmt.Errorf("save %d deltas for batch %s: %w", len(deltas), batchID, err)
	}

	counts := map[Type]int{}
	for _, d := range deltas {
		counts[d.Type]++
	}
	s.logger.Info("detected and saved deltas", "batch_id", batchID, "total", len(deltas),
		"new", counts[TypeNew], "updated", counts[TypeUpdated], "deleted", counts[TypeDeleted])
	return nil
}

func (s *Service) newDelta(current snapshot.Snapshot, currentBatchID string, previousBatchID *string) *Delta {
	return &Delta{
		EmployeeID:      current.EmployeeID,
		BatchID:         currentBatchID,
		PreviousBatchID: cloneStringPtr(previousBatchID),
		Type:            TypeNew,
		DetectedAt:      s.clock.Now(),
		CurrentName:     current.Name,
		CurrentAge:      current.Age,
		CurrentStatus:   current.Status,
		CurrentDOB:      current.DOB,
		ChangeSummary: fmt.Sprintf("New employee added: %s (ID: %d)",
			stringOrEmpty(current.Name), current.EmployeeID),
	}
}

func (s *Service) deletedDelta(previous snapshot.Snapshot, currentBatchID string, previousBatchID *string) *Delta {
	return &Delta{
		EmployeeID:      previous.EmployeeID,
		BatchID:         currentBatchID,
		PreviousBatchID: cloneStringPtr(previousBatchID),
		Type:            TypeDeleted,
		DetectedAt:      s.clock.Now(),
		PreviousName:    previous.Name,
		PreviousAge:     previous.Age,
		PreviousStatus:  previous.Status,
		PreviousDOB:     previous.DOB,
		ChangeSummary: fmt.Sprintf("Employee deleted: %s (ID: %d)",
			stringOrEmpty(previous.Name), previous.EmployeeID),
	}
}

// updatedDelta は比較対象フィールドをフィールド単位で突き合わせ、
// 差分がなければ nil を返します。nil 同士は等しいものとして扱います。
func (s *Service) updatedDelta(current, previous snapshot.Snapshot, currentBatchID string, previousBatchID *string) *Delta {
	var changed []string
	var summaryParts []string

	for _, field := range comparedFields {
		if _, skip := s.ignored[field]; skip {
			continue
		}

		switch field {
		case "name":
			if !equalStringPtr(current.Name, previous.Name) {
				changed = append(changed, field)
				summaryParts = append(summaryParts, fmt.Sprintf("name: %s -> %s",
					fmtStringPtr(previous.Name), fmtStringPtr(current.Name)))
			}
		case "age":
			if !equalIntPtr(current.Age, previous.Age) {
				changed = append(changed, field)
				summaryParts = append(summaryParts, fmt.Sprintf("age: %s -> %s",
					fmtIntPtr(previous.Age), fmtIntPtr(current.Age)))
			}
		case "status":
			if !equalStringPtr(current.Status, previous.Status) {
				changed = append(changed, field)
				summaryParts = append(summaryParts, fmt.Sprintf("status: %s -> %s",
					fmtStringPtr(previous.Status), fmtStringPtr(current.Status)))
			}
		case "dob":
			if !equalTimePtr(current.DOB, previous.DOB) {
				changed = append(changed, field)
				summaryParts = append(summaryParts, fmt.Sprintf("dob: %s -> %s",
					fmtDatePtr(previous.DOB), fmtDatePtr(current.DOB)))
			}
		}
	}

	if len(changed) == 0 {
		return nil
	}

	return &Delta{
		EmployeeID:      current.EmployeeID,
		BatchID:         currentBatchID,
		PreviousBatchID: cloneStringPtr(previousBatchID),
		Type:            TypeUpdated,
		DetectedAt:      s.clock.Now(),
		PreviousName:    previous.Name,
		PreviousAge:     previous.Age,
		PreviousStatus:  previous.Status,
		PreviousDOB:     previous.DOB,
		CurrentName:     current.Name,
		CurrentAge:      current.Age,
		CurrentStatus:   current.Status,
		CurrentDOB:      current.DOB,
		ChangedFields:   changed,
		ChangeSummary: fmt.Sprintf("Employee updated: %s (ID: %d) - %s",
			stringOrEmpty(current.Name), current.EmployeeID, strings.Join(summaryParts, ", ")),
	}
}

// DeltasForBatch はバッチの差分を全件取得します。
func (s *Service) DeltasForBatch(ctx context.Context, batchID string) ([]*Delta, error) {
	var result []*Delta
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		deltas, err := s.deltas.FindByBatchID(txCtx, batchID)
		if err != nil {
			return err
		}
		result = deltas
		return nil
	})
	return result, err
}

// DeltasForBatchByType はバッチの差分を種別で絞り込んで取得します。
func (s *Service) DeltasForBatchByType(ctx context.Context, batchID string, t Type) ([]*Delta, error) {
	var result []*Delta
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		deltas, err := s.deltas.FindByBatchIDAndType(txCtx, batchID, t)
		if err != nil {
			return err
		}
		result = deltas
		return nil
	})
	return result, err
}

// Summary はバッチの差分種別ごとの件数を返します。
func (s *Service) Summary(ctx context.Context, batchID string) (Summary, error) {
	counts, err := s.deltas.CountByTypeForBatch(ctx, batchID)
	if err != nil {
		return Summary{}, fmt.Errorf("count deltas for batch %s: %w", batchID, err)
	}
	return Summary{
		BatchID: batchID,
		New:     counts[TypeNew],
		Updated: counts[TypeUpdated],
		Deleted: counts[TypeDeleted],
	}, nil
}

// MostRecentBatch は直近の完了バッチを返します。
func (s *Service) MostRecentBatch(ctx context.Context) (*batch.IngestBatch, error) {
	return s.batches.MostRecentCompleted(ctx)
}

func snapshotsByEmployeeID(snapshots []snapshot.Snapshot) map[int64]snapshot.Snapshot {
	m := make(map[int64]snapshot.Snapshot, len(snapshots))
	for _, snap := range snapshots {
		m[snap.EmployeeID] = snap
	}
	return m
}

func sortedIDs(m map[int64]snapshot.Snapshot) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func fmtStringPtr(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

func fmtIntPtr(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func fmtDatePtr(v *time.Time) string {
	if v == nil {
		return "-"
	}
	return v.Format("2006-01-02")
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func cloneStringPtr(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
