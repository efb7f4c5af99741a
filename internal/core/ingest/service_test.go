package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ogurasousui/employee-delta-sync/internal/core/batch"
	"github.com/ogurasousui/employee-delta-sync/internal/core/delta"
	"github.com/ogurasousui/employee-delta-sync/internal/core/employee"
)

type fakeEmployeeRepo struct {
	employees map[int64]employee.Employee
	saved     []employee.Employee
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{employees: make(map[int64]employee.Employee)}
}

func (r *fakeEmployeeRepo) FindByIDs(_ context.Context, ids []int64) ([]employee.Employee, error) {
	var found []employee.Employee
	for _, id := range ids {
		if e, ok := r.employees[id]; ok {
			found = append(found, e)
		}
	}
	return found, nil
}

func (r *fakeEmployeeRepo) SaveAll(_ context.Context, employees []employee.Employee) error {
	for _, e := range employees {
		if _, ok := r.employees[e.ID]; ok {
			return employee.ErrEmployeeExists
		}
		r.employees[e.ID] = e
		r.saved = append(r.saved, e)
	}
	return nil
}

func (r *fakeEmployeeRepo) FindByStatus(_ context.Context, status string) ([]employee.Employee, error) {
	var found []employee.Employee
	for _, e := range r.employees {
		if e.Status != nil && *e.Status == status {
			found = append(found, e)
		}
	}
	return found, nil
}

func (r *fakeEmployeeRepo) UpdateStatuses(_ context.Context, ids []int64, status string) error {
	for _, id := range ids {
		e, ok := r.employees[id]
		if !ok {
			continue
		}
		r.employees[id] = e.WithStatus(status)
	}
	return nil
}

type finalizeCall struct {
	batchID      string
	status       batch.Status
	total        int
	newCount     int
	updated      int
	errorMessage *string
}

type fakeDeltaUseCase struct {
	created     []string
	finalized   []finalizeCall
	snapshots   map[string][]employee.Employee
	detectCalls []string
	detectErr   error
	summary     delta.Summary
}

func newFakeDeltaUseCase() *fakeDeltaUseCase {
	return &fakeDeltaUseCase{snapshots: make(map[string][]employee.Employee)}
}

func (f *fakeDeltaUseCase) CreateIngestBatch(_ context.Context, batchID, sourceFile string) (*batch.IngestBatch, error) {
	f.created = append(f.created, batchID)
	return &batch.IngestBatch{BatchID: batchID, SourceFile: sourceFile, Status: batch.StatusProcessing}, nil
}

func (f *fakeDeltaUseCase) FinalizeIngestBatch(_ context.Context, batchID string, status batch.Status, total, newCount, updated int, errorMessage *string) error {
	f.finalized = append(f.finalized, finalizeCall{
		batchID:      batchID,
		status:       status,
		total:        total,
		newCount:     newCount,
		updated:      updated,
		errorMessage: errorMessage,
	})
	return nil
}

func (f *fakeDeltaUseCase) CreateSnapshots(_ context.Context, employees []employee.Employee, batchID string) error {
	f.snapshots[batchID] = append(f.snapshots[batchID], employees...)
	return nil
}

func (f *fakeDeltaUseCase) DetectDeltas(_ context.Context, currentBatchID string) ([]*delta.Delta, error) {
	f.detectCalls = append(f.detectCalls, currentBatchID)
	return nil, f.detectErr
}

func (f *fakeDeltaUseCase) DeltasForBatch(_ context.Context, _ string) ([]*delta.Delta, error) {
	return nil, nil
}

func (f *fakeDeltaUseCase) DeltasForBatchByType(_ context.Context, _ string, _ delta.Type) ([]*delta.Delta, error) {
	return nil, nil
}

func (f *fakeDeltaUseCase) Summary(_ context.Context, batchID string) (delta.Summary, error) {
	summary := f.summary
	summary.BatchID = batchID
	return summary, nil
}

func (f *fakeDeltaUseCase) MostRecentBatch(_ context.Context) (*batch.IngestBatch, error) {
	return nil, batch.ErrBatchNotFound
}

type stubRowSource struct {
	rows map[string][]Row
	errs map[string]error
}

func (s *stubRowSource) ReadAll(path string) ([]Row, error) {
	name := filepath.Base(path)
	if err, ok := s.errs[name]; ok {
		return nil, err
	}
	return s.rows[name], nil
}

func testConfig() Config {
	return Config{
		FileFolder:     "data/ingest",
		FileNamePrefix: "employee-",
		ColumnMapping: map[string]string{
			"Employee ID":   "id",
			"Full Name":     "name",
			"Age":           "age",
			"Date of Birth": "dob",
		},
		DefaultStatus: "READY_FOR_EXTRACT",
	}
}

func TestService_IngestFile_DeduplicatesAndFinalizes(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	existing := "Suzuki"
	repo.employees[2] = employee.Employee{ID: 2, Name: &existing, BatchID: "old-batch"}

	deltas := newFakeDeltaUseCase()
	deltas.summary = delta.Summary{New: 2, Updated: 1}

	source := &stubRowSource{rows: map[string][]Row{
		"employee-1.csv": {
			{"Employee ID": "1", "Full Name": "Yamada", "Age": "30", "Date of Birth": "1995-04-01"},
			{"Employee ID": "2", "Full Name": "Suzuki Updated"},
			{"Employee ID": "3", "Full Name": "Tanaka"},
		},
	}}

	svc := NewService(repo, deltas, source, testConfig(), nil)

	result, err := svc.IngestFile(context.Background(), "data/ingest/employee-1.csv")
	if err != nil {
		t.Fatalf("IngestFile returned error: %v", err)
	}

	if result.Total != 3 || result.New != 2 || result.Updated != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.BatchID == "" {
		t.Fatalf("expected a generated batch id")
	}

	// 既存 ID の行は保存されない。
	if len(repo.saved) != 2 {
		t.Fatalf("expected 2 new employees saved, got %d", len(repo.saved))
	}
	for _, e := range repo.saved {
		if e.ID == 2 {
			t.Fatalf("existing employee must not be overwritten")
		}
		if e.Status == nil || *e.Status != "READY_FOR_EXTRACT" {
			t.Fatalf("expected default status, got %+v", e.Status)
		}
		if e.BatchID != result.BatchID {
			t.Fatalf("expected employee tagged with batch id %s, got %s", result.BatchID, e.BatchID)
		}
	}

	// スナップショットは既存 ID も含めて全行分。
	if len(deltas.snapshots[result.BatchID]) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(deltas.snapshots[result.BatchID]))
	}
	if len(deltas.detectCalls) != 1 || deltas.detectCalls[0] != result.BatchID {
		t.Fatalf("expected delta detection for batch %s, got %v", result.BatchID, deltas.detectCalls)
	}

	if len(deltas.finalized) != 1 {
		t.Fatalf("expected a single finalize call, got %d", len(deltas.finalized))
	}
	final := deltas.finalized[0]
	if final.status != batch.StatusCompleted || final.total != 3 || final.newCount != 2 || final.updated != 1 {
		t.Fatalf("unexpected finalize call: %+v", final)
	}
	if final.errorMessage != nil {
		t.Fatalf("expected nil error message on success, got %s", *final.errorMessage)
	}
}

func TestService_IngestFile_SkipsRowsWithoutID(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	deltas := newFakeDeltaUseCase()
	source := &stubRowSource{rows: map[string][]Row{
		"employee-1.csv": {
			{"Employee ID": "1", "Full Name": "Yamada"},
			{"Full Name": "No ID"},
			{"Employee ID": "abc", "Full Name": "Bad ID"},
		},
	}}

	svc := NewService(repo, deltas, source, testConfig(), nil)

	result, err := svc.IngestFile(context.Background(), "data/ingest/employee-1.csv")
	if err != nil {
		t.Fatalf("IngestFile returned error: %v", err)
	}
	if result.Total != 1 || result.New != 1 {
		t.Fatalf("expected only the valid row to be ingested, got %+v", result)
	}
}

func TestService_IngestFile_FailureFinalizesBatchAsFailed(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	deltas := newFakeDeltaUseCase()
	deltas.detectErr = errors.New("comparison blew up")
	source := &stubRowSource{rows: map[string][]Row{
		"employee-1.csv": {
			{"Employee ID": "1", "Full Name": "Yamada"},
		},
	}}

	svc := NewService(repo, deltas, source, testConfig(), nil)

	if _, err := svc.IngestFile(context.Background(), "data/ingest/employee-1.csv"); err == nil {
		t.Fatalf("expected error from failing delta detection")
	}

	if len(deltas.finalized) != 1 {
		t.Fatalf("expected a finalize call, got %d", len(deltas.finalized))
	}
	final := deltas.finalized[0]
	if final.status != batch.StatusFailed {
		t.Fatalf("expected FAILED status, got %s", final.status)
	}
	if final.errorMessage == nil {
		t.Fatalf("expected error message on failed batch")
	}
}

func TestService_IngestFile_ReadErrorFailsBatch(t *testing.T) {
	t.Parallel()

	deltas := newFakeDeltaUseCase()
	source := &stubRowSource{errs: map[string]error{
		"employee-1.csv": errors.New("broken file"),
	}}

	svc := NewService(newFakeEmployeeRepo(), deltas, source, testConfig(), nil)

	if _, err := svc.IngestFile(context.Background(), "data/ingest/employee-1.csv"); err == nil {
		t.Fatalf("expected error from failing read")
	}
	if len(deltas.finalized) != 1 || deltas.finalized[0].status != batch.StatusFailed {
		t.Fatalf("expected batch finalized as FAILED, got %+v", deltas.finalized)
	}
}

func TestService_SweepDirectory_IsolatesFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"employee-a.csv", "employee-b.csv", "employee-c.txt", "other.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write test file: %v", err)
		}
	}

	deltas := newFakeDeltaUseCase()
	source := &stubRowSource{
		rows: map[string][]Row{
			"employee-b.csv": {{"Employee ID": "1", "Full Name": "Yamada"}},
		},
		errs: map[string]error{
			"employee-a.csv": errors.New("unreadable"),
		},
	}

	cfg := testConfig()
	cfg.FileFolder = dir
	cfg.ProcessedFolder = filepath.Join(dir, "processed")
	svc := NewService(newFakeEmployeeRepo(), deltas, source, cfg, nil)

	sweep, err := svc.SweepDirectory(context.Background())
	if err != nil {
		t.Fatalf("SweepDirectory returned error: %v", err)
	}

	// プレフィックスと拡張子に一致する 2 ファイルだけが対象になる。
	if sweep.Files != 2 || sweep.Failed != 1 || len(sweep.Results) != 1 {
		t.Fatalf("unexpected sweep result: %+v", sweep)
	}

	// 成功したファイルは退避され、失敗したファイルは残る。
	if _, err := os.Stat(filepath.Join(dir, "employee-b.csv")); !os.IsNotExist(err) {
		t.Fatalf("expected successful file to be moved away")
	}
	if _, err := os.Stat(filepath.Join(dir, "employee-a.csv")); err != nil {
		t.Fatalf("expected failed file to stay in place: %v", err)
	}

	processed, err := os.ReadDir(cfg.ProcessedFolder)
	if err != nil {
		t.Fatalf("read processed folder: %v", err)
	}
	if len(processed) != 1 {
		t.Fatalf("expected 1 processed file, got %d", len(processed))
	}
}
