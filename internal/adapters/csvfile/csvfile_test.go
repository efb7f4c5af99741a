package csvfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReader_ReadAll(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "employee-1.csv")
	content := "Employee ID,Full Name,Age\n1, Yamada,30\n2,Suzuki\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	rows, err := NewReader().ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["Employee ID"] != "1" || rows[0]["Full Name"] != "Yamada" || rows[0]["Age"] != "30" {
		t.Fatalf("unexpected first row: %v", rows[0])
	}

	// ヘッダより短い行では欠けた列が存在しない。
	if _, ok := rows[1]["Age"]; ok {
		t.Fatalf("expected missing cell to be absent, got %v", rows[1])
	}
	if rows[1]["Employee ID"] != "2" {
		t.Fatalf("unexpected second row: %v", rows[1])
	}
}

func TestReader_ReadAll_EmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	rows, err := NewReader().ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestReader_ReadAll_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := NewReader().ReadAll(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestWriter_WriteAll_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	rows := [][]string{
		{"Employee ID", "Full Name"},
		{"1", "Yamada, Taro"},
	}
	if err := NewWriter().WriteAll(path, rows); err != nil {
		t.Fatalf("WriteAll returned error: %v", err)
	}

	read, err := NewReader().ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if len(read) != 1 {
		t.Fatalf("expected 1 row, got %d", len(read))
	}
	if read[0]["Full Name"] != "Yamada, Taro" {
		t.Fatalf("expected quoted comma to survive, got %q", read[0]["Full Name"])
	}
}
