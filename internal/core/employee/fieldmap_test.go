package employee

import (
	"testing"
	"time"
)

func TestFieldMapper_SetTypedFields(t *testing.T) {
	t.Parallel()

	m := NewFieldMapper("", nil)
	var e Employee

	m.Set(&e, "id", "42", "batch-1")
	m.Set(&e, "name", "  Yamada  ", "batch-1")
	m.Set(&e, "age", "30", "batch-1")
	m.Set(&e, "status", "ACTIVE", "batch-1")
	m.Set(&e, "dob", "1995-04-01", "batch-1")

	if e.ID != 42 {
		t.Fatalf("expected id 42, got %d", e.ID)
	}
	if e.Name == nil || *e.Name != "Yamada" {
		t.Fatalf("expected trimmed name, got %+v", e.Name)
	}
	if e.Age == nil || *e.Age != 30 {
		t.Fatalf("expected age 30, got %+v", e.Age)
	}
	if e.Status == nil || *e.Status != "ACTIVE" {
		t.Fatalf("expected status ACTIVE, got %+v", e.Status)
	}
	want := time.Date(1995, 4, 1, 0, 0, 0, 0, time.UTC)
	if e.DOB == nil || !e.DOB.Equal(want) {
		t.Fatalf("expected dob %s, got %+v", want, e.DOB)
	}
}

func TestFieldMapper_SetInvalidValuesLeaveFieldUnset(t *testing.T) {
	t.Parallel()

	m := NewFieldMapper("", nil)
	var e Employee

	m.Set(&e, "id", "not-a-number", "batch-1")
	m.Set(&e, "age", "thirty", "batch-1")
	m.Set(&e, "dob", "someday", "batch-1")
	m.Set(&e, "name", "   ", "batch-1")

	if e.ID != 0 || e.Age != nil || e.DOB != nil || e.Name != nil {
		t.Fatalf("expected all fields unset, got %+v", e)
	}
}

func TestFieldMapper_SetUnknownAndReadOnlyFields(t *testing.T) {
	t.Parallel()

	m := NewFieldMapper("", nil)
	var e Employee

	// 未知のフィールドと抽出専用フィールドは設定されない。
	m.Set(&e, "salary", "100", "batch-1")
	m.Set(&e, "transaction_id", "7", "batch-1")
	m.Set(&e, "batch_id", "other-batch", "batch-1")

	if e.TransactionID != 0 || e.BatchID != "" {
		t.Fatalf("expected read-only fields unchanged, got %+v", e)
	}
}

func TestFieldMapper_Get(t *testing.T) {
	t.Parallel()

	m := NewFieldMapper("", nil)
	name := "Yamada"
	age := 30
	dob := time.Date(1995, 4, 1, 0, 0, 0, 0, time.UTC)
	e := Employee{
		ID:            42,
		Name:          &name,
		Age:           &age,
		DOB:           &dob,
		BatchID:       "batch-1",
		TransactionID: 7,
		CreatedAt:     time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	cases := map[string]string{
		"id":             "42",
		"name":           "Yamada",
		"age":            "30",
		"status":         "",
		"dob":            "1995-04-01",
		"batch_id":       "batch-1",
		"batchId":        "batch-1",
		"transaction_id": "7",
		"created_date":   "2025-03-01",
		"unknown":        "",
	}
	for field, want := range cases {
		if got := m.Get(e, field); got != want {
			t.Fatalf("Get(%q) = %q, want %q", field, got, want)
		}
	}
}

func TestFieldMapper_PreferredDateFormat(t *testing.T) {
	t.Parallel()

	m := NewFieldMapper("02/01/2006", nil)
	var e Employee

	m.Set(&e, "dob", "03/04/1990", "batch-1")

	want := time.Date(1990, 4, 3, 0, 0, 0, 0, time.UTC)
	if e.DOB == nil || !e.DOB.Equal(want) {
		t.Fatalf("expected preferred layout to win, got %+v", e.DOB)
	}
}

func TestKnownField(t *testing.T) {
	t.Parallel()

	for _, field := range []string{"id", "name", "age", "status", "dob", "batch_id", "BatchId"} {
		if !KnownField(field) {
			t.Fatalf("expected %q to be known", field)
		}
	}
	if KnownField("salary") {
		t.Fatalf("expected salary to be unknown")
	}
}
