package scheduler

import (
	"context"
	"testing"

	"github.com/ogurasousui/employee-delta-sync/internal/core/job"
)

func TestScheduler_Register(t *testing.T) {
	t.Parallel()

	s := New(job.NewRecorder(nil, nil), nil)

	err := s.Register(Job{
		Name: "sweep",
		Spec: "*/5 * * * *",
		Run:  func(context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if err := s.Register(Job{
		Name: "hourly",
		Spec: "@hourly",
		Run:  func(context.Context) error { return nil },
	}); err != nil {
		t.Fatalf("Register returned error for descriptor spec: %v", err)
	}
}

func TestScheduler_Register_InvalidSpec(t *testing.T) {
	t.Parallel()

	s := New(job.NewRecorder(nil, nil), nil)

	if err := s.Register(Job{
		Name: "broken",
		Spec: "not a cron spec",
		Run:  func(context.Context) error { return nil },
	}); err == nil {
		t.Fatalf("expected error for invalid cron spec")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s := New(job.NewRecorder(nil, nil), nil)
	s.Start()
	s.Stop()
}
