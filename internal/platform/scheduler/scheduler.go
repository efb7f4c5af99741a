package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/ogurasousui/employee-delta-sync/internal/core/job"
)

// Job は定期実行される処理 1 件分です。Spec は 5 フィールドの cron 式
// または @hourly のような記述子です。
type Job struct {
	Name string
	Spec string
	Run  func(context.Context) error
}

// Scheduler は cron 式に従ってジョブを起動し、実行のたびに履歴を記録します。
// ジョブ内の panic は Recorder が回復するため、スケジューラは落ちません。
type Scheduler struct {
	cron     *cron.Cron
	recorder *job.Recorder
	logger   *slog.Logger
}

// New は Scheduler を生成します。
func New(recorder *job.Recorder, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:     cron.New(),
		recorder: recorder,
		logger:   logger,
	}
}

// Register はジョブを登録します。cron 式が不正な場合はエラーを返します。
func (s *Scheduler) Register(j Job) error {
	if _, err := s.cron.AddFunc(j.Spec, func() {
		if err := s.recorder.Run(context.Background(), j.Name, j.Run); err != nil {
			s.logger.Error("scheduled job failed", "job", j.Name, "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduler: register %s: %w", j.Name, err)
	}

	s.logger.Info("scheduled job registered", "job", j.Name, "spec", j.Spec)
	return nil
}

// Start はスケジューラを開始します。
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop は新規起動を止め、実行中のジョブの完了を待ちます。
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
