package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Status はジョブ実行の結果です。
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Execution はスケジュールされたジョブ 1 回分の実行履歴です。
type Execution struct {
	ID         int64
	JobName    string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     Status
	Message    *string
}

// Repository は実行履歴の永続化契約です。
type Repository interface {
	Save(ctx context.Context, e Execution) error
	RecentByJob(ctx context.Context, jobName string, limit int) ([]Execution, error)
}

// Recorder はジョブ関数を包んで実行履歴を記録します。
// panic は回復して失敗として記録します。履歴の保存失敗はジョブの
// 成否に影響させず、警告ログに残すだけです。
type Recorder struct {
	repo   Repository
	logger *slog.Logger
}

// NewRecorder は Recorder を生成します。repo が nil のときは記録せず
// 実行だけ行います。
func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{repo: repo, logger: logger}
}

// Run は fn を実行し、結果を履歴として保存します。fn の返り値をそのまま返します。
func (r *Recorder) Run(ctx context.Context, jobName string, fn func(context.Context) error) error {
	started := time.Now().UTC()
	err := runRecovered(ctx, fn)
	finished := time.Now().UTC()

	execution := Execution{
		JobName:    jobName,
		StartedAt:  started,
		FinishedAt: finished,
		Status:     StatusSuccess,
	}
	if err != nil {
		msg := err.Error()
		execution.Status = StatusFailed
		execution.Message = &msg
	}

	if r.repo != nil {
		if saveErr := r.repo.Save(ctx, execution); saveErr != nil {
			r.logger.Warn("failed to record job execution", "job", jobName, "error", saveErr)
		}
	}
	return err
}

func runRecovered(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("job panicked: %v", v)
		}
	}()
	return fn(ctx)
}
