package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/ogurasousui/employee-delta-sync/internal/core/job"
	pgdb "github.com/ogurasousui/employee-delta-sync/internal/platform/db/postgres"
)

// JobExecutionRepository は PostgreSQL を利用したジョブ実行履歴の実装です。
type JobExecutionRepository struct {
	pool pgdb.Queryer
}

// NewJobExecutionRepository は JobExecutionRepository を生成します。
func NewJobExecutionRepository(pool pgdb.Queryer) *JobExecutionRepository {
	return &JobExecutionRepository{pool: pool}
}

// Save は実行履歴を 1 件登録します。
func (r *JobExecutionRepository) Save(ctx context.Context, e job.Execution) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `
        INSERT INTO job_execution (job_name, started_at, finished_at, status, message)
        VALUES ($1, $2, $3, $4, $5)
    `, e.JobName, e.StartedAt, e.FinishedAt, string(e.Status), e.Message)
	return err
}

// RecentByJob は指定ジョブの履歴を新しい順に最大 limit 件返します。
func (r *JobExecutionRepository) RecentByJob(ctx context.Context, jobName string, limit int) ([]job.Execution, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, job_name, started_at, finished_at, status, message
          FROM job_execution
         WHERE job_name = $1
         ORDER BY started_at DESC, id DESC
         LIMIT $2
    `, jobName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var executions []job.Execution
	for rows.Next() {
		var (
			e       job.Execution
			status  string
			message sql.NullString
			started time.Time
			ended   time.Time
		)
		if err := rows.Scan(&e.ID, &e.JobName, &started, &ended, &status, &message); err != nil {
			return nil, err
		}
		e.StartedAt = started.UTC()
		e.FinishedAt = ended.UTC()
		e.Status = job.Status(status)
		if message.Valid {
			v := message.String
			e.Message = &v
		}
		executions = append(executions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return executions, nil
}
