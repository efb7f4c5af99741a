package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ogurasousui/employee-delta-sync/internal/adapters/csvfile"
	"github.com/ogurasousui/employee-delta-sync/internal/adapters/repository/postgres"
	"github.com/ogurasousui/employee-delta-sync/internal/core/delta"
	"github.com/ogurasousui/employee-delta-sync/internal/core/extract"
	"github.com/ogurasousui/employee-delta-sync/internal/core/ingest"
	"github.com/ogurasousui/employee-delta-sync/internal/core/job"
	"github.com/ogurasousui/employee-delta-sync/internal/core/report"
	"github.com/ogurasousui/employee-delta-sync/internal/platform/config"
	pg "github.com/ogurasousui/employee-delta-sync/internal/platform/db/postgres"
)

// app はコマンドが共有する依存一式です。
type app struct {
	cfg    *config.Config
	pool   *pgxpool.Pool
	logger *slog.Logger

	deltas   delta.UseCase
	ingest   *ingest.Service
	extract  *extract.Service
	report   *report.Writer
	recorder *job.Recorder
}

// newApp は設定を読み、DB 接続とサービス群を組み立てます。
func newApp(ctx context.Context, configPath string) (*app, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(effectiveConfigPath(configPath))
	if err != nil {
		return nil, err
	}

	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("initialize database pool: %w", err)
	}

	txm := pg.NewTransactionManager(pool)
	employeeRepo := postgres.NewEmployeeRepository(pool)
	batchRegistry := postgres.NewBatchRegistry(pool)
	snapshotStore := postgres.NewSnapshotStore(pool)
	deltaRepo := postgres.NewDeltaRepository(pool)
	jobRepo := postgres.NewJobExecutionRepository(pool)

	deltaSvc := delta.NewService(batchRegistry, snapshotStore, deltaRepo, cfg.Delta.IgnoredFields, nil, txm, logger)

	ingestSvc := ingest.NewService(employeeRepo, deltaSvc, csvfile.NewReader(), ingest.Config{
		FileFolder:          cfg.Ingest.FileFolder,
		ProcessedFolder:     cfg.Ingest.ProcessedFolder,
		FileNamePrefix:      cfg.Ingest.FileNamePrefix,
		ColumnMapping:       cfg.Ingest.ColumnMapping,
		DefaultStatus:       cfg.Ingest.DefaultStatus,
		PreferredDateFormat: cfg.Ingest.PreferredDateFormat,
	}, logger)

	extractSvc := extract.NewService(employeeRepo, csvfile.NewWriter(), extract.Config{
		FileFolder:           cfg.Extract.FileFolder,
		FileNamePrefix:       cfg.Extract.FileNamePrefix,
		ColumnMapping:        cfg.Extract.ColumnMapping,
		ReadyToExtractStatus: cfg.Extract.ReadyToExtractStatus,
		ExtractedStatus:      cfg.Extract.ExtractedStatus,
	}, logger)

	reportWriter := report.NewWriter(deltaSvc, csvfile.NewWriter(), report.Config{
		Enabled:         cfg.Reporting.Enabled,
		OutputDirectory: cfg.Reporting.OutputDirectory,
		FileNamePrefix:  cfg.Reporting.FileNamePrefix,
		Detailed:        cfg.Reporting.Detailed,
	}, logger)

	return &app{
		cfg:      cfg,
		pool:     pool,
		logger:   logger,
		deltas:   deltaSvc,
		ingest:   ingestSvc,
		extract:  extractSvc,
		report:   reportWriter,
		recorder: job.NewRecorder(jobRepo, logger),
	}, nil
}

// Close は DB 接続を解放します。
func (a *app) Close() {
	a.pool.Close()
}
