package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ogurasousui/employee-delta-sync/internal/core/employee"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Extract   ExtractConfig   `yaml:"extract"`
	Delta     DeltaConfig     `yaml:"delta"`
	Reporting ReportingConfig `yaml:"reporting"`
}

// ServerConfig はヘルスチェック用 gRPC サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// SchedulerConfig は定期実行に関する設定です。cron 式は 5 フィールドの
// 標準形式または @hourly のような記述子を受け付けます。
type SchedulerConfig struct {
	Enabled     bool   `yaml:"enabled"`
	IngestCron  string `yaml:"ingest_cron"`
	ExtractCron string `yaml:"extract_cron"`
	ReportCron  string `yaml:"report_cron"`
}

// IngestConfig は CSV 取り込みに関する設定です。ColumnMapping は
// CSV の列名から論理フィールド名への対応です。
type IngestConfig struct {
	FileFolder          string            `yaml:"file_folder"`
	ProcessedFolder     string            `yaml:"processed_folder"`
	FileNamePrefix      string            `yaml:"file_name_prefix"`
	ColumnMapping       map[string]string `yaml:"column_mapping"`
	DefaultStatus       string            `yaml:"default_status"`
	PreferredDateFormat string            `yaml:"preferred_date_format"`
}

// ExtractConfig は CSV 抽出に関する設定です。
type ExtractConfig struct {
	FileFolder           string            `yaml:"file_folder"`
	FileNamePrefix       string            `yaml:"file_name_prefix"`
	ColumnMapping        map[string]string `yaml:"column_mapping"`
	ReadyToExtractStatus string            `yaml:"ready_to_extract_status"`
	ExtractedStatus      string            `yaml:"extracted_status"`
}

// DeltaConfig は差分検出に関する設定です。IgnoredFields に挙げた
// フィールドは比較から除外されます。保持系の設定は宣言のみで、
// 履歴の削除処理はまだ実装していません。
type DeltaConfig struct {
	IgnoredFields           []string      `yaml:"ignored_fields"`
	MaxBatchesRetention     int           `yaml:"max_batches_retention"`
	BatchRetentionPeriod    time.Duration `yaml:"-"`
	BatchRetentionPeriodRaw string        `yaml:"batch_retention_period"`
}

// ReportingConfig は差分レポート出力に関する設定です。
type ReportingConfig struct {
	Enabled         bool   `yaml:"enabled"`
	OutputDirectory string `yaml:"output_directory"`
	FileNamePrefix  string `yaml:"file_name_prefix"`
	Detailed        bool   `yaml:"detailed"`
}

// Load は指定されたパスから設定ファイルを読み込みます。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}

	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Scheduler.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Ingest.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Extract.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Delta.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Reporting.validateAndNormalize(); err != nil {
		return err
	}

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (s *SchedulerConfig) validateAndNormalize() error {
	if !s.Enabled {
		return nil
	}
	if s.IngestCron == "" {
		s.IngestCron = "*/5 * * * *"
	}
	if s.ExtractCron == "" {
		s.ExtractCron = "@hourly"
	}
	if s.ReportCron == "" {
		s.ReportCron = "@daily"
	}
	return nil
}

func (i *IngestConfig) validateAndNormalize() error {
	if i.FileFolder == "" {
		return fmt.Errorf("config: ingest.file_folder must be set")
	}
	if i.ProcessedFolder == "" {
		i.ProcessedFolder = i.FileFolder + "/processed"
	}
	if i.FileNamePrefix == "" {
		i.FileNamePrefix = "employee-"
	}
	if len(i.ColumnMapping) == 0 {
		return fmt.Errorf("config: ingest.column_mapping must be set")
	}
	if !mapsToField(i.ColumnMapping, "id") {
		return fmt.Errorf("config: ingest.column_mapping must map a column to the id field")
	}
	return nil
}

func (e *ExtractConfig) validateAndNormalize() error {
	if e.FileFolder == "" {
		return fmt.Errorf("config: extract.file_folder must be set")
	}
	if e.FileNamePrefix == "" {
		e.FileNamePrefix = "employee-extract-"
	}
	if len(e.ColumnMapping) == 0 {
		return fmt.Errorf("config: extract.column_mapping must be set")
	}
	if e.ReadyToExtractStatus == "" {
		e.ReadyToExtractStatus = "READY_FOR_EXTRACT"
	}
	if e.ExtractedStatus == "" {
		e.ExtractedStatus = "EXTRACTED"
	}
	return nil
}

func (d *DeltaConfig) validateAndNormalize() error {
	for _, field := range d.IgnoredFields {
		if !employee.KnownField(field) {
			return fmt.Errorf("config: delta.ignored_fields: unknown field %q", field)
		}
		switch field {
		case "name", "age", "status", "dob":
		default:
			return fmt.Errorf("config: delta.ignored_fields: field %q is not comparable", field)
		}
	}

	period, err := parseDurationAllowEmpty(d.BatchRetentionPeriodRaw)
	if err != nil {
		return fmt.Errorf("config: delta.batch_retention_period: %w", err)
	}
	d.BatchRetentionPeriod = period
	if d.BatchRetentionPeriod == 0 {
		d.BatchRetentionPeriod = 90 * 24 * time.Hour
	}
	if d.MaxBatchesRetention == 0 {
		d.MaxBatchesRetention = 100
	}

	return nil
}

func (r *ReportingConfig) validateAndNormalize() error {
	if !r.Enabled {
		return nil
	}
	if r.OutputDirectory == "" {
		return fmt.Errorf("config: reporting.output_directory must be set")
	}
	if r.FileNamePrefix == "" {
		r.FileNamePrefix = "delta-report-"
	}
	return nil
}

func mapsToField(mapping map[string]string, field string) bool {
	for _, mapped := range mapping {
		if mapped == field {
			return true
		}
	}
	return false
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。資格情報は URL エスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
