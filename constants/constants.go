package constants

import "time"

// configuration keys, as they appear in the properties file
const (
	SourceURL      = "source.url"
	SourceUser     = "source.user"
	SourcePassword = "source.password"
	SourceDriver   = "source.driver"

	TargetURL      = "target.url"
	TargetUser     = "target.user"
	TargetPassword = "target.password"
	TargetDriver   = "target.driver"

	SelectQuery = "select.query"
	MergeQuery  = "merge.query"

	TruncateQuery   = "truncate.query"
	TruncateTable   = "truncate.table"
	TruncateMode    = "truncate.mode"
	TruncateConfirm = "truncate.confirm"
	BackupFile      = "backup.file"

	BatchMode = "batch.mode"
	BatchSize = "batch.size"

	OperationTimeout = "db.operation_timeout"

	ScheduleTime    = "schedule.time"
	ScheduleCron    = "schedule.cron"
	ScheduleOverlap = "schedule.overlap"

	LogFile        = "log.file"
	LogLevel       = "log.level"
	LogPolicy      = "log.policy"
	LogMaxFileSize = "log.maxFileSize"
	LogMaxBackups  = "log.maxBackups"

	MetricsAddr      = "metrics.addr"
	TelemetryEnabled = "telemetry.enabled"

	EncryptionKey = "encryption.key"
)

// defaults
const (
	DefaultConfigFile       = "config.properties"
	DefaultBatchSize        = 100
	DefaultOperationTimeout = 5 * time.Minute
	DefaultScheduleTime     = "13:00"
	DefaultLogFile          = "sync.log"
	DefaultLogLevel         = "info"
	DefaultLogMaxFileSize   = 10 // megabytes
	DefaultLogMaxBackups    = 5
	EnvPrefix               = "ROWSYNC"
	BackupTimestampToken    = "{ts}"
	BackupTimestampLayout   = "20060102T150405"
)

// log rotation policies
const (
	LogPolicySize = "size"
	LogPolicyNone = "none"
)

// overlap policies for a firing that comes due while another one is running
const (
	OverlapSkip  = "skip"
	OverlapQueue = "queue"
)

type Role string

const (
	Source Role = "source"
	Target Role = "target"
)
