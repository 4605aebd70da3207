package types

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/crypto"
	"github.com/datazip-inc/rowsync/utils"
	"github.com/go-viper/encoding/javaproperties"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// passwordProperty matches password properties of jdbc style urls
var passwordProperty = regexp.MustCompile(`(?i)((?:password|pwd)=)[^;&]*`)

// ConnectionConfig holds the parameters of one named connection (source or target).
type ConnectionConfig struct {
	Role     constants.Role `json:"-"`
	Driver   string         `json:"driver"`
	URL      string         `json:"url" validate:"required"`
	User     string         `json:"user"`
	Password string         `json:"password" hash:"ignore"`
}

// Redacted returns the connection url with any embedded password masked.
func (c ConnectionConfig) Redacted() string {
	masked := passwordProperty.ReplaceAllString(c.URL, "${1}xxxxx")
	parsed, err := url.Parse(masked)
	if err != nil || parsed.Scheme == "" {
		return masked
	}
	return parsed.Redacted()
}

// SyncJobConfig describes one source query to target table job.
// It is loaded once per run and never mutated afterwards.
type SyncJobConfig struct {
	SelectQuery      string        `json:"select.query" validate:"required,noterminator"`
	MergeQuery       string        `json:"merge.query" validate:"required"`
	TruncateQuery    string        `json:"truncate.query"`
	TruncateTable    string        `json:"truncate.table" validate:"required_if=TruncateMode true,tablename"`
	TruncateMode     bool          `json:"truncate.mode"`
	TruncateConfirm  bool          `json:"truncate.confirm"`
	BackupFile       string        `json:"backup.file"`
	BatchMode        bool          `json:"batch.mode"`
	BatchSize        int           `json:"batch.size" validate:"gt=0"`
	OperationTimeout time.Duration `json:"db.operation_timeout" validate:"gt=0"`
}

// ScheduleConfig sets the daily wall-clock time the sync is re-run at.
type ScheduleConfig struct {
	Time    string `json:"schedule.time" validate:"required,timeofday"`
	Cron    string `json:"schedule.cron"`
	Overlap string `json:"schedule.overlap" validate:"oneof=skip queue"`
}

// Expression returns the standard 5-field cron expression for the schedule.
func (s ScheduleConfig) Expression() (string, error) {
	if s.Cron != "" {
		return s.Cron, nil
	}
	anchor, err := time.Parse("15:04", s.Time)
	if err != nil {
		return "", fmt.Errorf("schedule.time must be HH:MM, got %q", s.Time)
	}
	return fmt.Sprintf("%d %d * * *", anchor.Minute(), anchor.Hour()), nil
}

// Schedule parses the configured expression.
func (s ScheduleConfig) Schedule() (cron.Schedule, error) {
	expr, err := s.Expression()
	if err != nil {
		return nil, err
	}
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule expression %q: %s", expr, err)
	}
	return schedule, nil
}

type LogConfig struct {
	File        string `json:"log.file"`
	Level       string `json:"log.level" validate:"oneof=trace debug info warn error"`
	Policy      string `json:"log.policy" validate:"oneof=size none"`
	MaxFileSize int    `json:"log.maxFileSize" validate:"gt=0"`
	MaxBackups  int    `json:"log.maxBackups" validate:"gte=0"`
}

// Config is everything one rowsync process needs.
type Config struct {
	Source           ConnectionConfig `json:"source"`
	Target           ConnectionConfig `json:"target"`
	Job              SyncJobConfig    `json:"job"`
	Schedule         ScheduleConfig   `json:"schedule"`
	Log              LogConfig        `json:"log"`
	MetricsAddr      string           `json:"metrics.addr"`
	TelemetryEnabled bool             `json:"telemetry.enabled"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(constants.BatchSize, constants.DefaultBatchSize)
	v.SetDefault(constants.BatchMode, false)
	v.SetDefault(constants.TruncateMode, false)
	v.SetDefault(constants.TruncateConfirm, false)
	v.SetDefault(constants.OperationTimeout, constants.DefaultOperationTimeout)
	v.SetDefault(constants.ScheduleTime, constants.DefaultScheduleTime)
	v.SetDefault(constants.ScheduleOverlap, constants.OverlapSkip)
	v.SetDefault(constants.LogFile, constants.DefaultLogFile)
	v.SetDefault(constants.LogLevel, constants.DefaultLogLevel)
	v.SetDefault(constants.LogPolicy, constants.LogPolicySize)
	v.SetDefault(constants.LogMaxFileSize, constants.DefaultLogMaxFileSize)
	v.SetDefault(constants.LogMaxBackups, constants.DefaultLogMaxBackups)
	v.SetDefault(constants.TelemetryEnabled, false)
}

// NewViper returns a viper instance reading the properties file at path plus
// ROWSYNC_* environment overrides (`.` becomes `_`), with every default
// registered. An empty path reads the environment only.
func NewViper(path string) (*viper.Viper, error) {
	codecs := viper.NewCodecRegistry()
	if err := codecs.RegisterCodec("properties", &javaproperties.Codec{}); err != nil {
		return nil, fmt.Errorf("%w: %s", constants.ErrConfig, err)
	}

	v := viper.NewWithOptions(viper.WithCodecRegistry(codecs))
	SetDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("properties")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: failed to read config file %s: %s", constants.ErrConfig, path, err)
	}
	return v, nil
}

// LoadConfig builds and validates a Config from v. Every failure wraps constants.ErrConfig.
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Source: ConnectionConfig{
			Role:     constants.Source,
			Driver:   v.GetString(constants.SourceDriver),
			URL:      strings.TrimSpace(v.GetString(constants.SourceURL)),
			User:     v.GetString(constants.SourceUser),
			Password: v.GetString(constants.SourcePassword),
		},
		Target: ConnectionConfig{
			Role:     constants.Target,
			Driver:   v.GetString(constants.TargetDriver),
			URL:      strings.TrimSpace(v.GetString(constants.TargetURL)),
			User:     v.GetString(constants.TargetUser),
			Password: v.GetString(constants.TargetPassword),
		},
		Job: SyncJobConfig{
			SelectQuery:      strings.TrimSpace(v.GetString(constants.SelectQuery)),
			MergeQuery:       strings.TrimSpace(v.GetString(constants.MergeQuery)),
			TruncateQuery:    strings.TrimSpace(v.GetString(constants.TruncateQuery)),
			TruncateTable:    strings.TrimSpace(v.GetString(constants.TruncateTable)),
			TruncateMode:     v.GetBool(constants.TruncateMode),
			TruncateConfirm:  v.GetBool(constants.TruncateConfirm),
			BackupFile:       v.GetString(constants.BackupFile),
			BatchMode:        v.GetBool(constants.BatchMode),
			BatchSize:        v.GetInt(constants.BatchSize),
			OperationTimeout: v.GetDuration(constants.OperationTimeout),
		},
		Schedule: ScheduleConfig{
			Time:    v.GetString(constants.ScheduleTime),
			Cron:    v.GetString(constants.ScheduleCron),
			Overlap: strings.ToLower(v.GetString(constants.ScheduleOverlap)),
		},
		Log: LogConfig{
			File:        v.GetString(constants.LogFile),
			Level:       strings.ToLower(v.GetString(constants.LogLevel)),
			Policy:      strings.ToLower(v.GetString(constants.LogPolicy)),
			MaxFileSize: v.GetInt(constants.LogMaxFileSize),
			MaxBackups:  v.GetInt(constants.LogMaxBackups),
		},
		MetricsAddr:      v.GetString(constants.MetricsAddr),
		TelemetryEnabled: v.GetBool(constants.TelemetryEnabled),
	}

	if err := cfg.revealPasswords(v.GetString(constants.EncryptionKey)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// revealPasswords decrypts passwords written as ENC(...).
func (c *Config) revealPasswords(key string) error {
	if !crypto.IsEncrypted(c.Source.Password) && !crypto.IsEncrypted(c.Target.Password) {
		return nil
	}
	ctx := context.Background()
	cipher, err := crypto.New(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: %s", constants.ErrConfig, err)
	}
	for _, conn := range []*ConnectionConfig{&c.Source, &c.Target} {
		conn.Password, err = cipher.Reveal(ctx, conn.Password)
		if err != nil {
			return fmt.Errorf("%w: %s.password: %s", constants.ErrConfig, conn.Role, err)
		}
	}
	return nil
}

// Validate checks the whole configuration. It never touches the network.
func (c *Config) Validate() error {
	for _, structure := range []any{c.Source, c.Target, c.Job, c.Schedule, c.Log} {
		if err := utils.Validate(structure); err != nil {
			return fmt.Errorf("%w: %s", constants.ErrConfig, err)
		}
	}

	if _, err := c.Schedule.Schedule(); err != nil {
		return fmt.Errorf("%w: %s", constants.ErrConfig, err)
	}
	return nil
}
