// Package logger is the process wide zerolog setup. Components receive a
// zerolog.Logger through their constructors; the package level helpers write
// to the same sink and are meant for the command layer.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/types"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger = New(os.Stderr)
	file   io.Closer
)

// New returns a console formatted logger writing to w.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}).With().Timestamp().Logger()
}

// Init points the global logger at stderr and, when configured, a log file
// rotated according to the log policy.
func Init(cfg types.LogConfig) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}}
	var closer io.Closer
	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create log directory: %s", err)
			}
		}
		fileWriter, err := fileSink(cfg)
		if err != nil {
			return err
		}
		closer = fileWriter
		writers = append(writers, zerolog.ConsoleWriter{Out: fileWriter, TimeFormat: time.RFC3339, NoColor: true})
	}

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
	}
	file = closer
	logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	return nil
}

func fileSink(cfg types.LogConfig) (io.WriteCloser, error) {
	if cfg.Policy == constants.LogPolicyNone {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %s", err)
		}
		return f, nil
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxFileSize,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}, nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// Logger returns the configured global logger, for injection into components.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Info(v ...any) {
	l := Logger()
	l.Info().Msg(fmt.Sprint(v...))
}

func Infof(format string, v ...any) {
	l := Logger()
	l.Info().Msgf(format, v...)
}

func Debug(v ...any) {
	l := Logger()
	l.Debug().Msg(fmt.Sprint(v...))
}

func Debugf(format string, v ...any) {
	l := Logger()
	l.Debug().Msgf(format, v...)
}

func Warn(v ...any) {
	l := Logger()
	l.Warn().Msg(fmt.Sprint(v...))
}

func Warnf(format string, v ...any) {
	l := Logger()
	l.Warn().Msgf(format, v...)
}

func Error(v ...any) {
	l := Logger()
	l.Error().Msg(fmt.Sprint(v...))
}

func Errorf(format string, v ...any) {
	l := Logger()
	l.Error().Msgf(format, v...)
}

// Fatal logs at error level, closes the log file and exits with status 1.
func Fatal(v ...any) {
	l := Logger()
	l.Error().Msg(fmt.Sprint(v...))
	_ = Close()
	os.Exit(1)
}
