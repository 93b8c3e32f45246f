/*
DESCRIPTION
  logging.go constructs the rotating file logger backing config.Config's
  Logger field, adapted from cmd/rv's lumberjack-backed construction of a
  logging.Logger.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264enc

import (
	"os"
	"sync/atomic"

	"github.com/ausocean/utils/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingLogConfig configures NewRotatingLogger's lumberjack-backed file
// rotation.
type RotatingLogConfig struct {
	// Path is the log file's location.
	Path string

	// MaxSizeMB is the size in megabytes a log file reaches before it is
	// rotated.
	MaxSizeMB int

	// MaxBackups is the number of rotated log files to retain.
	MaxBackups int

	// MaxAgeDays is the number of days to retain a rotated log file.
	MaxAgeDays int

	// Verbosity is the minimum severity that will be logged, one of
	// logging.Debug, logging.Info, logging.Warning, logging.Error,
	// logging.Fatal.
	Verbosity int8

	// Suppress, if true, silences all log output.
	Suppress bool
}

// zapLogger backs logging.Logger with a zap.Logger writing through a
// lumberjack-rotated file, so the encoder's narration gets structured,
// leveled output and on-disk rotation without the core depending on
// either library directly.
type zapLogger struct {
	z        *zap.Logger
	level    atomic.Int32
	suppress bool
}

// NewRotatingLogger returns a logging.Logger backed by zap, writing
// through a lumberjack-rotated file at c.Path.
func NewRotatingLogger(c RotatingLogConfig) logging.Logger {
	fileLog := &lumberjack.Logger{
		Filename:   c.Path,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAgeDays,
	}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(enc, zapcore.AddSync(fileLog), zapcore.DebugLevel)
	l := &zapLogger{z: zap.New(core), suppress: c.Suppress}
	l.level.Store(int32(c.Verbosity))
	return l
}

func (l *zapLogger) fields(args []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}

// Log writes msg at level if level meets the configured verbosity.
func (l *zapLogger) Log(level int8, msg string, args ...interface{}) {
	if l.suppress || int32(level) < l.level.Load() {
		if level == logging.Fatal {
			os.Exit(1)
		}
		return
	}
	fields := l.fields(args)
	switch level {
	case logging.Debug:
		l.z.Debug(msg, fields...)
	case logging.Info:
		l.z.Info(msg, fields...)
	case logging.Warning:
		l.z.Warn(msg, fields...)
	case logging.Error:
		l.z.Error(msg, fields...)
	case logging.Fatal:
		l.z.Error(msg, fields...)
		l.z.Sync()
		os.Exit(1)
	default:
		l.z.Info(msg, fields...)
	}
}

// SetLevel changes the minimum severity that will be logged.
func (l *zapLogger) SetLevel(level int8) { l.level.Store(int32(level)) }

func (l *zapLogger) Debug(msg string, args ...interface{})   { l.Log(logging.Debug, msg, args...) }
func (l *zapLogger) Info(msg string, args ...interface{})    { l.Log(logging.Info, msg, args...) }
func (l *zapLogger) Warning(msg string, args ...interface{}) { l.Log(logging.Warning, msg, args...) }
func (l *zapLogger) Error(msg string, args ...interface{})   { l.Log(logging.Error, msg, args...) }
func (l *zapLogger) Fatal(msg string, args ...interface{})   { l.Log(logging.Fatal, msg, args...) }
