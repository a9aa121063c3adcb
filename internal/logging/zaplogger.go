package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig configures the rotating log file backing a ZapLogger.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// ZapLogger backs Logger with a zap sugared logger. When FileConfig.Path
// is set, output is split between stderr and a lumberjack-rotated file;
// otherwise it logs to stderr only.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds a production-style ZapLogger. debug enables
// zapcore.DebugLevel; otherwise zapcore.InfoLevel is the floor.
func NewZapLogger(fc FileConfig, debug bool) (*ZapLogger, error) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), level),
	}
	if fc.Path != "" {
		rotator := &lumberjack.Logger{
			Filename:   fc.Path,
			MaxSize:    orDefault(fc.MaxSizeMB, 50),
			MaxBackups: orDefault(fc.MaxBackups, 5),
			MaxAge:     orDefault(fc.MaxAgeDays, 28),
			Compress:   fc.Compress,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}

	core := zapcore.NewTee(cores...)
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &ZapLogger{sugar: logger.Sugar()}, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Sync flushes buffered log entries; call before process exit.
func (z *ZapLogger) Sync() error { return z.sugar.Sync() }

func (z *ZapLogger) Debug(msg string, args ...interface{}) { z.sugar.Debugf(msg, args...) }
func (z *ZapLogger) Info(msg string, args ...interface{})  { z.sugar.Infof(msg, args...) }
func (z *ZapLogger) Warn(msg string, args ...interface{})  { z.sugar.Warnf(msg, args...) }
func (z *ZapLogger) Error(msg string, args ...interface{}) { z.sugar.Errorf(msg, args...) }

var _ Logger = (*ZapLogger)(nil)
