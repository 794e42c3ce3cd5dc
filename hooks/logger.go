package hooks

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Skryldev/image-compressor/config"
	"github.com/Skryldev/image-compressor/core"
)

// ZapLogger adapts a zap SugaredLogger to core.Logger.  Fields are
// alternating key/value pairs.
type ZapLogger struct {
	log *zap.SugaredLogger
}

// NewZapLogger wraps an existing *zap.Logger.
func NewZapLogger(l *zap.Logger) *ZapLogger { return &ZapLogger{log: l.Sugar()} }

func (z *ZapLogger) Debug(msg string, fields ...interface{}) { z.log.Debugw(msg, fields...) }
func (z *ZapLogger) Info(msg string, fields ...interface{})  { z.log.Infow(msg, fields...) }
func (z *ZapLogger) Warn(msg string, fields ...interface{})  { z.log.Warnw(msg, fields...) }
func (z *ZapLogger) Error(msg string, fields ...interface{}) { z.log.Errorw(msg, fields...) }

// Zap returns the underlying *zap.Logger.
func (z *ZapLogger) Zap() *zap.Logger { return z.log.Desugar() }

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error { return z.log.Sync() }

// NewLogger builds a zap logger writing to stderr and, when cfg.File is set,
// to a lumberjack-rotated file.
func NewLogger(cfg config.LogConfig) (*ZapLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	newEncoder := func() zapcore.Encoder {
		if cfg.Format == "json" {
			return zapcore.NewJSONEncoder(encCfg)
		}
		return zapcore.NewConsoleEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(), zapcore.Lock(os.Stderr), level),
	}
	if cfg.File != "" {
		sink := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(sink), level))
	}

	return NewZapLogger(zap.New(zapcore.NewTee(cores...))), nil
}

var _ core.Logger = (*ZapLogger)(nil)
