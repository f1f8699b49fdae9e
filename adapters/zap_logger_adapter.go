package adapters

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLoggerAdapter implements LoggerAdapter on top of a zap sugared logger.
type ZapLoggerAdapter struct {
	sugar *zap.SugaredLogger
}

var _ LoggerAdapter = (*ZapLoggerAdapter)(nil)

// NewZapLoggerAdapter wraps logger, suppressing entries below level.
// LogLevelNone discards everything.
func NewZapLoggerAdapter(logger *zap.Logger, level LogLevel) *ZapLoggerAdapter {
	if logger == nil || level == LogLevelNone {
		logger = zap.NewNop()
	} else if lvl, ok := zapLevel(level); ok && lvl > logger.Level() {
		logger = logger.WithOptions(zap.IncreaseLevel(lvl))
	}
	return &ZapLoggerAdapter{sugar: logger.Named("ripple").Sugar()}
}

// NewConsoleLoggerAdapter builds a stderr console logger at level. It is the
// SDK default when no logger is configured.
func NewConsoleLoggerAdapter(level LogLevel) *ZapLoggerAdapter {
	lvl, ok := zapLevel(level)
	if !ok {
		return NewZapLoggerAdapter(nil, LogLevelNone)
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		lvl,
	)
	return &ZapLoggerAdapter{sugar: zap.New(core).Named("ripple").Sugar()}
}

func zapLevel(level LogLevel) (zapcore.Level, bool) {
	switch level {
	case LogLevelDebug:
		return zapcore.DebugLevel, true
	case LogLevelInfo:
		return zapcore.InfoLevel, true
	case LogLevelWarn:
		return zapcore.WarnLevel, true
	case LogLevelError:
		return zapcore.ErrorLevel, true
	}
	return zapcore.InvalidLevel, false
}

func (z *ZapLoggerAdapter) Debug(message string, args ...any) {
	z.sugar.Debugf(message, args...)
}

func (z *ZapLoggerAdapter) Info(message string, args ...any) {
	z.sugar.Infof(message, args...)
}

func (z *ZapLoggerAdapter) Warn(message string, args ...any) {
	z.sugar.Warnf(message, args...)
}

func (z *ZapLoggerAdapter) Error(message string, args ...any) {
	z.sugar.Errorf(message, args...)
}
