package gmlog

import (
	"io"
	"os"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is type of log levels
type Level = zapcore.Level

const (
	// DebugLevel level
	DebugLevel = zapcore.DebugLevel
	// InfoLevel level
	InfoLevel = zapcore.InfoLevel
	// WarnLevel level
	WarnLevel = zapcore.WarnLevel
	// ErrorLevel level
	ErrorLevel = zapcore.ErrorLevel
	// PanicLevel level
	PanicLevel = zapcore.PanicLevel
	// FatalLevel level
	FatalLevel = zapcore.FatalLevel
)

var (
	logLevel = zap.NewAtomicLevelAt(DebugLevel)
	logger   *zap.Logger
	sugar    *zap.SugaredLogger

	// Debugf logs formatted debug message
	Debugf logFormatFunc
	// Infof logs formatted info message
	Infof logFormatFunc
	// Warnf logs formatted warn message
	Warnf logFormatFunc
	// Errorf logs formatted error message
	Errorf logFormatFunc
	Panicf logFormatFunc
	Fatalf logFormatFunc
	Panic  func(args ...interface{})
	Fatal  func(args ...interface{})
)

type logFormatFunc func(format string, args ...interface{})

func init() {
	rebuildLogger(zapcore.Lock(os.Stderr))
}

func newEncoder() zapcore.Encoder {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapcore.NewConsoleEncoder(encoderCfg)
}

func rebuildLogger(ws zapcore.WriteSyncer) {
	core := zapcore.NewCore(newEncoder(), ws, logLevel)
	logger = zap.New(core)
	setSugar(logger.Sugar())
}

// SetSource sets the component name of gmlog module
func SetSource(comp string) {
	logger = logger.With(zap.String("source", comp))
	setSugar(logger.Sugar())
}

// SetOutput replaces the log output destination
func SetOutput(out io.Writer) {
	rebuildLogger(zapcore.AddSync(out))
}

func setSugar(s *zap.SugaredLogger) {
	sugar = s
	Debugf = sugar.Debugf
	Infof = sugar.Infof
	Warnf = sugar.Warnf
	Errorf = sugar.Errorf
	Panicf = sugar.Panicf
	Panic = sugar.Panic
	Fatalf = sugar.Fatalf
	Fatal = sugar.Fatal
}

// SetLevel sets the log level
func SetLevel(lv Level) {
	logLevel.SetLevel(lv)
}

// GetLevel returns the current log level
func GetLevel() Level {
	return logLevel.Level()
}

// TraceError prints the stack and error
func TraceError(format string, args ...interface{}) {
	os.Stderr.Write(debug.Stack())
	Errorf(format, args...)
}

// StringToLevel converts string to Level
func StringToLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "panic":
		return PanicLevel
	case "fatal":
		return FatalLevel
	}
	Errorf("StringToLevel: unknown level: %s", s)
	return DebugLevel
}
