package log

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ log.Logger = (*ZapLogger)(nil)

// ZapLogger is a logger impl.
type ZapLogger struct {
	log  *zap.Logger
	Sync func() error
}

// Log formats accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// NewZapLogger return a zap logger writing to stdout.
func NewZapLogger(encoder zapcore.Encoder, level zap.AtomicLevel, opts ...zap.Option) *ZapLogger {
	return newZapLogger(os.Stdout, encoder, level, opts...)
}

func newZapLogger(w io.Writer, encoder zapcore.Encoder, level zap.AtomicLevel, opts ...zap.Option) *ZapLogger {
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	zapLogger := zap.New(core, opts...)
	return &ZapLogger{log: zapLogger, Sync: zapLogger.Sync}
}

// New returns the JSON logger for FormatJSON and the console logger otherwise.
func New(format string, lvl zapcore.Level) *ZapLogger {
	if strings.EqualFold(format, FormatJSON) {
		return InitJSONLogger(lvl)
	}
	return InitDefaultLogger(lvl)
}

// ParseLevel parses debug, info, warn(ing) or error, case-insensitively.
// Anything else is InfoLevel.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Log writes keyvals as zap fields. The kratos message key becomes the zap
// message; other values keep their types.
func (l *ZapLogger) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 || len(keyvals)%2 != 0 {
		l.log.Warn(fmt.Sprint("Keyvalues must appear in pairs: ", keyvals))
		return nil
	}
	ce := l.log.Check(zapLevel(level), "")
	if ce == nil {
		return nil
	}
	fields := make([]zap.Field, 0, len(keyvals)/2+1)
	fields = append(fields, zap.String("caller", getCaller()))
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == log.DefaultMessageKey {
			ce.Message = fmt.Sprint(keyvals[i+1])
			continue
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}
	ce.Write(fields...)
	return nil
}

func zapLevel(level log.Level) zapcore.Level {
	switch level {
	case log.LevelDebug:
		return zapcore.DebugLevel
	case log.LevelWarn:
		return zapcore.WarnLevel
	case log.LevelError:
		return zapcore.ErrorLevel
	case log.LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitDefaultLogger creates a console logger.
func InitDefaultLogger(lvl zapcore.Level) *ZapLogger {
	return NewZapLogger(
		zapcore.NewConsoleEncoder(consoleEncoderConfig()),
		zap.NewAtomicLevelAt(lvl),
		zap.AddStacktrace(zap.NewAtomicLevelAt(zapcore.ErrorLevel)),
	)
}

// InitJSONLogger creates a JSON logger.
func InitJSONLogger(lvl zapcore.Level) *ZapLogger {
	return newZapLogger(os.Stdout,
		zapcore.NewJSONEncoder(jsonEncoderConfig()),
		zap.NewAtomicLevelAt(lvl),
		zap.AddStacktrace(zap.NewAtomicLevelAt(zapcore.ErrorLevel)),
	)
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "t",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	eConfig := zap.NewProductionEncoderConfig()
	eConfig.EncodeDuration = zapcore.SecondsDurationEncoder
	eConfig.EncodeTime = timeEncoder
	eConfig.CallerKey = "" // We handle caller ourselves
	return eConfig
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

// skipPatterns contains path patterns to skip when finding the caller.
var skipPatterns = []string{
	"go-kratos/kratos",
	"pkg/log/zap.go",
}

// getCaller returns the caller information, skipping framework code.
// It returns file path relative to module root and line number.
func getCaller() string {
	const maxDepth = 15
	for i := 3; i < maxDepth; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		// Skip framework code
		skip := false
		for _, pattern := range skipPatterns {
			if strings.Contains(file, pattern) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		// Convert to relative path if possible
		return formatCaller(file, line)
	}
	return "unknown"
}

// formatCaller formats file:line, using relative path from common markers.
func formatCaller(file string, line int) string {
	// Try to find common path markers and make it relative
	markers := []string{"/internal/", "/pkg/", "/cmd/", "/test/"}
	for _, marker := range markers {
		if idx := strings.LastIndex(file, marker); idx != -1 {
			return fmt.Sprintf("%s:%d", file[idx+1:], line)
		}
	}
	// Fallback: use the last two path components
	parts := strings.Split(file, "/")
	if len(parts) >= 2 {
		return fmt.Sprintf("%s/%s:%d", parts[len(parts)-2], parts[len(parts)-1], line)
	}
	return fmt.Sprintf("%s:%d", file, line)
}
