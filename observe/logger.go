package observe

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a minimal structured logging interface.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging is best-effort and must not panic.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)

	// WithFetch returns a logger that tags every line with meta.
	WithFetch(meta FetchMeta) Logger
}

// Field represents a structured log field.
type Field struct {
	Key   string
	Value any
}

// F builds a Field.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

// LogLevel represents a logging level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLogLevel parses a string log level, defaulting to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

const redacted = "[REDACTED]"

func isRedactedField(key string) bool {
	k := strings.ToLower(key)
	for _, r := range RedactedFields {
		if k == r {
			return true
		}
	}
	return false
}

// traceFields returns trace_id and span_id when ctx carries a sampled span.
func traceFields(ctx context.Context) []Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []Field{
		{Key: "trace_id", Value: sc.TraceID().String()},
		{Key: "span_id", Value: sc.SpanID().String()},
	}
}

func fetchFields(meta FetchMeta) []Field {
	out := []Field{{Key: "cache.resource", Value: meta.Resource}}
	if meta.Key != "" {
		out = append(out, Field{Key: "cache.key", Value: meta.Key})
	}
	if meta.Trigger != "" {
		out = append(out, Field{Key: "cache.trigger", Value: meta.Trigger})
	}
	return out
}

// NewLogger creates a zap-backed JSON logger writing to stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a zap-backed JSON logger writing to w.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "msg"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(enc),
		zapcore.Lock(zapcore.AddSync(w)),
		zapLevel(ParseLogLevel(level)),
	)
	return NewZapLogger(zap.New(core))
}

// NewLoggerWithBackend creates a logger for the named backend ("zap" or
// "logrus"; empty means zap).
func NewLoggerWithBackend(backend, level string, w io.Writer) (Logger, error) {
	switch backend {
	case "", "zap":
		return NewLoggerWithWriter(level, w), nil
	case "logrus":
		return NewLogrusLoggerWithWriter(level, w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLogBackend, backend)
	}
}

func zapLevel(l LogLevel) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

type zapLogger struct{ l *zap.Logger }

// NewZapLogger adapts an existing zap logger.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{l: l}
}

func (z *zapLogger) Debug(ctx context.Context, msg string, f ...Field) {
	z.l.Debug(msg, z.fields(ctx, f)...)
}
func (z *zapLogger) Info(ctx context.Context, msg string, f ...Field) {
	z.l.Info(msg, z.fields(ctx, f)...)
}
func (z *zapLogger) Warn(ctx context.Context, msg string, f ...Field) {
	z.l.Warn(msg, z.fields(ctx, f)...)
}
func (z *zapLogger) Error(ctx context.Context, msg string, f ...Field) {
	z.l.Error(msg, z.fields(ctx, f)...)
}

func (z *zapLogger) WithFetch(meta FetchMeta) Logger {
	return &zapLogger{l: z.l.With(z.fields(context.Background(), fetchFields(meta))...)}
}

// Sync flushes buffered entries.
func (z *zapLogger) Sync() error { return z.l.Sync() }

func (z *zapLogger) fields(ctx context.Context, f []Field) []zap.Field {
	tf := traceFields(ctx)
	if len(f)+len(tf) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f)+len(tf))
	for _, x := range tf {
		out = append(out, zap.Any(x.Key, x.Value))
	}
	for _, x := range f {
		if isRedactedField(x.Key) {
			out = append(out, zap.String(x.Key, redacted))
			continue
		}
		if err, ok := x.Value.(error); ok {
			out = append(out, zap.String(x.Key, err.Error()))
			continue
		}
		out = append(out, zap.Any(x.Key, x.Value))
	}
	return out
}

type logrusLogger struct{ e *logrus.Entry }

// NewLogrusLogger adapts an existing logrus entry.
func NewLogrusLogger(e *logrus.Entry) Logger {
	if e == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		e = logrus.NewEntry(l)
	}
	return &logrusLogger{e: e}
}

// NewLogrusLoggerWithWriter creates a logrus-backed JSON logger writing to w.
func NewLogrusLoggerWithWriter(level string, w io.Writer) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "msg",
		},
	})
	l.SetLevel(logrusLevel(ParseLogLevel(level)))
	return &logrusLogger{e: logrus.NewEntry(l)}
}

func logrusLevel(l LogLevel) logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func (l *logrusLogger) Debug(ctx context.Context, msg string, f ...Field) {
	l.with(ctx, f).Debug(msg)
}
func (l *logrusLogger) Info(ctx context.Context, msg string, f ...Field) {
	l.with(ctx, f).Info(msg)
}
func (l *logrusLogger) Warn(ctx context.Context, msg string, f ...Field) {
	l.with(ctx, f).Warn(msg)
}
func (l *logrusLogger) Error(ctx context.Context, msg string, f ...Field) {
	l.with(ctx, f).Error(msg)
}

func (l *logrusLogger) WithFetch(meta FetchMeta) Logger {
	return &logrusLogger{e: l.with(context.Background(), fetchFields(meta))}
}

func (l *logrusLogger) with(ctx context.Context, f []Field) *logrus.Entry {
	tf := traceFields(ctx)
	if len(f)+len(tf) == 0 {
		return l.e
	}
	fields := make(logrus.Fields, len(f)+len(tf))
	for _, x := range tf {
		fields[x.Key] = x.Value
	}
	for _, x := range f {
		switch v := x.Value.(type) {
		case error:
			fields[x.Key] = v.Error()
		default:
			fields[x.Key] = v
		}
		if isRedactedField(x.Key) {
			fields[x.Key] = redacted
		}
	}
	return l.e.WithFields(fields)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(context.Context, string, ...Field) {}
func (NopLogger) Info(context.Context, string, ...Field)  {}
func (NopLogger) Warn(context.Context, string, ...Field)  {}
func (NopLogger) Error(context.Context, string, ...Field) {}
func (n NopLogger) WithFetch(FetchMeta) Logger            { return n }

var (
	_ Logger = (*zapLogger)(nil)
	_ Logger = (*logrusLogger)(nil)
	_ Logger = NopLogger{}
)
