package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func backends() map[string]func(level string, buf *bytes.Buffer) Logger {
	return map[string]func(string, *bytes.Buffer) Logger{
		"zap": func(level string, buf *bytes.Buffer) Logger {
			return NewLoggerWithWriter(level, buf)
		},
		"logrus": func(level string, buf *bytes.Buffer) Logger {
			return NewLogrusLoggerWithWriter(level, buf)
		},
	}
}

func TestLogger_JSONShape(t *testing.T) {
	for name, newLogger := range backends() {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			log := newLogger("info", &buf)

			log.Info(context.Background(), "cache revalidated", F("cache.key", "/api/routines"))

			lines := decodeLines(t, &buf)
			if len(lines) != 1 {
				t.Fatalf("lines = %d, want 1", len(lines))
			}
			got := lines[0]
			if got["msg"] != "cache revalidated" {
				t.Errorf("msg = %v, want cache revalidated", got["msg"])
			}
			if got["level"] != "info" {
				t.Errorf("level = %v, want info", got["level"])
			}
			if got["cache.key"] != "/api/routines" {
				t.Errorf("cache.key = %v, want /api/routines", got["cache.key"])
			}
			if _, ok := got["timestamp"]; !ok {
				t.Error("timestamp missing")
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	for name, newLogger := range backends() {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			log := newLogger("warn", &buf)

			ctx := context.Background()
			log.Debug(ctx, "debug")
			log.Info(ctx, "info")
			log.Warn(ctx, "warn")
			log.Error(ctx, "error")

			lines := decodeLines(t, &buf)
			if len(lines) != 2 {
				t.Fatalf("lines = %d, want 2", len(lines))
			}
			if lines[0]["msg"] != "warn" || lines[1]["msg"] != "error" {
				t.Errorf("messages = %v, %v; want warn, error", lines[0]["msg"], lines[1]["msg"])
			}
		})
	}
}

func TestLogger_Redaction(t *testing.T) {
	for name, newLogger := range backends() {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			log := newLogger("debug", &buf)

			log.Info(context.Background(), "login",
				F("username", "arnold"),
				F("password", "hunter22"),
				F("Authorization", "Bearer abc"),
				F("token", "abc"),
			)

			got := decodeLines(t, &buf)[0]
			if got["username"] != "arnold" {
				t.Errorf("username = %v, want arnold", got["username"])
			}
			for _, k := range []string{"password", "Authorization", "token"} {
				if got[k] != "[REDACTED]" {
					t.Errorf("%s = %v, want [REDACTED]", k, got[k])
				}
			}
			if strings.Contains(buf.String(), "hunter22") {
				t.Error("password leaked into log output")
			}
		})
	}
}

func TestLogger_WithFetch(t *testing.T) {
	for name, newLogger := range backends() {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			log := newLogger("debug", &buf).WithFetch(FetchMeta{
				Resource: "user",
				Key:      "/api/users/42",
				Trigger:  "focus",
			})

			log.Warn(context.Background(), "fetch failed", F("error", errors.New("503")))

			got := decodeLines(t, &buf)[0]
			want := map[string]string{
				"cache.resource": "user",
				"cache.key":      "/api/users/42",
				"cache.trigger":  "focus",
				"error":          "503",
			}
			for k, v := range want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestNewLoggerWithBackend(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{"", false},
		{"zap", false},
		{"logrus", false},
		{"zerolog", true},
	}
	for _, tt := range tests {
		_, err := NewLoggerWithBackend(tt.backend, "info", &bytes.Buffer{})
		if (err != nil) != tt.wantErr {
			t.Errorf("NewLoggerWithBackend(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidLogBackend) {
			t.Errorf("NewLoggerWithBackend(%q) error = %v, want ErrInvalidLogBackend", tt.backend, err)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	var log Logger = NopLogger{}
	log.Error(context.Background(), "ignored")
	if _, ok := log.WithFetch(FetchMeta{Resource: "x"}).(NopLogger); !ok {
		t.Error("NopLogger.WithFetch should return a NopLogger")
	}
}
