package observe

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "minimal",
			cfg:  Config{ServiceName: "gymdash"},
		},
		{
			name:    "missing service name",
			cfg:     Config{},
			wantErr: ErrMissingServiceName,
		},
		{
			name: "bad tracing exporter",
			cfg: Config{ServiceName: "gymdash", Tracing: TracingConfig{
				Enabled: true, Exporter: "jaeger-thrift",
			}},
			wantErr: ErrInvalidTracingExporter,
		},
		{
			name: "bad sample pct",
			cfg: Config{ServiceName: "gymdash", Tracing: TracingConfig{
				Enabled: true, Exporter: "stdout", SamplePct: 1.5,
			}},
			wantErr: ErrInvalidSamplePct,
		},
		{
			name: "bad metrics exporter",
			cfg: Config{ServiceName: "gymdash", Metrics: MetricsConfig{
				Enabled: true, Exporter: "graphite",
			}},
			wantErr: ErrInvalidMetricsExporter,
		},
		{
			name: "bad log level",
			cfg: Config{ServiceName: "gymdash", Logging: LoggingConfig{
				Enabled: true, Level: "trace",
			}},
			wantErr: ErrInvalidLogLevel,
		},
		{
			name: "bad log backend",
			cfg: Config{ServiceName: "gymdash", Logging: LoggingConfig{
				Enabled: true, Backend: "zerolog",
			}},
			wantErr: ErrInvalidLogBackend,
		},
		{
			name: "disabled subsystems skip validation",
			cfg: Config{ServiceName: "gymdash", Metrics: MetricsConfig{
				Enabled: false, Exporter: "graphite",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewObserver_Noops(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "gymdash"})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	if obs.Tracer() == nil || obs.Meter() == nil || obs.Logger() == nil {
		t.Fatal("expected non-nil tracer, meter and logger")
	}
	if _, ok := obs.Logger().(NopLogger); !ok {
		t.Errorf("Logger() = %T, want NopLogger", obs.Logger())
	}
	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewObserver_Enabled(t *testing.T) {
	var out bytes.Buffer
	obs, err := NewObserver(context.Background(), Config{
		ServiceName: "gymdash",
		Version:     "1.0.0",
		Tracing:     TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 1},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "none"},
		Logging:     LoggingConfig{Enabled: true, Level: "info", Backend: "logrus"},
		Output:      &out,
	})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	obs.Logger().Info(context.Background(), "started")
	_, span := obs.Tracer().Start(context.Background(), "probe")
	span.End()

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte(`"msg":"started"`)) {
		t.Errorf("log output missing started line: %s", out.String())
	}
	if !bytes.Contains(out.Bytes(), []byte(`"Name": "probe"`)) {
		t.Errorf("span output missing probe span: %s", out.String())
	}
}
