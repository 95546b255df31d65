package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"

	"vpui/pkg/text"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vpui.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Viewport != (ViewportConfig{Width: 800, Height: 600}) {
		t.Errorf("Viewport = %+v", cfg.Viewport)
	}
	if cfg.Pipeline.MaxRestarts != 8 {
		t.Errorf("MaxRestarts = %d, want 8", cfg.Pipeline.MaxRestarts)
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
viewport:
  width: 320
fonts:
  regular: /fonts/a.ttf
  monospace: /fonts/m.otf
images:
  workers: 2
logging:
  console:
    level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	// Unset keys keep their defaults.
	if cfg.Viewport != (ViewportConfig{Width: 320, Height: 600}) {
		t.Errorf("Viewport = %+v", cfg.Viewport)
	}
	want := text.FontConfig{Regular: "/fonts/a.ttf", Monospace: "/fonts/m.otf"}
	if diff := cmp.Diff(want, cfg.Fonts); diff != "" {
		t.Errorf("Fonts mismatch (-want +got):\n%s", diff)
	}
	if cfg.Images.Workers != 2 || cfg.Pipeline.MaxRestarts != 8 {
		t.Errorf("Images = %+v, Pipeline = %+v", cfg.Images, cfg.Pipeline)
	}
	if cfg.Logging.Console.Level != "debug" || cfg.Logging.File.Level != "none" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "viewport:\n  depth: 3\n", "field depth not found"},
		{"bad version", "version: 2\n", "unsupported version 2"},
		{"zero viewport", "viewport:\n  width: 0\n", "viewport must be positive"},
		{"no restarts", "pipeline:\n  max_restarts: 0\n", "max_restarts"},
		{"bad level", "logging:\n  console:\n    level: loud\n", "logging.console.level"},
		{"file without destination", "logging:\n  file:\n    level: normal\n", "destination is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.want)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDump_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Viewport.Width = 1024
	data, err := Dump(cfg)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Load(writeConfig(t, string(data)))
	if err != nil {
		t.Fatalf("Load(Dump()) error = %v", err)
	}
	if diff := cmp.Diff(cfg, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoggingConfig_Prepare(t *testing.T) {
	var stdout, stderr bytes.Buffer
	conf := LoggingConfig{Console: ConsoleLoggerConfig{Level: "normal"}, File: FileLoggerConfig{Level: "none"}}
	log, err := conf.prepare(zapcore.AddSync(&stdout), zapcore.AddSync(&stderr))
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("quiet")
	log.Info("visible")
	log.Error("broken")
	_ = log.Sync()

	if strings.Contains(stdout.String(), "quiet") {
		t.Error("debug message written at normal level")
	}
	if !strings.Contains(stdout.String(), "visible") || strings.Contains(stdout.String(), "broken") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "broken") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestLoggingConfig_PrepareFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "logs", "vpui.log")
	conf := LoggingConfig{
		Console: ConsoleLoggerConfig{Level: "none"},
		File:    FileLoggerConfig{Level: "debug", Destination: dest, MaxSize: 1},
	}
	log, err := conf.prepare(zapcore.AddSync(&bytes.Buffer{}), zapcore.AddSync(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("to file")
	_ = log.Sync()

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"to file"`) || !strings.Contains(string(data), `"logger":"vpui"`) {
		t.Errorf("log file = %s", data)
	}
}
