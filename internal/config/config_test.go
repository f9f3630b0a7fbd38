package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/scanner"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docscan.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	opts, err := cfg.ScannerOptions()
	if err != nil {
		t.Fatalf("ScannerOptions failed: %v", err)
	}
	def := scanner.DefaultOptions()
	if opts.CannyLow != def.CannyLow || opts.CannyHigh != def.CannyHigh ||
		opts.MaxWidth != def.MaxWidth || opts.YieldDelay != def.YieldDelay {
		t.Errorf("scanner options drift from defaults: %+v", opts)
	}
	if opts.Border != def.Border {
		t.Errorf("border: got %v, want %v", opts.Border, def.Border)
	}
}

func TestLoad_NoPathUsesDefaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.Ingest.PDFScale != 1.5 || cfg.OCR.Language != "eng" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	path := writeConfig(t, `
log_format: json
pipeline:
  canny_low: 30
  max_width: 800
  border_color: "#ffffff"
  border_alpha: 255
  corner_ordering: angle
  yield_delay: 10ms
ingest:
  pdf_scale: 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogFormat != "json" {
		t.Errorf("log_format: got %q", cfg.LogFormat)
	}
	if cfg.Pipeline.CannyLow != 30 || cfg.Pipeline.CannyHigh != 150 {
		t.Errorf("canny: got %v/%v, want 30/150", cfg.Pipeline.CannyLow, cfg.Pipeline.CannyHigh)
	}
	if cfg.Pipeline.YieldDelay != 10*time.Millisecond {
		t.Errorf("yield_delay: got %s", cfg.Pipeline.YieldDelay)
	}
	if cfg.Ingest.PDFScale != 2 || cfg.Ingest.CacheSize != 8 {
		t.Errorf("ingest: got %+v", cfg.Ingest)
	}

	opts, err := cfg.ScannerOptions()
	if err != nil {
		t.Fatalf("ScannerOptions failed: %v", err)
	}
	if opts.MaxWidth != 800 {
		t.Errorf("max width: got %d", opts.MaxWidth)
	}
	if opts.Border.R != 255 || opts.Border.A != 255 {
		t.Errorf("border: got %v", opts.Border)
	}

	// A steep quad tells the two orderings apart.
	quad := detection.Quad{
		geometry.Pt(60, 0), geometry.Pt(150, 50), geometry.Pt(100, 90), geometry.Pt(10, 40),
	}
	if got, want := opts.Ordering(quad), scanner.OrderCornersByAngle(quad); got != want {
		t.Errorf("ordering: got %+v, want angle ordering %+v", got, want)
	}
}

func TestLoad_EnvironmentPathAndLevel(t *testing.T) {
	path := writeConfig(t, "log_level: warn\n")
	t.Setenv(EnvConfigPath, path)
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level: got %q, want the environment's debug", cfg.LogLevel)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvLogLevel, "")

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bad yaml", "pipeline: [", "failed to parse config"},
		{"bad level", "log_level: loud\n", "log_level"},
		{"bad format", "log_format: xml\n", "log_format"},
		{"bad border", "pipeline:\n  border_color: chartreuse\n", "border color"},
		{"bad ordering", "pipeline:\n  corner_ordering: spiral\n", "corner ordering"},
		{"inverted canny", "pipeline:\n  canny_low: 200\n  canny_high: 100\n", "canny"},
		{"zero pdf scale", "ingest:\n  pdf_scale: 0\n", "pdf_scale"},
		{"empty language", "ocr:\n  language: \"\"\n", "ocr.language"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.Ingest.CacheSize = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"log_level", "ingest.cache_size"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %q", msg, want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := Default()
		cfg.LogLevel = "warn"

		logger, err := cfg.NewLogger(&buf)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		if logger.GetLevel() != logrus.WarnLevel {
			t.Errorf("level: got %s", logger.GetLevel())
		}
		logger.Info("hidden")
		logger.WithField("component", "test").Warn("shown")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Error("info record written at warn level")
		}
		if !strings.Contains(out, "shown") || !strings.Contains(out, "component=test") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := Default()
		cfg.LogFormat = "json"

		logger, err := cfg.NewLogger(&buf)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		logger.WithField("stage", "detect").Info("Stage complete")

		var record map[string]any
		if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
			t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
		}
		if record["stage"] != "detect" || record["msg"] != "Stage complete" {
			t.Errorf("unexpected record %v", record)
		}
	})
}
