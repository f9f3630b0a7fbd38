// Package config loads the server configuration from YAML and the
// environment, and turns it into the runtime objects the other packages need.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/scanner"
)

// Environment variables consulted by Load.
const (
	EnvConfigPath = "DOCSCAN_CONFIG"
	EnvLogLevel   = "DOCSCAN_LOG_LEVEL"
)

// Config is the complete server configuration.
type Config struct {
	LogLevel  string   `yaml:"log_level"`
	LogFormat string   `yaml:"log_format"`
	Pipeline  Pipeline `yaml:"pipeline"`
	Ingest    Ingest   `yaml:"ingest"`
	OCR       OCR      `yaml:"ocr"`
}

// Pipeline tunes the scan stages.
type Pipeline struct {
	CannyLow       float64       `yaml:"canny_low"`
	CannyHigh      float64       `yaml:"canny_high"`
	ApproxEpsilon  float64       `yaml:"approx_epsilon"`
	MaxWidth       int           `yaml:"max_width"`
	SharpenWeight  float64       `yaml:"sharpen_weight"`
	OriginalWeight float64       `yaml:"original_weight"`
	BorderColor    string        `yaml:"border_color"`
	BorderAlpha    uint8         `yaml:"border_alpha"`
	CornerOrdering string        `yaml:"corner_ordering"`
	YieldDelay     time.Duration `yaml:"yield_delay"`
}

// Ingest controls how source files are decoded.
type Ingest struct {
	// PDFScale multiplies the 72 dpi page size when rendering PDFs.
	PDFScale float64 `yaml:"pdf_scale"`
	// CacheSize is the number of decoded sources kept in memory; 0 disables
	// caching.
	CacheSize int `yaml:"cache_size"`
}

// OCR configures text recognition on finished scans.
type OCR struct {
	Language string `yaml:"language"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	opts := scanner.DefaultOptions()
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Pipeline: Pipeline{
			CannyLow:       opts.CannyLow,
			CannyHigh:      opts.CannyHigh,
			ApproxEpsilon:  opts.ApproxEpsilon,
			MaxWidth:       opts.MaxWidth,
			SharpenWeight:  opts.SharpenWeight,
			OriginalWeight: opts.OriginalWeight,
			BorderColor:    "#000000",
			BorderAlpha:    0,
			CornerOrdering: scanner.OrderingX,
			YieldDelay:     opts.YieldDelay,
		},
		Ingest: Ingest{
			PDFScale:  1.5,
			CacheSize: 8,
		},
		OCR: OCR{
			Language: "eng",
		},
	}
}

// Load reads the configuration.
//
// An empty path falls back to $DOCSCAN_CONFIG; with neither set the defaults
// are used. Fields missing from the file keep their defaults. $DOCSCAN_LOG_LEVEL
// overrides log_level. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format: must be text or json, got %q", c.LogFormat))
	}

	if _, err := c.ScannerOptions(); err != nil {
		errs = append(errs, fmt.Errorf("pipeline: %w", err))
	}

	if c.Ingest.PDFScale <= 0 {
		errs = append(errs, fmt.Errorf("ingest.pdf_scale: must be positive, got %v", c.Ingest.PDFScale))
	}
	if c.Ingest.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("ingest.cache_size: must not be negative, got %d", c.Ingest.CacheSize))
	}
	if strings.TrimSpace(c.OCR.Language) == "" {
		errs = append(errs, errors.New("ocr.language: must not be empty"))
	}

	return errors.Join(errs...)
}

// ScannerOptions converts the pipeline section into scanner options.
func (c *Config) ScannerOptions() (scanner.Options, error) {
	p := c.Pipeline

	border, err := imaging.ParseBorder(p.BorderColor, p.BorderAlpha)
	if err != nil {
		return scanner.Options{}, err
	}
	ordering, err := scanner.CornerOrderingByName(p.CornerOrdering)
	if err != nil {
		return scanner.Options{}, err
	}

	opts := scanner.Options{
		CannyLow:       p.CannyLow,
		CannyHigh:      p.CannyHigh,
		ApproxEpsilon:  p.ApproxEpsilon,
		MaxWidth:       p.MaxWidth,
		SharpenWeight:  p.SharpenWeight,
		OriginalWeight: p.OriginalWeight,
		Border:         border,
		Ordering:       ordering,
		YieldDelay:     p.YieldDelay,
	}
	if err := opts.Validate(); err != nil {
		return scanner.Options{}, err
	}
	return opts, nil
}

// NewLogger builds the process logger writing to w. Text output carries full
// timestamps; json output uses the same timestamp layout in every record.
func (c *Config) NewLogger(w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger, nil
}
