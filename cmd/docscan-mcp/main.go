package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/imageio"
	"github.com/ironsheep/docscan-mcp/internal/ocr"
	"github.com/ironsheep/docscan-mcp/internal/scanner"
	"github.com/ironsheep/docscan-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := ""

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v", "version":
			fmt.Printf("docscan-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "--config", "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config requires a path")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown argument %q (see --help)\n", args[i])
			os.Exit(2)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Log to stderr (stdout is for MCP protocol)
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting docscan MCP server")

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server error")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	opts, err := cfg.ScannerOptions()
	if err != nil {
		return err
	}
	log := logrus.NewEntry(logger)

	pipeline, err := scanner.NewPipeline(opts, log)
	if err != nil {
		return err
	}
	srv, err := server.New(server.Options{
		Engine:   scanner.NewEngine(),
		Pipeline: pipeline,
		Loader:   imageio.NewLoader(cfg.Ingest.PDFScale, cfg.Ingest.CacheSize),
		OCR:      ocr.NewRecognizer(cfg.OCR.Language, log),
		Logger:   log,
		Version:  Version,
	})
	if err != nil {
		return err
	}

	go func() {
		if err := srv.WarmUp(); err != nil {
			logger.WithError(err).Error("Engine did not become ready")
		}
	}()

	return srv.Run(context.Background())
}

func printHelp() {
	fmt.Println("docscan-mcp - MCP server that turns document photos into clean scans")
	fmt.Println()
	fmt.Println("Usage: docscan-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config, -c PATH  Read configuration from a YAML file")
	fmt.Println("  --version, -v      Print version information")
	fmt.Println("  --help, -h         Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=PATH     Configuration file when --config is not given\n", config.EnvConfigPath)
	fmt.Printf("  %s=debug  Override the configured log level\n", config.EnvLogLevel)
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
