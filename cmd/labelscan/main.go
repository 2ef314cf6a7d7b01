package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/labelscan/internal/config"
	"github.com/ironsheep/labelscan/internal/httpapi"
	"github.com/ironsheep/labelscan/internal/ocr"
	"github.com/ironsheep/labelscan/internal/offacts"
	"github.com/ironsheep/labelscan/internal/scoring"
	"github.com/ironsheep/labelscan/internal/server"
	"github.com/ironsheep/labelscan/internal/session"
	"github.com/ironsheep/labelscan/internal/storage"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("labelscan - nutrition label OCR, verification and scoring")
	fmt.Println()
	fmt.Println("Usage: labelscan [command] [--config file]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve            Run the MCP server over stdin/stdout (default)")
	fmt.Println("  http             Run the JSON API")
	fmt.Println("  version, -v      Print version information")
	fmt.Println("  help, -h         Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  LABELSCAN_LOG_LEVEL=debug        Enable debug logging")
	fmt.Println("  LABELSCAN_DB_PATH=labelscan.db   Accepted result history (empty disables)")
	fmt.Println("  LABELSCAN_HTTP_ADDR=:8080        JSON API listen address")
	fmt.Println("  LABELSCAN_SCORING_POLICY=...     Default policy:", scoring.PolicyNames())
	fmt.Println("  LABELSCAN_DEBUG_DIR=             Directory for preprocessed OCR images")
}

func main() {
	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 && (!strings.HasPrefix(args[0], "-") || isInfoFlag(args[0])) {
		command, args = args[0], args[1:]
	}

	switch command {
	case "--version", "-v", "version":
		fmt.Printf("labelscan %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		fmt.Printf("  OCR engine: %s\n", ocr.Version())
		return
	case "--help", "-h", "help":
		usage()
		return
	case "serve", "http":
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		usage()
		os.Exit(2)
	}

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML configuration file")
	_ = fs.Parse(args)

	// Logging goes to stderr; stdout carries the MCP protocol.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load(*configPath, Version)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if cfg.Debug() {
		log.Printf("labelscan v%s (built %s, commit %s), %s", Version, BuildTime, GitCommit, ocr.Version())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, command, cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func isInfoFlag(arg string) bool {
	switch arg {
	case "--version", "-v", "--help", "-h":
		return true
	}
	return false
}

func run(ctx context.Context, command string, cfg *config.Config) error {
	logger := log.Default()

	policy, err := scoring.PolicyByName(cfg.Scoring.Policy)
	if err != nil {
		return err
	}

	products := offacts.NewClient(cfg.OFFacts.BaseURL, cfg.OFFacts.Timeout, cfg.OFFacts.UserAgent)
	products.Logger = logger

	engine := ocr.NewTesseract(cfg.OCR.Language, cfg.OCR.TessdataPrefix)
	pipeline := session.NewPipeline(ocr.NewRunner(engine, logger), products, cfg.DebugDir, logger)

	var (
		resultStore session.ResultStore
		mcpResults  server.ResultReader
		httpResults httpapi.ResultReader
	)
	if cfg.DBPath != "" {
		store, err := storage.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		resultStore, mcpResults, httpResults = store, store, store
	} else {
		logger.Printf("db_path is empty, accepted results will not be kept")
	}

	manager := session.NewManager(pipeline, resultStore, policy, logger)
	manager.SetLimits(session.Limits{TTL: cfg.Session.TTL, MaxLive: cfg.Session.MaxLive})

	switch command {
	case "http":
		return serveHTTP(ctx, cfg, httpapi.New(manager, httpResults, logger))
	default:
		return server.New(manager, mcpResults, Version).Run(ctx)
	}
}

func serveHTTP(ctx context.Context, cfg *config.Config, api *httpapi.API) error {
	if !cfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: api.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("JSON API listening on %s", cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
