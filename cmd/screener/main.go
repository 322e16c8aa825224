package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"b3-screener/internal/logger"
	"b3-screener/internal/report"
	"b3-screener/internal/trace"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	outDir := flag.String("out", "", "output directory override for report files")
	flag.Parse()

	_ = godotenv.Load()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer func() { _ = trace.Shutdown(context.Background()) }()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		logger.Warn(ctx, "Interrupt received, cancelling run")
		cancel()
	}()

	if err := run(ctx, *configPath, *outDir); err != nil {
		logger.ErrorWithErr(ctx, "Screener run failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, outDir string) error {
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}

	norm := buildNormalizer(cfg)
	fundamentals, dividends, err := buildSources(ctx, cfg, norm)
	if err != nil {
		return err
	}

	runner := buildRunner(cfg, norm, fundamentals, dividends)

	op := logger.StartOperation(ctx, "screener.run", "workers", cfg.Workers)
	result, err := runner.Run(op.GetContext())
	if err != nil {
		op.EndWithError(err)
		return err
	}
	op.End("records", len(result.Records), "skipped", len(result.Skipped))

	writer := report.NewWriter(cfg.Output.Dir, cfg.Output.SafetyMargins)
	paths, err := writer.Write(ctx, result.Records, result.Skipped)
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}
