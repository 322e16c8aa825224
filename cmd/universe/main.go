// Lists the discovered B3 symbol universe on stdout, one per line. Useful
// for building a static universe list for config.yaml.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"b3-screener/internal/logger"
	"b3-screener/internal/store"
	"b3-screener/internal/universe"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	cfg, err := store.LoadConfig(*configPath)
	if os.IsNotExist(err) {
		cfg = store.Default()
	} else if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", *configPath)
		os.Exit(1)
	}

	src := universe.New(
		cfg.Universe.ListURL,
		cfg.Sources.UserAgent,
		time.Duration(cfg.Sources.TimeoutSeconds)*time.Second,
		cfg.Universe.SuffixDigits,
		cfg.Universe.Static,
	)

	symbols, err := src.Symbols(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Universe discovery failed", err)
		os.Exit(1)
	}

	for _, sym := range symbols {
		fmt.Println(sym)
	}
}
