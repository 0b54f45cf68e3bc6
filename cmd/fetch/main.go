package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"cryptochecker/internal/aggregate"
	"cryptochecker/internal/config"
	"cryptochecker/internal/pricing"
)

func main() {
	var (
		symbolsCSV string
		configPath string
		asJSON     bool
		timeout    time.Duration
	)
	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "BTC,EUR"), "comma-separated symbols")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config file (optional)")
	flag.BoolVar(&asJSON, "json", false, "print results as JSON")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	if err := run(configPath, symbolsCSV, asJSON, timeout, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "fetch: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, symbolsCSV string, asJSON bool, timeout time.Duration, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	symbols := aggregate.SplitCSV(symbolsCSV)
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols provided")
	}

	log := zap.NewNop()
	if cfg.Log.Level == "debug" {
		if log, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}
	prices, err := pricing.NewFromConfig(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	results := aggregate.Lookup(ctx, prices, symbols, cfg.Pricing.BatchConcurrency)
	return printResults(out, results, asJSON)
}

func printResults(out io.Writer, results []aggregate.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Results []aggregate.Result `json:"results"`
		}{results})
	}
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(out, "---")
		}
		fmt.Fprintln(out, r.Text)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
