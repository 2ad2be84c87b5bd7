package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/oshw-tokyo/sornette-prediction-sub000/config"
	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/adapters/chart"
	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/adapters/export"
	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/adapters/marketdata"
	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/adapters/notify"
	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/adapters/storage"
	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/analyzer"
	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one analysis cycle and exit")
	symbols := flag.String("symbols", "", "comma-separated symbols (overrides config)")
	windows := flag.String("windows", "", "comma-separated window sizes in days (overrides config)")
	table := flag.Bool("table", false, "print full table (default: compact 1-line)")
	criteria := flag.Bool("criteria", false, "print winner per selection heuristic for top results")
	history := flag.String("history", "", "print stored results for the given symbol and exit")
	stats := flag.Bool("stats", false, "print aggregate statistics of the results database and exit")
	validate := flag.String("validate", "", "run a historical crash validation case and exit (e.g. 1987_black_monday)")
	noDedup := flag.Bool("no-dedup", false, "analyze even if today's result already exists")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if *symbols != "" {
		cfg.Analysis.Symbols = splitList(*symbols)
	}
	if *windows != "" {
		cfg.Analysis.WindowDays = parseIntList(*windows)
	}
	if *noDedup {
		cfg.Analysis.Dedup = false
	}

	slog.Info("lppl analyzer starting",
		"config", *configPath,
		"symbols", cfg.Analysis.Symbols,
		"windows", cfg.Analysis.WindowDays,
		"interval", cfg.AnalysisInterval(),
		"once", *once,
	)

	provider := buildProvider(cfg)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewConsole(*table || *history != "", *criteria)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *history != "" {
		results, err := store.RecentResults(ctx, *history, 20)
		if err != nil {
			slog.Error("history query failed", "err", err, "symbol", *history)
			os.Exit(1)
		}
		notifier.PrintHistory(*history, results)
		return
	}

	if *stats {
		summary, err := store.SummaryStats(ctx)
		if err != nil {
			slog.Error("stats query failed", "err", err)
			os.Exit(1)
		}
		notifier.PrintStats(summary)
		return
	}

	var renderer ports.ChartRenderer
	if cfg.Output.ChartDir != "" {
		r, err := chart.NewPNGRenderer(cfg.Output.ChartDir)
		if err != nil {
			slog.Error("failed to create chart dir", "err", err)
			os.Exit(1)
		}
		renderer = r
	}

	var exporter ports.Exporter
	if cfg.Output.ExportDir != "" && (cfg.Output.ExportCSV || cfg.Output.ExportJSON) {
		e, err := export.NewFileExporter(cfg.Output.ExportDir, cfg.Output.ExportCSV, cfg.Output.ExportJSON)
		if err != nil {
			slog.Error("failed to create export dir", "err", err)
			os.Exit(1)
		}
		exporter = e
	}

	anCfg := analyzer.DefaultConfig()
	anCfg.Symbols = cfg.Analysis.Symbols
	anCfg.Windows = cfg.Analysis.WindowDays
	anCfg.Interval = cfg.AnalysisInterval()
	anCfg.Workers = cfg.Analysis.Workers
	anCfg.TaskTimeout = cfg.TaskTimeout()
	anCfg.Dedup = cfg.Analysis.Dedup
	anCfg.Seed = cfg.Fitting.Seed
	anCfg.RunOnceMode = *once
	anCfg.Fitting.RandomTries = cfg.Fitting.RandomTries
	anCfg.Fitting.MaxEvaluations = cfg.Fitting.MaxEvaluations
	anCfg.Fitting.R2Floor = cfg.Fitting.R2Floor
	anCfg.Fitting.Workers = cfg.Fitting.Workers

	a := analyzer.New(anCfg, provider, store, notifier, renderer, exporter)

	if *validate != "" {
		runValidation(ctx, a, *validate)
		return
	}

	if err := a.Run(ctx); err != nil {
		slog.Error("analyzer exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("lppl analyzer stopped cleanly")
}

// buildProvider monta la cadena de fuentes en orden de prioridad.
// FRED primero si hay key, después Alpha Vantage, Yahoo como fallback sin key.
func buildProvider(cfg *config.Config) *marketdata.UnifiedProvider {
	var sources []marketdata.Source
	if cfg.API.FREDKey != "" {
		sources = append(sources, marketdata.NewFREDClient(cfg.API.FREDBase, cfg.API.FREDKey))
	}
	if cfg.API.AlphaVantageKey != "" {
		sources = append(sources, marketdata.NewAlphaVantageClient(cfg.API.AlphaVantageBase, cfg.API.AlphaVantageKey))
	}
	sources = append(sources, marketdata.NewYahooClient(cfg.API.YahooBase))
	return marketdata.NewUnifiedProvider(sources...)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIntList(s string) []int {
	var out []int
	for _, part := range splitList(s) {
		if n, err := strconv.Atoi(part); err == nil && n > 0 {
			out = append(out, n)
		}
	}
	return out
}
