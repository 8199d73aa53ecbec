package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/1cbyc/tradesim/internal/backtest"
	"github.com/1cbyc/tradesim/internal/config"
	"github.com/1cbyc/tradesim/internal/report"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to the YAML run configuration (empty runs the simulated demo)")
		dataDir    = flag.String("data", "", "Directory of <SYMBOL>.csv files, overrides data.dir")
		logLevel   = flag.String("log-level", "", "Log level (debug, info, warn, error), overrides log.level")
		simulate   = flag.Bool("simulate", false, "Use the seeded random-walk data source")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *dataDir != "" {
		cfg.Data.Source = config.SourceCSV
		cfg.Data.Dir = *dataDir
	}
	if *simulate {
		cfg.Data.Source = config.SourceSimulated
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := setupLogger(cfg.Log.Level)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("Backtest aborted", zap.Error(err))
		if errors.Is(err, backtest.ErrConfiguration) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	runConfig, err := cfg.Run()
	if err != nil {
		return fmt.Errorf("%w: %v", backtest.ErrConfiguration, err)
	}
	strategies, err := cfg.BuildStrategies()
	if err != nil {
		return fmt.Errorf("%w: %v", backtest.ErrConfiguration, err)
	}
	provider, err := cfg.Provider(logger)
	if err != nil {
		return fmt.Errorf("%w: %v", backtest.ErrConfiguration, err)
	}

	engine, err := backtest.New(runConfig, provider, strategies, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleShutdown(ctx, cancel, logger)

	logger.Info("Starting backtest",
		zap.Strings("symbols", runConfig.Symbols),
		zap.String("source", cfg.Data.Source),
		zap.Time("start", runConfig.Start),
		zap.Time("end", runConfig.End),
	)
	result, err := engine.Run(ctx)
	if err != nil {
		return err
	}
	return report.NewConsole().Print(result)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return demoConfig()
	}
	return config.Load(path)
}

// demoConfig is a year of simulated daily bars for a handful of stocks.
func demoConfig() (*config.Config, error) {
	cfg, err := config.Parse([]byte(`
backtest:
  start: 2024-01-01
  end: 2024-12-31
  periods_per_year: 365
strategies:
  - name: ma_crossover
    short_period: 10
    long_period: 30
data:
  source: simulated
  seed: 42
  volatility: "0.02"
`))
	if err != nil {
		return nil, err
	}

	cfg.Backtest.Symbols = []string{"AAPL", "GOOGL", "MSFT", "TSLA", "AMZN", "NVDA"}
	cfg.Data.Prices = map[string]string{
		"AAPL":  "150",
		"GOOGL": "2800",
		"MSFT":  "300",
		"TSLA":  "800",
		"AMZN":  "3200",
		"NVDA":  "600",
	}
	return cfg, nil
}

func setupLogger(level string) *zap.Logger {
	var config zap.Config
	switch level {
	case "debug":
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config = zap.NewProductionConfig()
	}

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}

	return logger
}

func handleShutdown(ctx context.Context, cancel context.CancelFunc, logger *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}
}
