// Command rollup computes KPI aggregates on demand. It is meant to be
// invoked by an external scheduler:
//
//	rollup hourly    compute the current hour's KPIs for every active crane
//	rollup daily     aggregate today's hourly rows into daily KPIs
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"cranewatch/internal/config"
	"cranewatch/internal/db"
	"cranewatch/internal/kpi"
	"cranewatch/internal/logging"
	"cranewatch/internal/repository"
)

// rollupStore satisfies kpi.Store from the underlying repositories.
type rollupStore struct {
	*repository.CraneRepository
	*repository.MeasurementRepository
	*repository.KPIRepository
}

func main() {
	if len(os.Args) != 2 || (os.Args[1] != "hourly" && os.Args[1] != "daily") {
		fmt.Fprintln(os.Stderr, "usage: rollup hourly|daily")
		os.Exit(2)
	}
	mode := os.Args[1]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	pool, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer pool.Close()

	store := rollupStore{
		repository.NewCraneRepository(pool),
		repository.NewMeasurementRepository(pool),
		repository.NewKPIRepository(pool),
	}
	engine := kpi.NewEngine(store, repository.NewConfigRepository(pool), logger)

	switch mode {
	case "hourly":
		err = engine.ComputeHourly(ctx)
	case "daily":
		err = engine.ComputeDaily(ctx)
	}
	if err != nil {
		logger.Fatal("rollup failed", zap.String("mode", mode), zap.Error(err))
	}
	logger.Info("rollup finished", zap.String("mode", mode))
}
