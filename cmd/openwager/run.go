package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"code.openwager.io/openwager/broker"
	"code.openwager.io/openwager/config"
	"code.openwager.io/openwager/core/collateral"
	"code.openwager.io/openwager/core/execution"
	"code.openwager.io/openwager/core/markets"
	"code.openwager.io/openwager/core/products"
	"code.openwager.io/openwager/datastore"
	"code.openwager.io/openwager/logging"
	"code.openwager.io/openwager/metrics"
)

var (
	runHome string
	runEnv  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the exchange node",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runNode(cmd.Context())
	},
}

func init() {
	runCmd.Flags().StringVar(&runHome, "home", ".", "directory holding the configuration file")
	runCmd.Flags().StringVar(&runEnv, "env", "prod", "logging environment (dev or prod)")
}

func runNode(ctx context.Context) error {
	log := logging.NewLoggerFromEnv(runEnv)
	defer log.AtExit()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watcher, err := config.NewWatcher(ctx, log, runHome)
	if err != nil {
		return err
	}
	cfg := watcher.Get()

	bkr := broker.New(log, cfg.Broker)
	store := datastore.New(log, cfg.Datastore)
	bkr.Subscribe(datastore.NewIndexer(store))

	col := collateral.New(log, cfg.Collateral)
	prods := products.New(log, cfg.Products)
	gate := markets.New(log, cfg.Markets)
	eng := execution.New(log, cfg.Execution, gate, col, prods, bkr)

	watcher.OnConfigUpdate(func(c config.Config) {
		eng.ReloadConf(c.Execution)
		col.ReloadConf(c.Collateral)
		prods.ReloadConf(c.Products)
		gate.ReloadConf(c.Markets)
		store.ReloadConf(c.Datastore)
	})

	metrics.Start(cfg.Metrics)
	log.Info("node started",
		logging.String("home", runHome),
		logging.Int("metrics-port", cfg.Metrics.Port),
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		log.Info("shutting down", logging.String("signal", s.String()))
	case <-ctx.Done():
	}
	return nil
}
