package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	prom "github.com/harmony-one/mempool/api/service/prometheus"
	"github.com/harmony-one/mempool/core/mempool"
	"github.com/harmony-one/mempool/core/rawdb"
	mempoolconfig "github.com/harmony-one/mempool/internal/configs/mempool"
	"github.com/harmony-one/mempool/internal/utils"
)

const stateDBNamespace = "mempool/db/state/"

func runMempool(cmd *cobra.Command, args []string) error {
	config, err := getMempoolConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupLog(config); err != nil {
		return err
	}

	poolConfig, err := config.ToPoolConfig()
	if err != nil {
		return err
	}
	defaults, err := config.DefaultAccountState()
	if err != nil {
		return err
	}

	dbPath := filepath.Join(config.General.DataDir, config.General.StateDB)
	db, err := leveldb.New(dbPath, config.General.DBCache, config.General.DBHandles, stateDBNamespace, false)
	if err != nil {
		return errors.Wrapf(err, "open state db %s", dbPath)
	}
	defer db.Close()
	utils.Logger().Info().
		Str("path", dbPath).
		Uint64("version", rawdb.ReadDatabaseVersion(db)).
		Msg("Opened state database")

	pool := mempool.New(poolConfig, rawdb.NewSequenceResolver(db, defaults))
	pool.Start()
	defer pool.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, pool, config)
}

// serve runs the node services until ctx is cancelled or one of them fails.
func serve(ctx context.Context, pool *mempool.Mempool, config mempoolconfig.MempoolConfig) error {
	g, ctx := errgroup.WithContext(ctx)

	promSvc := prom.NewService(config.ToPrometheusConfig(), prom.Handler{
		Path:    "/mempool/size",
		Handler: sizeHandler(pool),
	})
	g.Go(func() error {
		if err := promSvc.Start(); err != nil {
			return err
		}
		<-ctx.Done()
		return promSvc.Stop()
	})

	g.Go(func() error {
		readyCh := make(chan mempool.ReadyTxsEvent, 64)
		sub := pool.SubscribeReadyTxsEvent(readyCh)
		defer sub.Unsubscribe()
		for {
			select {
			case ev := <-readyCh:
				utils.Logger().Debug().Int("count", len(ev.Txs)).Msg("Transactions ready for broadcast")
			case err := <-sub.Err():
				return err
			case <-ctx.Done():
				return nil
			}
		}
	})

	utils.Logger().Info().Msg("Mempool node running")
	err := g.Wait()
	utils.Logger().Info().Err(err).Msg("Mempool node shutting down")
	return err
}

func sizeHandler(pool *mempool.Mempool) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		ready, blocked, bytes := pool.Size()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"ready":   ready,
			"blocked": blocked,
			"bytes":   bytes,
		}); err != nil {
			utils.Logger().Error().Err(err).Msg("Failed to write mempool size")
		}
	}
}

func setupLog(config mempoolconfig.MempoolConfig) error {
	utils.SetLogVerbosity(config.Log.Verbosity)
	if config.Log.Folder == "" {
		return nil
	}
	logPath := filepath.Join(config.Log.Folder, config.Log.FileName)
	return utils.AddLogFile(logPath, config.Log.RotateSize, config.Log.RotateCount, config.Log.RotateMaxAge)
}
