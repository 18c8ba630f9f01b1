package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"sort"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dealerworks/reconcile-cli/internal/model"
	"github.com/dealerworks/reconcile-cli/internal/seed"
	"github.com/dealerworks/reconcile-cli/internal/session"
	"github.com/dealerworks/reconcile-cli/internal/store"
)

var batchLimit int

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Batch reconcile a directory of order seeds",
	Long:  "Auto-fixes and finalizes every order seed YAML in a directory, persisting finalized orders to the store.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		paths, err := filepath.Glob(filepath.Join(args[0], "*.yaml"))
		if err != nil {
			return eris.Wrap(err, "batch: glob seeds")
		}
		sort.Strings(paths)

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		return processBatch(ctx, paths, batchLimit, cfg.Batch.MaxConcurrentOrders, st)
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of orders to process (0 = all)")
	rootCmd.AddCommand(batchCmd)
}

// processBatch reconciles the given seed files concurrently, auto-accepting
// every discrepancy. Individual order failures are logged, not fatal.
func processBatch(ctx context.Context, paths []string, limit, concurrency int, st store.Store) error {
	if len(paths) == 0 {
		zap.L().Info("no order seeds found")
		return nil
	}

	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}

	zap.L().Info("processing batch",
		zap.Int("orders", len(paths)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, path := range paths {
		g.Go(func() error {
			log := zap.L().With(zap.String("seed", path))

			order, err := reconcileOrder(gctx, path, st)
			if err != nil {
				failed.Add(1)
				log.Error("reconcile failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("reconcile complete",
				zap.String("order_id", order.ID),
				zap.Float64("total", order.Total),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}

// reconcileOrder runs one seed through auto-fix, workflow, and approval.
func reconcileOrder(ctx context.Context, path string, st store.Store) (*model.FinalizedOrder, error) {
	order, err := seed.Load(path)
	if err != nil {
		return nil, err
	}

	sess := session.New(order, sessionOptions())

	if _, err := sess.AutoFix(ctx); err != nil {
		return nil, eris.Wrap(err, "batch: auto-fix")
	}

	sess.Advance() // review -> discount
	sess.Advance() // discount -> finalize

	finalized, ok := sess.Approve()
	if !ok {
		return nil, eris.Errorf("batch: approval rejected for %s", order.ID)
	}

	if st != nil {
		if err := st.SaveSession(ctx, sessionRecord(sess)); err != nil {
			return nil, err
		}
		if err := st.SaveOrder(ctx, *finalized); err != nil {
			return nil, err
		}
	}
	return finalized, nil
}
