package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-legal/extract-cli/internal/model"
)

var (
	batchModeFlag string
	batchPattern  string
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Extract fields from every document in a directory",
	Long:  "Fans out over the matching files with bounded concurrency, extracts each one, and saves the results to the configured store.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mode, err := resolveMode(batchModeFlag)
		if err != nil {
			return err
		}
		if mode == model.ModeComplement {
			return eris.New("complement mode needs per-document existing fields; use extract --existing")
		}

		sources, err := filepath.Glob(filepath.Join(args[0], batchPattern))
		if err != nil {
			return eris.Wrapf(err, "glob %s", batchPattern)
		}
		if len(sources) == 0 {
			zap.L().Info("no documents matched", zap.String("dir", args[0]), zap.String("pattern", batchPattern))
			return nil
		}

		orch, err := newOrchestrator()
		if err != nil {
			return err
		}
		reader := newIngestReader()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		records, err := processBatch(ctx, sources, cfg.Batch.MaxConcurrentDocs, func(ctx context.Context, source string) (*model.Record, error) {
			text, err := reader.Read(ctx, source)
			if err != nil {
				return nil, err
			}

			fields, err := orch.Extract(ctx, text, mode, nil)
			if err != nil {
				return nil, err
			}
			if fields == nil {
				return nil, nil
			}
			confs, err := orch.Confidences(ctx, text)
			if err != nil {
				return nil, err
			}

			return &model.Record{
				Source:      source,
				Mode:        mode,
				Fields:      *fields,
				Confidences: confs,
			}, nil
		})
		if err != nil {
			return err
		}

		saved, err := st.SaveRecords(ctx, records)
		if err != nil {
			return eris.Wrap(err, "save records")
		}
		zap.L().Info("batch saved", zap.Int64("records", saved))
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchModeFlag, "mode", "", "extraction mode: best or merge (default from config)")
	batchCmd.Flags().StringVar(&batchPattern, "pattern", "*.txt", "filename glob within the directory")
	rootCmd.AddCommand(batchCmd)
}

// processFunc extracts one document into a record. A nil record with nil
// error means no strategy was applicable.
type processFunc func(ctx context.Context, source string) (*model.Record, error)

// processBatch runs process over the sources with bounded concurrency.
// Individual failures are logged and skipped; they never abort the batch.
func processBatch(ctx context.Context, sources []string, concurrency int, process processFunc) ([]model.Record, error) {
	if concurrency <= 0 {
		concurrency = 5
	}

	zap.L().Info("processing batch",
		zap.Int("documents", len(sources)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results := make([]*model.Record, len(sources))
	var succeeded, empty, failed atomic.Int64

	for i, source := range sources {
		g.Go(func() error {
			log := zap.L().With(zap.String("source", source))

			rec, err := process(gctx, source)
			if err != nil {
				failed.Add(1)
				log.Error("extraction failed", zap.Error(err))
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return nil // don't abort batch on individual failure
			}
			if rec == nil {
				empty.Add(1)
				log.Warn("no strategy produced data")
				return nil
			}

			results[i] = rec
			succeeded.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	records := make([]model.Record, 0, len(results))
	for _, r := range results {
		if r != nil {
			records = append(records, *r)
		}
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("empty", empty.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return records, nil
}
