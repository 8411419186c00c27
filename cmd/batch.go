package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/workflow-cli/internal/batchio"
	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/pipeline"
)

var (
	batchFile        string
	batchConcurrency int
	batchUseLLM      bool
)

var batchCmd = &cobra.Command{
	Use:       "batch <lead|ticket>",
	Short:     "Run a workflow for every record in a json, csv or xlsx file",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"lead", "ticket"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		records, err := batchio.ReadFile(batchFile, kind)
		if err != nil {
			return eris.Wrap(err, "batch: read input")
		}

		env, err := initWorkflow(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		reports, err := processBatch(ctx, env.Engine, kind, records, concurrency, batchUseLLM)
		if err != nil {
			return err
		}
		if err := env.Store.SaveReports(ctx, reports); err != nil {
			zap.L().Warn("batch: save run reports failed", zap.Error(err))
		}

		formatRunsList(os.Stdout, derefReports(reports))
		_, _ = fmt.Fprintln(os.Stderr, batchSummary(reports))
		if n := countFailed(reports); n > 0 {
			return eris.Wrapf(errRunFailed, "%d of %d runs failed", n, len(reports))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "input file of records (.json, .csv or .xlsx)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent runs (default from config)")
	batchCmd.Flags().BoolVar(&batchUseLLM, "use-llm", false, "add LLM analysis to scoring and classification")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

// processBatch runs the workflow for every record with at most concurrency
// runs in flight. Reports keep the input order. A failed run never aborts
// the batch.
func processBatch(ctx context.Context, runner workflowRunner, kind model.WorkflowKind, records []model.Record, concurrency int, useLLM bool) ([]*model.Report, error) {
	if len(records) == 0 {
		zap.L().Info("batch: no records to process")
		return nil, nil
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.String("workflow", string(kind)),
		zap.Int("records", len(records)),
		zap.Int("concurrency", concurrency),
	)

	reports := make([]*model.Report, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var completed, failed atomic.Int64

	for i := range records {
		rec := records[i]
		g.Go(func() error {
			rep := runner.Run(gctx, pipeline.Request{
				Kind:       kind,
				Identifier: rec.ID(),
				Record:     &rec,
				UseLLM:     useLLM,
			})
			reports[i] = rep

			log := zap.L().With(
				zap.String("run_id", rep.RunID),
				zap.String("record_id", rec.ID()),
			)
			if rep.Status == model.StatusFailed {
				failed.Add(1)
				log.Warn("batch: run failed",
					zap.String("error_kind", string(rep.ErrorKind)),
					zap.String("reason", rep.FailureReason),
				)
				return nil
			}
			completed.Add(1)
			log.Debug("batch: run complete")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return reports, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("completed", completed.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return reports, nil
}

func derefReports(reports []*model.Report) []model.Report {
	out := make([]model.Report, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func countFailed(reports []*model.Report) int {
	n := 0
	for _, r := range reports {
		if r != nil && r.Status == model.StatusFailed {
			n++
		}
	}
	return n
}

// batchSummary is the one-line result printed after a batch.
func batchSummary(reports []*model.Report) string {
	return fmt.Sprintf("%d runs, %d failed", len(reports), countFailed(reports))
}
