package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/workflow-cli/internal/batchio"
	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/pipeline"
)

// errRunFailed makes the process exit non-zero after a failed report has
// been printed.
var errRunFailed = eris.New("run: workflow failed")

var (
	runRecordID string
	runFile     string
	runUseLLM   bool
)

var runCmd = &cobra.Command{
	Use:       "run <lead|ticket>",
	Short:     "Run one lead qualification or ticket triage workflow",
	Long:      "Runs a single workflow. Without --id or --file the newest unprocessed lead or open case is selected.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"lead", "ticket"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req, err := buildRunRequest(args[0], runRecordID, runFile, runUseLLM)
		if err != nil {
			return err
		}

		env, err := initWorkflow(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		rep := env.Engine.Run(ctx, req)
		saveReport(ctx, env.Store, rep)

		zap.L().Info("workflow complete",
			zap.String("run_id", rep.RunID),
			zap.String("workflow", string(rep.Kind)),
			zap.String("status", string(rep.Status)),
			zap.String("record_id", rep.RecordID),
			zap.Int("failed_actions", rep.FailedActions()),
			zap.Int64("duration_ms", rep.DurationMs),
		)

		return writeReport(os.Stdout, rep)
	},
}

func init() {
	runCmd.Flags().StringVar(&runRecordID, "id", "", "Salesforce lead or case id (default: newest)")
	runCmd.Flags().StringVar(&runFile, "file", "", "run against a record read from a json, csv or xlsx file instead of fetching")
	runCmd.Flags().BoolVar(&runUseLLM, "use-llm", false, "add LLM analysis to scoring and classification")
	rootCmd.AddCommand(runCmd)
}

// buildRunRequest parses the workflow argument and, when file is set, loads
// the single record it holds.
func buildRunRequest(kindArg, id, file string, useLLM bool) (pipeline.Request, error) {
	kind, err := model.ParseKind(kindArg)
	if err != nil {
		return pipeline.Request{}, err
	}
	req := pipeline.Request{Kind: kind, Identifier: id, UseLLM: useLLM}
	if file == "" {
		return req, nil
	}

	recs, err := batchio.ReadFile(file, kind)
	if err != nil {
		return pipeline.Request{}, eris.Wrap(err, "run: read record file")
	}
	switch len(recs) {
	case 0:
		return pipeline.Request{}, eris.Errorf("run: %s holds no records", file)
	case 1:
	default:
		return pipeline.Request{}, eris.Errorf("run: %s holds %d records, use batch", file, len(recs))
	}
	rec := recs[0]
	req.Record = &rec
	if req.Identifier == "" {
		req.Identifier = rec.ID()
	}
	return req, nil
}

// writeReport prints rep as indented JSON and returns errRunFailed for a
// failed run.
func writeReport(w io.Writer, rep *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return eris.Wrap(err, "run: encode report")
	}
	if rep.Status == model.StatusFailed {
		return eris.Wrapf(errRunFailed, "%s: %s", rep.ErrorKind, rep.FailureReason)
	}
	return nil
}
