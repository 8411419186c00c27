package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect workflow run history",
	Long:  "Commands for listing, viewing, and summarizing workflow runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflow runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		filter, err := runFilterFromFlags(cmd)
		if err != nil {
			return err
		}

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the full report of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		filter, err := runFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		filter.Limit = 10000

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		formatRunStats(os.Stdout, computeRunStats(runs))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{runsListCmd, runsStatsCmd} {
		c.Flags().String("kind", "", "filter by workflow (lead, ticket)")
		c.Flags().String("status", "", "filter by run status (completed, failed)")
		c.Flags().String("record", "", "filter by Salesforce record id")
	}
	runsListCmd.Flags().Int("limit", store.DefaultListLimit, "max number of runs to display")
	runsListCmd.Flags().Int("offset", 0, "number of runs to skip")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

func runFilterFromFlags(cmd *cobra.Command) (store.RunFilter, error) {
	var filter store.RunFilter

	if kind, _ := cmd.Flags().GetString("kind"); kind != "" {
		k, err := model.ParseKind(kind)
		if err != nil {
			return filter, err
		}
		filter.Kind = k
	}
	if status, _ := cmd.Flags().GetString("status"); status != "" {
		s := model.Status(status)
		switch s {
		case model.StatusCompleted, model.StatusFailed, model.StatusInProgress:
		default:
			return filter, eris.Errorf("runs: unknown status %q", status)
		}
		filter.Status = s
	}
	filter.RecordID, _ = cmd.Flags().GetString("record")
	if cmd.Flags().Lookup("limit") != nil {
		filter.Limit, _ = cmd.Flags().GetInt("limit")
		filter.Offset, _ = cmd.Flags().GetInt("offset")
	}
	return filter, nil
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total         int
	Completed     int
	Failed        int
	Leads         int
	Tickets       int
	LLMUsed       int
	FailedActions int
	ByErrorKind   map[model.ErrorKind]int
	AvgDurMs      float64
}

// computeRunStats computes aggregate statistics from a list of runs.
func computeRunStats(runs []model.Report) runStats {
	s := runStats{Total: len(runs), ByErrorKind: make(map[model.ErrorKind]int)}

	var totalMs int64
	for _, r := range runs {
		switch r.Kind {
		case model.KindLead:
			s.Leads++
		case model.KindTicket:
			s.Tickets++
		}
		if r.LLMUsed {
			s.LLMUsed++
		}
		s.FailedActions += r.FailedActions()
		totalMs += r.DurationMs

		switch r.Status {
		case model.StatusCompleted:
			s.Completed++
		case model.StatusFailed:
			s.Failed++
			s.ByErrorKind[r.ErrorKind]++
		}
	}

	if s.Total > 0 {
		s.AvgDurMs = float64(totalMs) / float64(s.Total)
	}
	return s
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tWORKFLOW\tRECORD\tSTATUS\tOUTCOME\tSTARTED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t--------\t------\t------\t-------\t-------\t--------")

	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%dms\n",
			truncateID(r.RunID),
			r.Kind.Short(),
			r.RecordID,
			r.Status,
			runOutcome(r),
			r.StartedAt.Format("2006-01-02 15:04"),
			r.DurationMs,
		)
	}
	_ = w.Flush()
}

// runOutcome summarises the verdict of a run in one column.
func runOutcome(r model.Report) string {
	if r.Status == model.StatusFailed {
		return string(r.ErrorKind)
	}
	var out string
	switch {
	case r.Score != nil && r.Decision != nil:
		out = fmt.Sprintf("%s %.2f %s", r.Decision.Priority, r.Score.Score, r.Decision.OwnerType)
	case r.Classification != nil:
		out = string(r.Classification.Category)
		if r.Classification.ProductCategory != "" && r.Classification.ProductCategory != model.ProductNone {
			out += "/" + string(r.Classification.ProductCategory)
		}
	}
	if n := r.FailedActions(); n > 0 {
		out += fmt.Sprintf(" (%d failed actions)", n)
	}
	if len(out) > 40 {
		out = out[:37] + "..."
	}
	return out
}

// formatRunStats writes aggregate stats to w.
func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "  Leads:\t%d\n", s.Leads)
	_, _ = fmt.Fprintf(w, "  Tickets:\t%d\n", s.Tickets)
	_, _ = fmt.Fprintf(w, "Completed:\t%d\n", s.Completed)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)

	kinds := make([]string, 0, len(s.ByErrorKind))
	for k := range s.ByErrorKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", k, s.ByErrorKind[model.ErrorKind(k)])
	}

	_, _ = fmt.Fprintf(w, "LLM used:\t%d\n", s.LLMUsed)
	_, _ = fmt.Fprintf(w, "Failed actions:\t%d\n", s.FailedActions)
	if s.AvgDurMs > 0 {
		_, _ = fmt.Fprintf(w, "Avg duration:\t%.0fms\n", s.AvgDurMs)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
